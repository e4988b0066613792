// Package decision applies a reviewer's verdict to a single approval request
// and computes the side effects the verdict implies. It performs no I/O.
package decision

import (
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/signage-ops/internal/domain/effect"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	domainwf "github.com/garyjia/signage-ops/internal/domain/workflow"
)

// Outcome is the result of deciding one request
type Outcome struct {
	Previous    entity.Status          `json:"previous"`
	Updated     entity.ApprovalRequest `json:"updated"`
	SideEffects []effect.SideEffect    `json:"side_effects"`
}

// Engine decides pending requests
type Engine interface {
	Decide(req entity.ApprovalRequest, d entity.Decision) (Outcome, error)
}

type engineImpl struct {
	lifecycle *domainwf.Builder
	now       func() time.Time
}

// NewEngine creates a decision engine backed by the approval lifecycle
func NewEngine(now func() time.Time) Engine {
	if now == nil {
		now = time.Now
	}
	return &engineImpl{
		lifecycle: domainwf.ApprovalLifecycle(),
		now:       now,
	}
}

// Decide moves a pending request to the status named by d. The input is not
// modified. Deciding a request that is already approved or rejected fails with
// ErrInvalidState and yields no effects.
func (e *engineImpl) Decide(req entity.ApprovalRequest, d entity.Decision) (Outcome, error) {
	trigger, ok := domainwf.TriggerFor(d)
	if !ok {
		return Outcome{}, entity.Validationf("unknown decision %q", d)
	}

	state, err := domainwf.FromStatus(req.Status)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: request %s has status %q", entity.ErrInvalidState, req.ID, req.Status)
	}

	machine, err := e.lifecycle.Build(state)
	if err != nil {
		return Outcome{}, err
	}
	if err := machine.Fire(trigger); err != nil {
		if errors.Is(err, domainwf.ErrInvalidTransition) {
			return Outcome{}, fmt.Errorf("%w: request %s is already %s", entity.ErrInvalidState, req.ID, req.Status)
		}
		return Outcome{}, err
	}

	updated := req.Clone()
	updated.Status = machine.State().Status()
	decidedAt := e.now()
	updated.DecidedAt = &decidedAt

	return Outcome{
		Previous:    req.Status,
		Updated:     updated,
		SideEffects: SideEffectsFor(updated),
	}, nil
}

// SideEffectsFor maps an approved request to the effects its kind requires.
// Rejected and pending requests never produce effects.
func SideEffectsFor(req entity.ApprovalRequest) []effect.SideEffect {
	if req.Status != entity.StatusApproved {
		return nil
	}

	switch req.Kind {
	case entity.KindContractRemittance:
		amount, _ := req.Metadata.AmountValue()
		return []effect.SideEffect{effect.IncreaseContractPaid{
			ContractID: req.RelatedEntityID,
			Amount:     amount,
		}}
	case entity.KindCorporatePayout:
		return []effect.SideEffect{effect.RemoveFromPendingPayoutQueue{RequestID: req.ID}}
	default:
		return nil
	}
}
