package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/effect"
	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// Failure is one side effect a collaborator could not apply
type Failure struct {
	Effect effect.SideEffect
	Err    error
}

// DispatchError reports the effects that failed during Apply. It matches
// entity.ErrSideEffectDispatch and every underlying cause under errors.Is.
type DispatchError struct {
	Failures []Failure
}

func (e *DispatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Effect, f.Err)
	}
	return fmt.Sprintf("%v: %s", entity.ErrSideEffectDispatch, strings.Join(parts, "; "))
}

func (e *DispatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, entity.ErrSideEffectDispatch)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// EffectDispatcher routes side effects to their collaborators
type EffectDispatcher interface {
	// Apply attempts every effect in order, even after a failure, and
	// returns a *DispatchError when any of them failed
	Apply(ctx context.Context, effects []effect.SideEffect) error
}

type effectDispatcherImpl struct {
	ledger  port.ContractLedger
	payouts port.PayoutQueue
	feed    port.NotificationFeed
	logger  *zap.Logger
}

// NewEffectDispatcher creates an effect dispatcher over the collaborators
func NewEffectDispatcher(ledger port.ContractLedger, payouts port.PayoutQueue, feed port.NotificationFeed, logger *zap.Logger) EffectDispatcher {
	return &effectDispatcherImpl{
		ledger:  ledger,
		payouts: payouts,
		feed:    feed,
		logger:  logger,
	}
}

func (d *effectDispatcherImpl) Apply(ctx context.Context, effects []effect.SideEffect) error {
	var failures []Failure
	for _, eff := range effects {
		if err := d.apply(ctx, eff); err != nil {
			d.logger.Error("Side effect failed",
				zap.String("effect", eff.String()),
				zap.Error(err))
			failures = append(failures, Failure{Effect: eff, Err: err})
			continue
		}
		d.logger.Info("Side effect applied", zap.String("effect", eff.String()))
	}

	if len(failures) > 0 {
		return &DispatchError{Failures: failures}
	}
	return nil
}

func (d *effectDispatcherImpl) apply(ctx context.Context, eff effect.SideEffect) error {
	switch e := eff.(type) {
	case effect.IncreaseContractPaid:
		_, err := d.ledger.IncreasePaid(ctx, e.ContractID, e.Amount)
		return err
	case effect.RemoveFromPendingPayoutQueue:
		return d.payouts.Remove(ctx, e.RequestID)
	case effect.AppendNotification:
		return d.feed.AppendNotification(ctx, e.Record)
	default:
		return fmt.Errorf("unsupported side effect %T", eff)
	}
}
