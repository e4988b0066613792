// Package registry holds the authoritative list of approval requests.
//
// All mutations go through Submit, SubmitWith, AppendNotification or
// Transition, each of
// which runs under the registry's write lock. Reads return copies, so callers
// can never alter stored requests.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

const maxIDAttempts = 8

// IDGenerator returns a candidate id for a request of the given kind
type IDGenerator func(kind entity.Kind) string

// Option configures the registry
type Option func(*Registry)

// WithClock overrides the submission clock
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator overrides id generation
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// Registry stores approval requests, most recent first
type Registry struct {
	mu    sync.RWMutex
	order []string // newest first
	byID  map[string]entity.ApprovalRequest

	now    func() time.Time
	newID  IDGenerator
	logger *zap.Logger
}

// New creates an empty registry
func New(logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		byID:   make(map[string]entity.ApprovalRequest),
		now:    time.Now,
		newID:  DefaultID,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultID builds ids as <PREFIX>-<uuid>
func DefaultID(kind entity.Kind) string {
	return fmt.Sprintf("%s-%s", kind.IDPrefix(), uuid.NewString())
}

// Submit stores a new pending request at the head of the registry
func (r *Registry) Submit(ctx context.Context, n entity.NewApprovalRequest) (entity.ApprovalRequest, error) {
	return r.SubmitWith(ctx, n, nil)
}

// SubmitWith is Submit with a hook that sees the request, id included, before
// it is stored. A hook error leaves the registry unchanged. The hook runs under
// the write lock and must not call back into the registry.
func (r *Registry) SubmitWith(ctx context.Context, n entity.NewApprovalRequest, prepare func(entity.ApprovalRequest) error) (entity.ApprovalRequest, error) {
	if err := n.Validate(); err != nil {
		return entity.ApprovalRequest{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.uniqueID(n.Kind)
	if err != nil {
		return entity.ApprovalRequest{}, err
	}

	req := entity.ApprovalRequest{
		ID:              id,
		RequesterID:     n.RequesterID,
		RequesterDept:   n.RequesterDept,
		Kind:            n.Kind,
		AmountDisplay:   n.AmountDisplay,
		Detail:          n.Detail,
		CreatedAt:       r.now(),
		Status:          entity.StatusPending,
		RelatedEntityID: n.RelatedEntityID,
		TemplateID:      n.TemplateID,
		Metadata:        n.Metadata.Clone(),
	}
	if prepare != nil {
		if err := prepare(req.Clone()); err != nil {
			return entity.ApprovalRequest{}, err
		}
	}
	r.insertHead(req)

	r.logger.Info("Approval request submitted",
		zap.String("id", req.ID),
		zap.String("kind", req.Kind.String()),
		zap.String("requester_id", req.RequesterID))

	return req.Clone(), nil
}

// AppendNotification stores an informational record that is already approved.
// It is the only way a record enters the registry in a terminal state.
func (r *Registry) AppendNotification(ctx context.Context, record entity.ApprovalRequest) error {
	if err := (entity.NewApprovalRequest{
		RequesterID: record.RequesterID,
		Kind:        record.Kind,
		Detail:      record.Detail,
	}).Validate(); err != nil {
		return err
	}
	if record.Status != "" && record.Status != entity.StatusApproved {
		return entity.Validationf("notification %s must be approved, got %s", record.ID, record.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		id, err := r.uniqueID(record.Kind)
		if err != nil {
			return err
		}
		record.ID = id
	} else if _, exists := r.byID[record.ID]; exists {
		return entity.Validationf("request id %s already exists", record.ID)
	}

	now := r.now()
	record.Status = entity.StatusApproved
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.DecidedAt == nil {
		record.DecidedAt = &now
	}
	r.insertHead(record.Clone())

	r.logger.Info("Notification appended",
		zap.String("id", record.ID),
		zap.String("kind", record.Kind.String()))
	return nil
}

// Transition applies fn to the current request as one atomic step. fn sees a
// copy of the stored request and returns its replacement; nothing is stored
// when fn fails. A terminal status can never be changed.
func (r *Registry) Transition(ctx context.Context, id string, fn func(current entity.ApprovalRequest) (entity.ApprovalRequest, error)) (entity.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return entity.ApprovalRequest{}, fmt.Errorf("%w: approval request %s", entity.ErrNotFound, id)
	}

	updated, err := fn(current.Clone())
	if err != nil {
		return entity.ApprovalRequest{}, err
	}

	if updated.ID != id {
		return entity.ApprovalRequest{}, fmt.Errorf("transition of %s returned request %s", id, updated.ID)
	}
	if current.Status.IsTerminal() && updated.Status != current.Status {
		return entity.ApprovalRequest{}, fmt.Errorf("%w: request %s is already %s", entity.ErrInvalidState, id, current.Status)
	}

	r.byID[id] = updated.Clone()
	return updated.Clone(), nil
}

// Get returns the request with the given id
func (r *Registry) Get(ctx context.Context, id string) (entity.ApprovalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return entity.ApprovalRequest{}, fmt.Errorf("%w: approval request %s", entity.ErrNotFound, id)
	}
	return req.Clone(), nil
}

// List returns every request, most recent first
func (r *Registry) List(ctx context.Context) []entity.ApprovalRequest {
	return r.filter(func(entity.ApprovalRequest) bool { return true })
}

// ListByRequester returns the requests filed by requesterID
func (r *Registry) ListByRequester(ctx context.Context, requesterID string) []entity.ApprovalRequest {
	return r.filter(func(req entity.ApprovalRequest) bool { return req.RequesterID == requesterID })
}

// ListByStatus returns the requests in the given status
func (r *Registry) ListByStatus(ctx context.Context, status entity.Status) []entity.ApprovalRequest {
	return r.filter(func(req entity.ApprovalRequest) bool { return req.Status == status })
}

// ListByKind returns the requests of the given kind
func (r *Registry) ListByKind(ctx context.Context, kind entity.Kind) []entity.ApprovalRequest {
	return r.filter(func(req entity.ApprovalRequest) bool { return req.Kind == kind })
}

// ListPendingForApprover returns every pending request. Visibility is global:
// any reviewer sees any pending request.
func (r *Registry) ListPendingForApprover(ctx context.Context) []entity.ApprovalRequest {
	return r.ListByStatus(ctx, entity.StatusPending)
}

// Stats returns the pending and total counts
func (r *Registry) Stats(ctx context.Context) entity.RequestStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := entity.RequestStats{Total: len(r.order)}
	for _, id := range r.order {
		if r.byID[id].Status == entity.StatusPending {
			stats.Pending++
		}
	}
	return stats
}

func (r *Registry) filter(keep func(entity.ApprovalRequest) bool) []entity.ApprovalRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entity.ApprovalRequest, 0, len(r.order))
	for _, id := range r.order {
		req := r.byID[id]
		if keep(req) {
			result = append(result, req.Clone())
		}
	}
	return result
}

// insertHead must be called with the write lock held
func (r *Registry) insertHead(req entity.ApprovalRequest) {
	r.byID[req.ID] = req
	r.order = append([]string{req.ID}, r.order...)
}

// uniqueID must be called with the write lock held
func (r *Registry) uniqueID(kind entity.Kind) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.newID(kind)
		if _, exists := r.byID[id]; !exists && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique id for kind %s after %d attempts", kind, maxIDAttempts)
}
