package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/signage-ops/internal/application/decision"
	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/domain/event"
)

// Logger interface for dependency injection
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RequestRegistry is the approval request store the services work against
type RequestRegistry interface {
	Submit(ctx context.Context, n entity.NewApprovalRequest) (entity.ApprovalRequest, error)
	SubmitWith(ctx context.Context, n entity.NewApprovalRequest, prepare func(entity.ApprovalRequest) error) (entity.ApprovalRequest, error)
	AppendNotification(ctx context.Context, record entity.ApprovalRequest) error
	Transition(ctx context.Context, id string, fn func(current entity.ApprovalRequest) (entity.ApprovalRequest, error)) (entity.ApprovalRequest, error)
	Get(ctx context.Context, id string) (entity.ApprovalRequest, error)
	List(ctx context.Context) []entity.ApprovalRequest
	ListByRequester(ctx context.Context, requesterID string) []entity.ApprovalRequest
	ListPendingForApprover(ctx context.Context) []entity.ApprovalRequest
	Stats(ctx context.Context) entity.RequestStats
}

// TemplateCatalog answers whether a workflow template exists
type TemplateCatalog interface {
	Exists(id string) bool
}

// ListFilter narrows a registry listing. Zero fields match everything.
type ListFilter struct {
	RequesterID string
	Status      entity.Status
	Kind        entity.Kind
}

func (f ListFilter) matches(r entity.ApprovalRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	return true
}

// ApprovalService drives the reviewer inbox: submissions, decisions and the
// read views over the registry
type ApprovalService interface {
	Submit(ctx context.Context, n entity.NewApprovalRequest) (entity.ApprovalRequest, error)

	// SubmitWith runs prepare on the new request before it is stored. If
	// prepare fails nothing is stored and no event is published.
	SubmitWith(ctx context.Context, n entity.NewApprovalRequest, prepare func(entity.ApprovalRequest) error) (entity.ApprovalRequest, error)

	// Decide records a terminal decision. When the status was committed but one
	// or more side effects failed, the updated request is returned together
	// with an error matching entity.ErrSideEffectDispatch.
	Decide(ctx context.Context, id string, d entity.Decision, reviewerID string) (entity.ApprovalRequest, error)

	Get(ctx context.Context, id string) (entity.ApprovalRequest, error)
	List(ctx context.Context, filter ListFilter) []entity.ApprovalRequest
	ListPending(ctx context.Context) []entity.ApprovalRequest
	Stats(ctx context.Context) entity.RequestStats
	History(ctx context.Context, id string) ([]*entity.ApprovalHistory, error)
}

type approvalServiceImpl struct {
	registry  RequestRegistry
	engine    decision.Engine
	effects   dispatcher.EffectDispatcher
	bus       dispatcher.Bus
	templates TemplateCatalog
	history   port.HistoryRepository
	logger    Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	registry RequestRegistry,
	engine decision.Engine,
	effects dispatcher.EffectDispatcher,
	bus dispatcher.Bus,
	templates TemplateCatalog,
	history port.HistoryRepository,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		registry:  registry,
		engine:    engine,
		effects:   effects,
		bus:       bus,
		templates: templates,
		history:   history,
		logger:    logger,
	}
}

// Submit stores a new pending request
func (s *approvalServiceImpl) Submit(ctx context.Context, n entity.NewApprovalRequest) (entity.ApprovalRequest, error) {
	return s.SubmitWith(ctx, n, nil)
}

func (s *approvalServiceImpl) SubmitWith(ctx context.Context, n entity.NewApprovalRequest, prepare func(entity.ApprovalRequest) error) (entity.ApprovalRequest, error) {
	if n.TemplateID != "" && !s.templates.Exists(n.TemplateID) {
		return entity.ApprovalRequest{}, fmt.Errorf("%w: %w %s", entity.ErrValidation, entity.ErrTemplateNotFound, n.TemplateID)
	}

	req, err := s.registry.SubmitWith(ctx, n, prepare)
	if err != nil {
		s.logger.Error("Failed to submit request", "error", err, "kind", n.Kind, "requester", n.RequesterID)
		return entity.ApprovalRequest{}, err
	}

	s.publish(ctx, event.NewEvent(event.TypeRequestSubmitted, req, nil).WithActor(req.RequesterID))

	s.logger.Info("Request submitted", "id", req.ID, "kind", req.Kind, "requester", req.RequesterID)
	return req, nil
}

func (s *approvalServiceImpl) Decide(ctx context.Context, id string, d entity.Decision, reviewerID string) (entity.ApprovalRequest, error) {
	var outcome decision.Outcome
	updated, err := s.registry.Transition(ctx, id, func(current entity.ApprovalRequest) (entity.ApprovalRequest, error) {
		out, err := s.engine.Decide(current, d)
		if err != nil {
			return entity.ApprovalRequest{}, err
		}
		outcome = out
		return out.Updated, nil
	})
	if err != nil {
		s.logger.Error("Decision refused", "error", err, "id", id, "decision", d)
		return entity.ApprovalRequest{}, err
	}

	s.logger.Info("Request decided",
		"id", updated.ID,
		"kind", updated.Kind,
		"previous_status", outcome.Previous,
		"status", updated.Status,
		"reviewer", reviewerID,
		"effects", len(outcome.SideEffects),
	)

	decided := event.NewEvent(event.ForDecision(updated.Status), updated, map[string]interface{}{
		"previous_status": outcome.Previous.String(),
	}).WithActor(reviewerID)
	s.publish(ctx, decided)

	if err := s.effects.Apply(ctx, outcome.SideEffects); err != nil {
		s.reportEffectFailures(ctx, updated, reviewerID, err)
		return updated, fmt.Errorf("request %s committed as %s: %w", updated.ID, updated.Status, err)
	}

	return updated, nil
}

func (s *approvalServiceImpl) reportEffectFailures(ctx context.Context, req entity.ApprovalRequest, reviewerID string, err error) {
	s.logger.Error("Side effects failed after decision", "error", err, "id", req.ID, "status", req.Status)

	var dispatchErr *dispatcher.DispatchError
	if !errors.As(err, &dispatchErr) {
		s.publish(ctx, event.NewEvent(event.TypeEffectFailed, req, map[string]interface{}{
			"effect": "",
			"error":  err.Error(),
		}).WithActor(reviewerID))
		return
	}

	for _, f := range dispatchErr.Failures {
		s.publish(ctx, event.NewEvent(event.TypeEffectFailed, req, map[string]interface{}{
			"effect":      f.Effect.String(),
			"effect_type": string(f.Effect.Type()),
			"error":       f.Err.Error(),
		}).WithActor(reviewerID))
	}
}

func (s *approvalServiceImpl) Get(ctx context.Context, id string) (entity.ApprovalRequest, error) {
	return s.registry.Get(ctx, id)
}

// List returns matching requests, newest first
func (s *approvalServiceImpl) List(ctx context.Context, filter ListFilter) []entity.ApprovalRequest {
	var base []entity.ApprovalRequest
	if filter.RequesterID != "" {
		base = s.registry.ListByRequester(ctx, filter.RequesterID)
	} else {
		base = s.registry.List(ctx)
	}

	result := make([]entity.ApprovalRequest, 0, len(base))
	for _, r := range base {
		if filter.matches(r) {
			result = append(result, r)
		}
	}
	return result
}

func (s *approvalServiceImpl) ListPending(ctx context.Context) []entity.ApprovalRequest {
	return s.registry.ListPendingForApprover(ctx)
}

func (s *approvalServiceImpl) Stats(ctx context.Context) entity.RequestStats {
	return s.registry.Stats(ctx)
}

// History returns the journal of a known request, oldest entry first
func (s *approvalServiceImpl) History(ctx context.Context, id string) ([]*entity.ApprovalHistory, error) {
	if _, err := s.registry.Get(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.history.GetByRequestID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load history", "error", err, "id", id)
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

// publish hands evt to the bus. Observer failures never undo a committed change.
func (s *approvalServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Error("Event handlers failed", "error", err, "event", evt.Type, "id", evt.Request.ID)
	}
}
