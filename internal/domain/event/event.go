package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// Event is a domain event about one approval request
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	Request       entity.ApprovalRequest `json:"request"`
	ActorID       string                 `json:"actor_id,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates an event with a generated id, carrying a snapshot of the request
func NewEvent(eventType Type, req entity.ApprovalRequest, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		Request:       req.Clone(),
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
}

// ForDecision returns the event type published for a terminal status
func ForDecision(status entity.Status) Type {
	if status == entity.StatusApproved {
		return TypeRequestApproved
	}
	return TypeRequestRejected
}

// WithActor returns a copy of the event attributed to actorID
func (e *Event) WithActor(actorID string) *Event {
	c := *e
	c.ActorID = actorID
	return &c
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	c := *e
	c.Payload = payload
	return &c
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
