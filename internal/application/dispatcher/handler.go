package dispatcher

import (
	"context"

	"github.com/garyjia/signage-ops/internal/domain/event"
)

// Handler reacts to a domain event about an approval request
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a subscription
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Async     bool
	Handler   Handler
}
