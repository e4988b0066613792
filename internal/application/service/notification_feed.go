package service

import (
	"context"

	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/application/registry"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/domain/event"
)

type notificationFeed struct {
	registry RequestRegistry
	bus      dispatcher.Bus
	logger   Logger
}

// NewNotificationFeed returns the NotificationFeed collaborator: notices land
// at the head of the registry and are announced on the bus
func NewNotificationFeed(reg RequestRegistry, bus dispatcher.Bus, logger Logger) port.NotificationFeed {
	return &notificationFeed{registry: reg, bus: bus, logger: logger}
}

func (f *notificationFeed) AppendNotification(ctx context.Context, record entity.ApprovalRequest) error {
	if record.ID == "" {
		record.ID = registry.DefaultID(record.Kind)
	}
	if err := f.registry.AppendNotification(ctx, record); err != nil {
		return err
	}

	// the registry fills in status and timestamps
	stored, err := f.registry.Get(ctx, record.ID)
	if err != nil {
		return err
	}

	evt := event.NewEvent(event.TypeNoticeAppended, stored, map[string]interface{}{
		"notice_type": noticeType(stored),
	}).WithActor(stored.RequesterID)
	if err := f.bus.Publish(ctx, evt); err != nil {
		f.logger.Error("Event handlers failed", "error", err, "event", evt.Type, "id", stored.ID)
	}
	return nil
}

func noticeType(r entity.ApprovalRequest) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata.NoticeType
}
