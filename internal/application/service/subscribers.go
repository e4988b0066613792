package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/signage-ops/internal/application/dispatcher"
	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/domain/event"
	"github.com/garyjia/signage-ops/internal/i18n"
)

// Journal writes every request event to the decision journal. It subscribes
// synchronously so the trail is complete when a service call returns.
type Journal struct {
	history port.HistoryRepository
	logger  Logger
}

// NewJournal creates a Journal over the history repository
func NewJournal(history port.HistoryRepository, logger Logger) *Journal {
	return &Journal{history: history, logger: logger}
}

// Register subscribes the journal to every event type
func (j *Journal) Register(bus dispatcher.Bus) {
	for _, t := range event.All() {
		bus.Subscribe(t, "journal", j.Handle)
	}
}

// Handle journals one event
func (j *Journal) Handle(ctx context.Context, evt *event.Event) error {
	entry := &entity.ApprovalHistory{
		RequestID: evt.Request.ID,
		ActorID:   evt.ActorID,
		NewStatus: evt.Request.Status.String(),
		Timestamp: evt.Timestamp,
	}

	switch evt.Type {
	case event.TypeRequestSubmitted:
		entry.ActionType = entity.ActionSubmit
	case event.TypeRequestApproved, event.TypeRequestRejected:
		entry.ActionType = entity.ActionDecide
		entry.PreviousStatus = evt.GetPayloadString("previous_status")
	case event.TypeNoticeAppended:
		entry.ActionType = entity.ActionNotice
	case event.TypeEffectFailed:
		entry.ActionType = entity.ActionEffectFailed
		entry.PreviousStatus = evt.Request.Status.String()
	default:
		return nil
	}

	if len(evt.Payload) > 0 {
		data, err := json.Marshal(evt.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", evt.Type, err)
		}
		entry.ActionData = string(data)
	}

	if err := j.history.Create(ctx, entry); err != nil {
		j.logger.Error("Failed to journal event", "error", err, "event", evt.Type, "id", evt.Request.ID)
		return fmt.Errorf("journal %s: %w", evt.Type, err)
	}
	return nil
}

// MetricsRecorder is the subset of the metrics registry the observer feeds
type MetricsRecorder interface {
	RequestSubmitted(kind string)
	RequestDecided(kind, status string)
	NoticeAppended(kind string)
	EffectFailed(effectType string)
	SetPending(n int)
}

// PendingCounter reports the current pending count
type PendingCounter interface {
	Stats(ctx context.Context) entity.RequestStats
}

// MetricsObserver turns request events into counters and the pending gauge
type MetricsObserver struct {
	metrics MetricsRecorder
	pending PendingCounter
}

// NewMetricsObserver creates a MetricsObserver
func NewMetricsObserver(metrics MetricsRecorder, pending PendingCounter) *MetricsObserver {
	return &MetricsObserver{metrics: metrics, pending: pending}
}

// Register subscribes the observer to every event type
func (m *MetricsObserver) Register(bus dispatcher.Bus) {
	for _, t := range event.All() {
		bus.Subscribe(t, "metrics", m.Handle)
	}
}

func (m *MetricsObserver) Handle(ctx context.Context, evt *event.Event) error {
	kind := evt.Request.Kind.String()
	switch evt.Type {
	case event.TypeRequestSubmitted:
		m.metrics.RequestSubmitted(kind)
	case event.TypeRequestApproved, event.TypeRequestRejected:
		m.metrics.RequestDecided(kind, evt.Request.Status.String())
	case event.TypeNoticeAppended:
		m.metrics.NoticeAppended(kind)
	case event.TypeEffectFailed:
		m.metrics.EffectFailed(evt.GetPayloadString("effect_type"))
	}
	m.metrics.SetPending(m.pending.Stats(ctx).Pending)
	return nil
}

const broadcastTimeout = 10 * time.Second

// FeedAnnouncer posts decisions, staff notices and effect failures to the
// management chat. It runs asynchronously; a slow chat never delays a decision.
type FeedAnnouncer struct {
	feed       port.FeedBroadcaster
	translator *i18n.Translator
	logger     Logger
}

// NewFeedAnnouncer creates a FeedAnnouncer
func NewFeedAnnouncer(feed port.FeedBroadcaster, translator *i18n.Translator, logger Logger) *FeedAnnouncer {
	return &FeedAnnouncer{feed: feed, translator: translator, logger: logger}
}

// Register subscribes the announcer to the event types it posts about
func (f *FeedAnnouncer) Register(bus dispatcher.Bus) {
	for _, t := range []event.Type{
		event.TypeRequestApproved,
		event.TypeRequestRejected,
		event.TypeNoticeAppended,
		event.TypeEffectFailed,
	} {
		bus.SubscribeAsync(t, "lark-feed", f.Handle)
	}
}

func (f *FeedAnnouncer) Handle(ctx context.Context, evt *event.Event) error {
	text := f.Text(ctx, evt)
	if text == "" {
		return nil
	}

	// the publishing request may already be finished
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
	defer cancel()

	if err := f.feed.Broadcast(ctx, text); err != nil {
		f.logger.Error("Failed to broadcast to feed", "error", err, "event", evt.Type, "id", evt.Request.ID)
		return err
	}
	return nil
}

// Text renders the chat message for evt in the default locale, or "" when the
// event is not announced
func (f *FeedAnnouncer) Text(ctx context.Context, evt *event.Event) string {
	ctx = i18n.WithLocale(ctx, f.translator.DefaultLocale())

	switch evt.Type {
	case event.TypeRequestApproved, event.TypeRequestRejected:
		actor := evt.ActorID
		if actor == "" {
			actor = "-"
		}
		return f.translator.T(ctx, "feed.decided", map[string]interface{}{
			"ID":     evt.Request.ID,
			"Kind":   f.translator.KindLabel(ctx, evt.Request.Kind),
			"Status": f.translator.StatusLabel(ctx, evt.Request.Status),
			"Actor":  actor,
		})
	case event.TypeNoticeAppended:
		return evt.Request.Detail
	case event.TypeEffectFailed:
		return f.translator.T(ctx, "feed.effect_failed", map[string]interface{}{
			"ID":     evt.Request.ID,
			"Effect": evt.GetPayloadString("effect"),
		})
	}
	return ""
}
