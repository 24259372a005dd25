// Package events fans domain changes out to Redis subscribers and websocket clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Channel is the Redis pub/sub channel carrying every domain event.
const Channel = "inkwell:events"

// Event types.
const (
	PostCreated     = "post.created"
	PostPublished   = "post.published"
	PostArchived    = "post.archived"
	PostDeleted     = "post.deleted"
	CommentCreated  = "comment.created"
	CategoryCreated = "category.created"
	UserCreated     = "user.created"
)

// Event is the wire form of one domain change.
type Event struct {
	Type       string      `json:"type"`
	ResourceID string      `json:"resourceId"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
	TraceID    string      `json:"traceId,omitempty"`
}

// New stamps an event with the current time.
func New(eventType, resourceID string, payload interface{}) Event {
	return Event{Type: eventType, ResourceID: resourceID, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Publisher writes events to the Redis channel. A Publisher without a client
// drops events.
type Publisher struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher. rdb may be nil.
func NewPublisher(rdb *redis.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{rdb: rdb, logger: logger}
}

// Publish sends e. Failures are logged and counted, never returned.
func (p *Publisher) Publish(ctx context.Context, e Event) {
	if p == nil || p.rdb == nil {
		observability.EventsPublished.WithLabelValues(e.Type, "skipped").Inc()
		return
	}

	span, ctx := observability.NewSpan(ctx, "events.publish", attribute.String("event.type", e.Type))
	defer span.End()

	if e.TraceID == "" {
		e.TraceID = observability.TraceIDFromContext(ctx)
	}
	body, err := json.Marshal(e)
	if err != nil {
		span.SetError(err)
		p.fail(ctx, e, fmt.Errorf("marshal event: %w", err))
		return
	}
	if err := p.rdb.Publish(ctx, Channel, body).Err(); err != nil {
		span.SetError(err)
		p.fail(ctx, e, err)
		return
	}
	observability.EventsPublished.WithLabelValues(e.Type, "ok").Inc()
}

func (p *Publisher) fail(ctx context.Context, e Event, err error) {
	observability.EventsPublished.WithLabelValues(e.Type, "error").Inc()
	p.logger.WarnContext(ctx, "event publish failed",
		slog.String("event_type", e.Type),
		slog.String("resource_id", e.ResourceID),
		slog.String("error", err.Error()),
	)
}

// Subscribe delivers every payload on Channel to onMessage until ctx is done.
// It returns once the subscription is confirmed.
func (p *Publisher) Subscribe(ctx context.Context, onMessage func(payload string)) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	sub := p.rdb.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							p.logger.Error("panic in event subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
