package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hotelbook/apiserver/types"
)

const (
	attrEventType = "event_type"
	attrHotelID   = "hotel_id"
)

// Events publishes and consumes listing change events on one topic.
type Events struct {
	backend Backend
	topic   string
}

func NewEvents(backend Backend, topic string) (*Events, error) {
	if backend == nil {
		return nil, errors.New("mq backend is required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("mq topic is required")
	}
	return &Events{backend: backend, topic: topic}, nil
}

// PublishHotelEvent sends event as JSON. The event type and hotel id are
// duplicated into message attributes for broker-side filtering.
func (e *Events) PublishHotelEvent(ctx context.Context, event types.HotelEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = e.backend.Publish(ctx, e.topic, data, map[string]string{
		attrEventType: string(event.Type),
		attrHotelID:   event.HotelID,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Tail consumes events until ctx is done. Messages that cannot be decoded
// are acknowledged and dropped so they are not redelivered forever.
func (e *Events) Tail(ctx context.Context, fn func(ctx context.Context, event types.HotelEvent) error) error {
	return e.backend.Subscribe(ctx, e.topic, func(ctx context.Context, msg Message) error {
		var event types.HotelEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.WarnContext(ctx, "dropping undecodable hotel event", "message_id", msg.ID, "topic", e.topic, "error", err)
			return nil
		}
		return fn(ctx, event)
	})
}

func (e *Events) Close() error {
	return e.backend.Close()
}
