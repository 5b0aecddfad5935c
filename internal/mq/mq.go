package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hotelbook/apiserver/config"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// ErrDisabled is returned by NewBackend when no broker is configured.
var ErrDisabled = errors.New("message queue disabled")

// NewBackend connects to the broker selected by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, ErrDisabled
	case config.MQBackendRabbitMQ:
		return NewRabbitMQClient(cfg.RabbitMQ)
	case config.MQBackendPubSub:
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
}
