package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ConsumerRegistry fans envelopes out to the consumers registered for
// their routing key.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	byKey  map[string][]EventConsumer
	logger *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{byKey: make(map[string][]EventConsumer), logger: logger}
}

// Register subscribes consumer to every routing key it declares.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		r.byKey[key] = append(r.byKey[key], consumer)
		r.logger.Debug("consumer registered", "routing_key", key)
	}
}

// Consumers returns the consumers subscribed to routingKey.
func (r *ConsumerRegistry) Consumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventConsumer(nil), r.byKey[routingKey]...)
}

// Dispatch hands event to each subscribed consumer. Every consumer runs even
// when an earlier one fails; the failures are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.Consumers(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.Debug("no consumers", "routing_key", event.RoutingKey)
		return nil
	}

	start := time.Now()
	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	r.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"consumers", len(consumers),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return errors.Join(errs...)
}
