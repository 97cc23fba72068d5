package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// InProcessEventBus stands in for the broker when no RabbitMQ URL is
// configured. Envelopes are delivered synchronously, one at a time.
type InProcessEventBus struct {
	mu       sync.Mutex
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a bus with no consumers.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

// RegisterConsumer subscribes consumer to the bus.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes payload and dispatches it. Undecodable envelopes and
// consumer failures are logged and swallowed so a local alerting problem
// never marks an outbox row as failed.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := decodeEnvelope(routingKey, payload)
	if err != nil {
		b.logger.Error("dropping undecodable envelope", "routing_key", routingKey, "error", err)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.Warn("in-process delivery failed", "routing_key", event.RoutingKey, "error", err)
	}
	return nil
}

// Close is a no-op.
func (b *InProcessEventBus) Close() error { return nil }

// InProcessPublisher adapts the bus to the Publisher interface used by the
// outbox processor.
type InProcessPublisher struct {
	bus    *InProcessEventBus
	logger *slog.Logger
}

// NewInProcessPublisher wraps bus.
func NewInProcessPublisher(bus *InProcessEventBus, logger *slog.Logger) *InProcessPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessPublisher{bus: bus, logger: logger}
}

// Publish forwards to the bus.
func (p *InProcessPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("publishing in process", "routing_key", routingKey, "size", len(payload))
	return p.bus.Publish(ctx, routingKey, payload)
}

// Close is a no-op; the bus outlives its publishers.
func (p *InProcessPublisher) Close() error { return nil }
