package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultQueue = "autopay.keeper"

var errConsumerRunning = errors.New("consumer already running")

// RabbitMQConsumerConfig configures a RabbitMQConsumer. Empty QueueName and
// Exchange fall back to the keeper queue and ExchangeName.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Logger    *slog.Logger
}

// RabbitMQConsumer drains a durable queue bound to the routing keys of its
// registered consumers.
type RabbitMQConsumer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	logger   *slog.Logger
	running  bool
	done     chan struct{}
}

// NewRabbitMQConsumer dials the broker and declares the queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = defaultQueue
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	conn, ch, err := dialTopic(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = closeAMQP(conn, ch)
		return nil, fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("rabbitmq consumer connected", "queue", cfg.QueueName, "exchange", cfg.Exchange)
	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    cfg.QueueName,
		exchange: cfg.Exchange,
		registry: registry,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer adds consumer to the registry and binds the queue to each
// of its routing keys. Bind failures are logged; the consumer still receives
// keys bound by an earlier run.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			c.logger.Error("queue bind failed", "queue", c.queue, "routing_key", key, "error", err)
			continue
		}
		c.logger.Debug("queue bound", "queue", c.queue, "routing_key", key)
	}
}

// Start consumes until ctx is cancelled or Close is called. Deliveries are
// acked after a successful dispatch and requeued otherwise; envelopes that
// cannot be decoded are acked and dropped.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errConsumerRunning
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) {
	event, err := decodeEnvelope(d.RoutingKey, d.Body)
	if err != nil {
		c.logger.Error("dropping undecodable envelope", "routing_key", d.RoutingKey, "error", err)
		c.settle(d.Ack(false))
		return
	}
	if err := c.registry.Dispatch(ctx, event); err != nil {
		c.settle(d.Nack(false, true))
		return
	}
	c.settle(d.Ack(false))
}

func (c *RabbitMQConsumer) settle(err error) {
	if err != nil {
		c.logger.Error("delivery settle failed", "error", err)
	}
}

// Close stops Start and closes the connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	c.running = false
	err := closeAMQP(c.conn, c.channel)
	c.logger.Info("rabbitmq consumer closed")
	return err
}
