package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithMetrics records relay counters on m.
func WithMetrics(m observability.Metrics) ProcessorOption {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock replaces time.Now for retry scheduling and stats.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// Stats is a snapshot of what the processor has relayed.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// Processor relays ledger events from the outbox to the publisher. A message
// that fails is retried with exponential backoff until MaxRetries, then
// dead-lettered.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls the outbox in a goroutine until ctx ends or Stop is called.
// Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.stop = make(chan struct{})

	p.wg.Add(1)
	go p.run(ctx, p.stop)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop halts polling and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning returns true if the processor is running.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) run(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessOnce relays one batch synchronously. Publish failures are recorded
// on the messages; only a failure to read the outbox is returned.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.observe(func(s *Stats, now time.Time) {
			s.LastError = err.Error()
			s.LastErrorAt = &now
		})
		return err
	}
	p.observeBatch(messages)

	for _, msg := range messages {
		if err := p.publish(ctx, msg); err != nil {
			p.fail(ctx, msg, err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("failed to mark message as published",
				"id", msg.ID,
				"event_id", msg.EventID,
				"error", err,
			)
			continue
		}
		p.observe(func(s *Stats, _ time.Time) { s.PublishedCount++ })
		p.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", msg.RoutingKey))
	}
	return nil
}

func (p *Processor) publish(ctx context.Context, msg *Message) error {
	body, err := msg.Envelope()
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg.RoutingKey, body)
}

func (p *Processor) fail(ctx context.Context, msg *Message, err error) {
	meta, _ := msg.eventMetadata()
	dead := msg.Exhausted(p.config.MaxRetries)
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", meta.CorrelationID,
		"principal", meta.Principal,
		"dead_letter", dead,
		"error", err,
	)

	outcome := "retry"
	var markErr error
	if dead {
		outcome = "dead"
		markErr = p.repo.MarkDead(ctx, msg.ID, err.Error())
	} else {
		markErr = p.repo.MarkFailed(ctx, msg.ID, err.Error(), p.now().Add(p.retryBackoff(msg.RetryCount+1)))
	}
	if markErr != nil {
		p.logger.Error("failed to record publish failure", "id", msg.ID, "outcome", outcome, "error", markErr)
	}

	p.observe(func(s *Stats, now time.Time) {
		if dead {
			s.DeadCount++
		} else {
			s.FailedCount++
		}
		s.LastError = err.Error()
		s.LastErrorAt = &now
	})
	p.metrics.Counter(observability.MetricOutboxFailed, 1,
		observability.T("routing_key", msg.RoutingKey),
		observability.T("outcome", outcome),
	)
}

// retryBackoff doubles from RetryBackoffBase per attempt, capped at
// RetryBackoffMax.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	limit := p.config.RetryBackoffMax
	if limit <= 0 {
		limit = time.Minute
	}
	if attempt < 1 {
		attempt = 1
	}
	// Past 30 doublings every sane base has hit the cap.
	if attempt > 31 {
		return limit
	}

	backoff := base * time.Duration(1<<convert.IntToUintSafe(attempt-1))
	if backoff <= 0 || backoff > limit {
		return limit
	}
	return backoff
}

// GetStats returns current processor statistics.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	stats := p.stats
	stats.IsRunning = running
	return stats
}

func (p *Processor) observe(fn func(s *Stats, now time.Time)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	fn(&p.stats, p.now())
}

func (p *Processor) observeBatch(messages []*Message) {
	p.metrics.Gauge(observability.MetricOutboxPending, float64(len(messages)))
	p.observe(func(s *Stats, now time.Time) {
		s.LastProcessedAt = &now
		s.LagSeconds = 0
		s.OldestMessageAt = nil
		if len(messages) == 0 {
			return
		}
		oldest := messages[0].CreatedAt
		for _, msg := range messages[1:] {
			if msg.CreatedAt.Before(oldest) {
				oldest = msg.CreatedAt
			}
		}
		s.OldestMessageAt = &oldest
		s.LagSeconds = now.Sub(oldest).Seconds()
	})
}
