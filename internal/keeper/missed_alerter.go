package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

// Alert records one schedule that skipped past due boundaries.
type Alert struct {
	Ledger     string
	ScheduleID domain.ScheduleID
	Missed     uint32
	OccurredAt time.Time
}

// MissedScheduleAlerter warns whenever a sweep finds a schedule that fell
// behind by more than one interval.
type MissedScheduleAlerter struct {
	namespaces []string
	metrics    observability.Metrics
	logger     *slog.Logger

	mu     sync.Mutex
	alerts []Alert
}

// NewMissedScheduleAlerter listens for missed schedules on the given ledgers.
func NewMissedScheduleAlerter(namespaces []string, metrics observability.Metrics, logger *slog.Logger) *MissedScheduleAlerter {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MissedScheduleAlerter{
		namespaces: namespaces,
		metrics:    metrics,
		logger:     logger,
	}
}

// EventTypes returns the missed-schedule routing key of every ledger.
func (a *MissedScheduleAlerter) EventTypes() []string {
	types := make([]string, 0, len(a.namespaces))
	for _, ns := range a.namespaces {
		types = append(types, domain.Profile{Namespace: ns}.RoutingKey(domain.AggregateSchedule, domain.EventMissed))
	}
	return types
}

type missedPayload struct {
	ScheduleID domain.ScheduleID `json:"schedule_id"`
	Missed     uint32            `json:"missed"`
}

// Handle records the alert and logs it.
func (a *MissedScheduleAlerter) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload missedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}

	alert := Alert{
		Ledger:     ledgerOf(event.AggregateType),
		ScheduleID: payload.ScheduleID,
		Missed:     payload.Missed,
		OccurredAt: event.OccurredAt,
	}

	a.mu.Lock()
	a.alerts = append(a.alerts, alert)
	a.mu.Unlock()

	a.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("routing_key", event.RoutingKey))
	a.logger.WarnContext(ctx, "schedule missed due dates",
		observability.LedgerKey, alert.Ledger,
		"schedule_id", alert.ScheduleID,
		"missed", alert.Missed,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}

// Alerts returns every alert recorded so far.
func (a *MissedScheduleAlerter) Alerts() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Alert, len(a.alerts))
	copy(out, a.alerts)
	return out
}

// ledgerOf strips the aggregate suffix from "<ns>.schedule".
func ledgerOf(aggregateType string) string {
	if i := strings.LastIndex(aggregateType, "."); i >= 0 {
		return aggregateType[:i]
	}
	return aggregateType
}
