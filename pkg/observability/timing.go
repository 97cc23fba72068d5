package observability

import (
	"log/slog"
	"time"
)

// TimeOperation runs fn and records its duration, a total count and, when
// fn fails, an error count. Each metric is tagged with tags plus the
// operation name.
func TimeOperation(logger *slog.Logger, metrics Metrics, operation string, fn func() error, tags ...Tag) error {
	_, err := TimeOperationResult(logger, metrics, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	}, tags...)
	return err
}

// TimeOperationResult is TimeOperation for functions returning a value.
func TimeOperationResult[R any](logger *slog.Logger, metrics Metrics, operation string, fn func() (R, error), tags ...Tag) (R, error) {
	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start)

	if logger != nil {
		if err != nil {
			logger.Warn("operation failed", OperationKey, operation, DurationKey, elapsed.Milliseconds(), ErrorKey, err.Error())
		} else {
			logger.Debug("operation completed", OperationKey, operation, DurationKey, elapsed.Milliseconds())
		}
	}
	if metrics != nil {
		tags = append(tags[:len(tags):len(tags)], T(OperationKey, operation))
		metrics.Timing(MetricOperationDuration, elapsed, tags...)
		metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			metrics.Counter(MetricOperationErrors, 1, tags...)
		}
	}
	return result, err
}
