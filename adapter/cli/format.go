package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
)

const timeLayout = "2006-01-02 15:04 MST"

// ParseWhen reads a point in ledger time. It accepts unix seconds, an
// offset from now such as "+36h" or "+7d", an RFC3339 timestamp or a
// plain date (midnight UTC).
func ParseWhen(raw string, now uint64) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("time is required")
	}
	if strings.HasPrefix(raw, "+") {
		offset, err := ParseInterval(raw[1:])
		if err != nil {
			return 0, err
		}
		return convert.SaturatingAddUint64(now, offset), nil
	}
	if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return secs, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return convert.Int64ToUint64Clamped(t.Unix()), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q: use unix seconds, +DURATION, RFC3339 or YYYY-MM-DD", raw)
}

// ParseInterval reads a span in seconds: "30d" for days, any Go duration
// ("12h", "90m"), or bare seconds. "0" means one-time.
func ParseInterval(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.ParseUint(days, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", raw)
		}
		return n * domain.SecondsPerDay, nil
	}
	if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return secs, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid interval %q", raw)
	}
	return uint64(d / time.Second), nil
}

// ParseID reads a positive numeric ledger id.
func ParseID(raw, what string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID: %q", what, raw)
	}
	return id, nil
}

// FormatTime renders ledger seconds in UTC.
func FormatTime(secs uint64) string {
	if secs > uint64(1<<62) {
		return "never"
	}
	return time.Unix(int64(secs), 0).UTC().Format(timeLayout)
}

// FormatInterval renders a schedule interval.
func FormatInterval(secs uint64) string {
	switch {
	case secs == 0:
		return "one-time"
	case secs%domain.SecondsPerDay == 0:
		days := secs / domain.SecondsPerDay
		if days == 1 {
			return "every day"
		}
		return fmt.Sprintf("every %d days", days)
	default:
		return "every " + (time.Duration(secs) * time.Second).String()
	}
}
