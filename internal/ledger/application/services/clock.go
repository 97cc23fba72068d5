package services

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
)

// Clock supplies the ledger time of an invocation.
type Clock interface {
	Now() time.Time
}

// LedgerSeconds converts a clock reading to ledger seconds. Times before the
// epoch read as zero.
func LedgerSeconds(c Clock) uint64 {
	return convert.Int64ToUint64Clamped(c.Now().Unix())
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock returns a settable instant. Used by tests and by the CLI's
// --at flag to replay a sweep at a given time.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock creates a clock stopped at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
