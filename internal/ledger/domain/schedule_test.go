package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatchUp(t *testing.T) {
	tests := []struct {
		name       string
		nextDue    uint64
		interval   uint64
		now        uint64
		wantNext   uint64
		wantMissed uint32
	}{
		{"on time", 3000, 86400, 3000, 89400, 0},
		{"late but before next boundary", 3000, 86400, 89399, 89400, 0},
		{"exactly on next boundary", 3000, 86400, 89400, 175800, 1},
		{"three days late", 3000, 86400, 3000 + 86400*3 + 100, 3000 + 86400*4, 3},
		{"one second interval", 10, 1, 15, 16, 5},
		{"saturates at the top of the clock", math.MaxUint64 - 5, 10, math.MaxUint64 - 1, math.MaxUint64, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, missed := CatchUp(tt.nextDue, tt.interval, tt.now)
			assert.Equal(t, tt.wantNext, next)
			assert.Equal(t, tt.wantMissed, missed)
		})
	}
}

func TestSchedule_Advance(t *testing.T) {
	t.Run("one-time schedule deactivates", func(t *testing.T) {
		s := &Schedule{NextDue: 100, Active: true}

		missed := s.Advance(150)

		assert.Zero(t, missed)
		assert.False(t, s.Active)
		assert.Equal(t, uint64(100), s.NextDue)
		require.NotNil(t, s.LastExecutedAt)
		assert.Equal(t, uint64(150), *s.LastExecutedAt)
	})

	t.Run("recurring schedule accumulates missed boundaries", func(t *testing.T) {
		s := &Schedule{NextDue: 100, Interval: 10, Recurring: true, Active: true, MissedCount: 2}

		missed := s.Advance(135)

		assert.Equal(t, uint32(3), missed)
		assert.Equal(t, uint32(5), s.MissedCount)
		assert.Equal(t, uint64(140), s.NextDue)
		assert.True(t, s.Active)
	})

	t.Run("missed count saturates", func(t *testing.T) {
		s := &Schedule{NextDue: 100, Interval: 10, Recurring: true, Active: true, MissedCount: math.MaxUint32}

		s.Advance(200)

		assert.Equal(t, uint32(math.MaxUint32), s.MissedCount)
	})
}

func TestSchedule_IsDue(t *testing.T) {
	s := &Schedule{NextDue: 100, Active: true}
	assert.False(t, s.IsDue(99))
	assert.True(t, s.IsDue(100))

	s.Active = false
	assert.False(t, s.IsDue(1000))
}
