package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhen(t *testing.T) {
	const now = uint64(1_700_000_000)

	tests := []struct {
		raw     string
		want    uint64
		wantErr bool
	}{
		{raw: "1700086400", want: 1_700_086_400},
		{raw: "+36h", want: now + 36*3600},
		{raw: "+7d", want: now + 7*86400},
		{raw: "2024-01-02", want: 1_704_153_600},
		{raw: "2024-01-02T00:00:00Z", want: 1_704_153_600},
		{raw: "", wantErr: true},
		{raw: "tomorrow", wantErr: true},
		{raw: "+soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseWhen(tt.raw, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := map[string]uint64{
		"":    0,
		"0":   0,
		"30d": 30 * 86400,
		"12h": 12 * 3600,
		"90":  90,
	}
	for raw, want := range tests {
		got, err := ParseInterval(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseInterval("xd")
	assert.Error(t, err)
	_, err = ParseInterval("-5m")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ", "bill")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	_, err = ParseID("0", "bill")
	assert.ErrorContains(t, err, "invalid bill ID")
	_, err = ParseID("abc", "schedule")
	assert.ErrorContains(t, err, "invalid schedule ID")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "2024-01-02 00:00 UTC", FormatTime(1_704_153_600))
	assert.Equal(t, "never", FormatTime(^uint64(0)))

	assert.Equal(t, "one-time", FormatInterval(0))
	assert.Equal(t, "every day", FormatInterval(86400))
	assert.Equal(t, "every 30 days", FormatInterval(30*86400))
	assert.Equal(t, "every 1h30m0s", FormatInterval(5400))
}
