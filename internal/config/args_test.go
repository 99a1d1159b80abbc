package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cronls/internal/shared"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"now", fixedNow},
		{"+24", fixedNow.Add(24 * time.Hour)},
		{"-4", fixedNow.Add(-4 * time.Hour)},
		{"+0", fixedNow},
		{"now+1", fixedNow.Add(time.Hour)},
		{"now-12", fixedNow.Add(-12 * time.Hour)},
		{"24/03/01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"24/03/01-22:15", time.Date(2024, 3, 1, 22, 15, 0, 0, time.UTC)},
		{"20240301_221530", time.Date(2024, 3, 1, 22, 15, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseTime(tt.value, fixedNow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseTime_UsesLocationOfNow(t *testing.T) {
	rome := time.FixedZone("CET", 3600)
	got, err := ParseTime("24/03/01-22:15", fixedNow.In(rome))
	require.NoError(t, err)
	assert.Equal(t, rome, got.Location())
	assert.Equal(t, 22, got.Hour())
}

func TestParseTime_Invalid(t *testing.T) {
	for _, value := range []string{"", "+", "-", "+2h", "now+", "nowish", "2024-03-01", "24/13/01", "24/03/01-25:00", "yesterday"} {
		t.Run(value, func(t *testing.T) {
			_, err := ParseTime(value, fixedNow)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestNormalizeOffsets(t *testing.T) {
	got := normalizeOffsets([]string{"-a", "-4", "+2", "-r", "10", "-vv", "now-3"})
	assert.Equal(t, []string{"-a", "now-4", "+2", "-r", "10", "-vv", "now-3"}, got)
}
