package cron

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cronls/internal/shared"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(TimeLayout, value, time.UTC)
	require.NoError(t, err)
	return parsed
}

func collect(t *testing.T, rules []Rule, start, stop time.Time, maxHourly int) []MatchEvent {
	t.Helper()
	events, err := Simulate(rules, start, stop, SimulateOptions{MaxHourlyRepetitions: maxHourly})
	require.NoError(t, err)
	return slices.Collect(events)
}

func times(events []MatchEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Time.Format(TimeLayout)
	}
	return out
}

func TestSimulate_WorkdayHalfHours(t *testing.T) {
	line := "0,30 9-17 1-5 * 1-5 echo hi"
	rule := mustParse(t, "alice", line, false)

	// 2024-01-02 is a Tuesday.
	events := collect(t, []Rule{rule}, at(t, "2024-01-02 09:00:00"), at(t, "2024-01-02 17:30:00"), DefaultMaxHourlyRepetitions)

	var want []string
	for hour := 9; hour <= 17; hour++ {
		for _, minute := range []int{0, 30} {
			want = append(want, time.Date(2024, 1, 2, hour, minute, 0, 0, time.UTC).Format(TimeLayout))
		}
	}
	assert.Equal(t, want, times(events))
	for _, e := range events {
		assert.Equal(t, "alice", e.User)
		assert.Equal(t, line, e.Raw)
		assert.Equal(t, "echo hi", e.Command)
		assert.Equal(t, 0, e.Rule)
	}
}

func TestSimulate_InclusiveStop(t *testing.T) {
	rule := mustParse(t, "alice", "5 * * * * job", false)
	moment := at(t, "2024-03-10 12:05:00")

	events := collect(t, []Rule{rule}, moment, moment, DefaultMaxHourlyRepetitions)
	assert.Equal(t, []string{"2024-03-10 12:05:00"}, times(events))

	events = collect(t, []Rule{rule}, moment.Add(-time.Minute), moment.Add(-time.Second), DefaultMaxHourlyRepetitions)
	assert.Empty(t, events)
}

func TestSimulate_StartTruncatedToMinute(t *testing.T) {
	rule := mustParse(t, "alice", "5 * * * * job", false)
	start := at(t, "2024-03-10 12:05:42")

	events := collect(t, []Rule{rule}, start, start.Add(time.Hour), DefaultMaxHourlyRepetitions)
	assert.Equal(t, []string{"2024-03-10 12:05:00", "2024-03-10 13:05:00"}, times(events))
}

func TestSimulate_InvalidRange(t *testing.T) {
	pairs := [][2]string{
		{"2024-01-02 10:00:01", "2024-01-02 10:00:00"},
		{"2025-01-01 00:00:00", "2024-01-01 00:00:00"},
	}
	for _, pair := range pairs {
		_, err := Simulate(nil, at(t, pair[0]), at(t, pair[1]), SimulateOptions{})
		var rangeErr *InvalidRangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.True(t, shared.IsValidation(err))
	}
}

func TestSimulate_NoiseFilter(t *testing.T) {
	star := mustParse(t, "alice", "* 3 * * * every-minute", false)
	four := mustParse(t, "alice", "0,15,30,45 3 * * * four", false)
	five := mustParse(t, "alice", "0,12,24,36,48 3 * * * five", false)
	fullRange := mustParse(t, "alice", "0-59 3 * * * full", false)

	assert.True(t, Suppressed(star, 1000))
	assert.False(t, Suppressed(four, 4))
	assert.True(t, Suppressed(five, 4))
	assert.False(t, Suppressed(fullRange, 60))
	assert.True(t, Suppressed(fullRange, 59))

	events := collect(t, []Rule{star, four, five}, at(t, "2024-01-02 03:00:00"), at(t, "2024-01-02 03:59:00"), 4)
	require.Len(t, events, 4)
	for _, e := range events {
		assert.Equal(t, "four", e.Command)
		assert.Equal(t, 1, e.Rule)
	}

	events = collect(t, []Rule{star, fullRange}, at(t, "2024-01-02 03:00:00"), at(t, "2024-01-02 03:59:00"), 60)
	assert.Len(t, events, 60)
	for _, e := range events {
		assert.Equal(t, "full", e.Command)
	}
}

func TestSimulate_DayFieldsUseAnd(t *testing.T) {
	// The 1st of the month, only when it is a Monday.
	rule := mustParse(t, "alice", "0 12 1 * 1 report", false)

	events := collect(t, []Rule{rule}, at(t, "2024-01-01 00:00:00"), at(t, "2024-07-31 23:59:00"), DefaultMaxHourlyRepetitions)
	// Monday firsts in that span: January, April and July.
	assert.Equal(t, []string{"2024-01-01 12:00:00", "2024-04-01 12:00:00", "2024-07-01 12:00:00"}, times(events))
}

func TestSimulate_SundayAliases(t *testing.T) {
	zero := mustParse(t, "alice", "0 8 * * 0 zero", false)
	seven := mustParse(t, "alice", "0 8 * * 7 seven", false)
	named := mustParse(t, "alice", "0 8 * * sun named", false)

	// 2024-01-07 is a Sunday.
	events := collect(t, []Rule{zero, seven, named}, at(t, "2024-01-06 00:00:00"), at(t, "2024-01-08 23:59:00"), DefaultMaxHourlyRepetitions)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, "2024-01-07 08:00:00", e.Time.Format(TimeLayout))
		assert.Equal(t, i, e.Rule)
	}
}

func TestSimulate_OrderIsTimeThenRuleList(t *testing.T) {
	rules := []Rule{
		mustParse(t, "bob", "30 * * * * b", false),
		mustParse(t, "alice", "0,30 * * * * a", false),
		mustParse(t, "carol", "0 * * * * c", false),
	}

	events := collect(t, rules, at(t, "2024-05-05 10:00:00"), at(t, "2024-05-05 10:59:00"), DefaultMaxHourlyRepetitions)

	var got []string
	for _, e := range events {
		got = append(got, e.Time.Format("15:04")+" "+e.Command)
	}
	assert.Equal(t, []string{"10:00 a", "10:00 c", "10:30 b", "10:30 a"}, got)
}

func TestSimulate_StopsWhenConsumerStops(t *testing.T) {
	rule := mustParse(t, "alice", "0 * * * * hourly", false)
	events, err := Simulate([]Rule{rule}, at(t, "2024-01-01 00:00:00"), at(t, "2034-01-01 00:00:00"), SimulateOptions{MaxHourlyRepetitions: 4})
	require.NoError(t, err)

	var count int
	for range events {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestSimulate_NoRules(t *testing.T) {
	events := collect(t, nil, at(t, "2024-01-01 00:00:00"), at(t, "2024-01-01 01:00:00"), 4)
	assert.Empty(t, events)
}
