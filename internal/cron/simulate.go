package cron

import (
	"iter"
	"time"
)

// TimeLayout is the sortable timestamp format used in listings.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultMaxHourlyRepetitions is the noise threshold used when none is
// configured.
const DefaultMaxHourlyRepetitions = 4

// MatchEvent records a rule firing at a simulated minute.
type MatchEvent struct {
	Time    time.Time
	User    string
	Raw     string
	Command string
	Rule    int // index of the rule in the simulated list
}

// SimulateOptions tunes Simulate.
type SimulateOptions struct {
	// MaxHourlyRepetitions hides rules whose minute field lists more
	// values than this. Rules with a bare "*" minute are always hidden.
	MaxHourlyRepetitions int
}

// Suppressed reports whether the noise filter hides rule. It depends on
// the minute field only, never on the simulated time.
func Suppressed(rule Rule, maxHourly int) bool {
	return rule.Minute.IsWildcard() || rule.Minute.Len() > maxHourly
}

// Matches reports whether rule fires at the minute containing t. All five
// fields must match; day-of-month and day-of-week are not OR-combined.
func (r Rule) Matches(t time.Time) bool {
	return r.Minute.Matches(t.Minute()) &&
		r.Hour.Matches(t.Hour()) &&
		r.DayOfMonth.Matches(t.Day()) &&
		r.Month.Matches(int(t.Month())) &&
		r.DayOfWeek.Matches(int(t.Weekday()))
}

// Simulate walks every minute from start to stop inclusive and yields the
// rules that fire, ordered by time and then by position in rules. The
// walk is lazy: it stops as soon as the consumer stops ranging.
func Simulate(rules []Rule, start, stop time.Time, opts SimulateOptions) (iter.Seq[MatchEvent], error) {
	if start.After(stop) {
		return nil, &InvalidRangeError{Start: start, Stop: stop}
	}

	visible := make([]int, 0, len(rules))
	for i, rule := range rules {
		if !Suppressed(rule, opts.MaxHourlyRepetitions) {
			visible = append(visible, i)
		}
	}

	first := start.Truncate(time.Minute)
	return func(yield func(MatchEvent) bool) {
		for cursor := first; !cursor.After(stop); cursor = cursor.Add(time.Minute) {
			for _, i := range visible {
				rule := rules[i]
				if !rule.Matches(cursor) {
					continue
				}
				event := MatchEvent{
					Time:    cursor,
					User:    rule.User,
					Raw:     rule.Raw,
					Command: rule.Command,
					Rule:    i,
				}
				if !yield(event) {
					return
				}
			}
		}
	}, nil
}
