// Package compat compares cronls schedules with the standard cron dialect
// implemented by github.com/robfig/cron/v3.
//
// The two dialects disagree in a few places: cronls always ANDs the
// day-of-month and day-of-week fields while standard cron ORs them when
// both are restricted, and cronls accepts 7 as Sunday. The Checker
// reports where the listing would differ from what a standard daemon does.
package compat

import (
	"context"
	"log/slog"
	"time"

	robfig "github.com/robfig/cron/v3"

	"cronls/internal/cron"
)

// Divergence summarises how one rule behaves differently under the
// standard dialect inside the compared window.
type Divergence struct {
	Rule         int // index into the compared rules
	User         string
	Raw          string
	First        time.Time // first minute where the dialects disagree
	OnlyStandard int       // minutes where only standard cron fires
	OnlyLocal    int       // minutes where only cronls fires
	ParseErr     error     // set when the standard parser rejects the schedule
}

// Checker runs the comparison.
type Checker struct {
	parser robfig.Parser
	logger *slog.Logger
}

// New creates a Checker that reports divergences through logger.
func New(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		parser: robfig.NewParser(robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow),
		logger: logger.With("component", "compat"),
	}
}

// Compare walks the window for every rule the noise filter keeps and
// returns the rules whose standard-dialect fire times differ. Each
// divergence is also logged at WARN level.
func (c *Checker) Compare(ctx context.Context, rules []cron.Rule, start, stop time.Time, maxHourly int) ([]Divergence, error) {
	if start.After(stop) {
		return nil, &cron.InvalidRangeError{Start: start, Stop: stop}
	}

	var out []Divergence
	for i, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cron.Suppressed(rule, maxHourly) {
			continue
		}

		sched, err := c.parser.Parse(rule.Schedule)
		if err != nil {
			d := Divergence{Rule: i, User: rule.User, Raw: rule.Raw, ParseErr: err}
			c.logger.Warn("schedule rejected by standard cron",
				slog.String("user", rule.User), slog.String("raw", rule.Raw), slog.Any("error", err))
			out = append(out, d)
			continue
		}

		if d, ok := compareRule(rule, sched, start, stop); ok {
			d.Rule = i
			c.logger.Warn("schedule fires differently under standard cron",
				slog.String("user", rule.User),
				slog.String("raw", rule.Raw),
				slog.String("first", d.First.Format(cron.TimeLayout)),
				slog.Int("only_standard", d.OnlyStandard),
				slog.Int("only_local", d.OnlyLocal),
			)
			out = append(out, d)
		}
	}
	return out, nil
}

// compareRule walks the window minute by minute, advancing the standard
// schedule's next fire time alongside.
func compareRule(rule cron.Rule, sched robfig.Schedule, start, stop time.Time) (Divergence, bool) {
	d := Divergence{User: rule.User, Raw: rule.Raw}
	cursor := start.Truncate(time.Minute)
	next := sched.Next(cursor.Add(-time.Second))
	for ; !cursor.After(stop); cursor = cursor.Add(time.Minute) {
		local := rule.Matches(cursor)
		standard := cursor.Equal(next)
		if standard {
			next = sched.Next(cursor)
		}
		if local == standard {
			continue
		}
		if d.First.IsZero() {
			d.First = cursor
		}
		if standard {
			d.OnlyStandard++
		} else {
			d.OnlyLocal++
		}
	}
	return d, !d.First.IsZero()
}
