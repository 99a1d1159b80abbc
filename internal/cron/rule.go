package cron

import (
	"fmt"
	"regexp"
	"strings"
)

// SystemUser is the user reported for rules read from the system crontab.
const SystemUser = "sys"

// Crontab is the content of one crontab file.
type Crontab struct {
	User   string
	Lines  []string
	System bool
}

// Rule is one parsed crontab entry. Rules are values and are never
// modified after ParseLine returns them.
type Rule struct {
	User       string
	Raw        string
	Schedule   string // the five time fields joined by single spaces
	Minute     Field
	Hour       Field
	DayOfMonth Field
	Month      Field
	DayOfWeek  Field
	Command    string
	System     bool
}

// fieldCount is the number of time fields preceding the command.
const fieldCount = 5

var assignment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*[ \t]*=`)

// ParseLine parses a single crontab entry. The line must already be
// free of comments and environment assignments.
func ParseLine(user, line string) (Rule, error) {
	tokens := splitFields(line, fieldCount+1)
	if len(tokens) < fieldCount+1 {
		return Rule{}, &MalformedLineError{
			Line:   line,
			Reason: fmt.Sprintf("expected %d time fields and a command, got %d tokens", fieldCount, len(tokens)),
		}
	}

	rule := Rule{
		User:     user,
		Raw:      line,
		Schedule: strings.Join(tokens[:fieldCount], " "),
		Command:  tokens[fieldCount],
	}
	targets := []struct {
		dst  *Field
		spec FieldSpec
	}{
		{&rule.Minute, MinuteField},
		{&rule.Hour, HourField},
		{&rule.DayOfMonth, DayOfMonthField},
		{&rule.Month, MonthField},
		{&rule.DayOfWeek, DayOfWeekField},
	}
	for i, target := range targets {
		field, err := Expand(tokens[i], target.spec)
		if err != nil {
			return Rule{}, err
		}
		*target.dst = field
	}
	return rule, nil
}

// ParseCrontab parses every entry of a crontab. Blank lines, comments and
// NAME=value assignments are skipped. Lines that fail to parse are
// dropped and returned as diagnostics; they never abort the crontab.
func ParseCrontab(tab Crontab) ([]Rule, []*LineError) {
	var rules []Rule
	var dropped []*LineError
	for i, line := range tab.Lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || assignment.MatchString(line) {
			continue
		}
		rule, err := ParseLine(tab.User, line)
		if err != nil {
			dropped = append(dropped, &LineError{User: tab.User, Line: i + 1, Raw: line, Err: err})
			continue
		}
		rule.System = tab.System
		rules = append(rules, rule)
	}
	return rules, dropped
}

// splitFields splits s on runs of whitespace into at most n tokens; the
// last token keeps the remainder of the line, inner whitespace included.
func splitFields(s string, n int) []string {
	var tokens []string
	rest := strings.TrimSpace(s)
	for rest != "" && len(tokens) < n-1 {
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			tokens = append(tokens, rest)
			return tokens
		}
		tokens = append(tokens, rest[:end])
		rest = strings.TrimLeft(rest[end:], " \t")
	}
	if rest != "" {
		tokens = append(tokens, rest)
	}
	return tokens
}
