package cron

import (
	"fmt"
	"strings"
)

// RunPartsMarker identifies system rules that run every script in a
// directory.
const RunPartsMarker = "run-parts"

// ListDirFunc returns the entries of a directory as paths.
type ListDirFunc func(dir string) ([]string, error)

// ExpandSystemRules replaces every system rule that invokes run-parts
// with one rule per script found in the target directory. Other rules
// are returned unchanged, in order. A directory that cannot be listed
// aborts the expansion.
func ExpandSystemRules(rules []Rule, list ListDirFunc) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if !rule.System || !strings.Contains(rule.Command, RunPartsMarker) {
			out = append(out, rule)
			continue
		}

		dir, invoked := runPartsDir(rule.Command)
		if !invoked {
			out = append(out, rule)
			continue
		}
		if dir == "" {
			return nil, &MalformedLineError{Line: rule.Raw, Reason: "run-parts without a directory"}
		}
		scripts, err := list(dir)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", rule.Raw, err)
		}
		for _, script := range scripts {
			if script == "" {
				continue
			}
			expanded := rule
			expanded.Command = script
			expanded.Raw = rule.Raw + " (" + script + ")"
			out = append(out, expanded)
		}
	}
	return out, nil
}

// runPartsDir returns the first non-option argument following run-parts
// and whether run-parts is invoked at all.
func runPartsDir(command string) (string, bool) {
	args := strings.Fields(command)
	for i, arg := range args {
		if arg != RunPartsMarker && !strings.HasSuffix(arg, "/"+RunPartsMarker) {
			continue
		}
		for _, candidate := range args[i+1:] {
			if strings.HasPrefix(candidate, "-") {
				continue
			}
			return strings.TrimRight(candidate, ");&|"), true
		}
		return "", true
	}
	return "", false
}
