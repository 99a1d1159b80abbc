// Package crontab loads crontab text from the places cron keeps it: the
// output of "crontab -l", the per-user spool directory and the system
// crontab file.
package crontab

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"sort"
	"strings"

	"cronls/internal/cron"
	"cronls/internal/shared"
)

// Source yields the crontabs to analyse.
type Source interface {
	Crontabs(ctx context.Context) ([]cron.Crontab, error)
}

// Runner executes an external command and returns what it wrote to
// stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

const noCrontabMarker = "no crontab for"

// UserSource reads the invoking user's crontab through the crontab
// command.
type UserSource struct {
	Runner  Runner
	Command string
	Args    []string
	User    string // defaults to the current OS user
}

// Crontabs implements Source. A user without a crontab yields no
// crontabs and no error.
func (s UserSource) Crontabs(ctx context.Context) ([]cron.Crontab, error) {
	name := s.User
	if name == "" {
		current, err := user.Current()
		if err != nil {
			return nil, shared.MarkKind(shared.Wrap(err, "lookup current user"), shared.KindDependencyFailure)
		}
		name = current.Username
	}

	stdout, stderr, err := s.Runner.Run(ctx, s.Command, s.Args...)
	if err != nil {
		if strings.Contains(string(stderr), noCrontabMarker) || strings.Contains(string(stdout), noCrontabMarker) {
			return nil, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(string(stderr))
		if msg != "" {
			err = errors.Join(err, errors.New(msg))
		}
		return nil, shared.MarkKind(shared.Wrapf(err, "run %s", s.Command), shared.KindDependencyFailure)
	}
	lines, err := splitLines(stdout)
	if err != nil {
		return nil, shared.MarkKind(shared.Wrapf(err, "read %s output", s.Command), shared.KindDependencyFailure)
	}
	return []cron.Crontab{{User: name, Lines: lines}}, nil
}

// DirSource reads every crontab below a spool directory and, optionally,
// the system crontab.
type DirSource struct {
	Dir        string
	SystemFile string // empty disables the system crontab
	Log        *slog.Logger
}

// Crontabs implements Source. Files are visited recursively in lexical
// order and named after their base name. A spool directory or system
// crontab that cannot be read is fatal; an unreadable user crontab is
// logged and skipped.
func (s DirSource) Crontabs(ctx context.Context) ([]cron.Crontab, error) {
	var tabs []cron.Crontab
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == s.Dir {
				return err
			}
			s.logger().Warn("skipping unreadable spool entry", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		lines, err := readLines(path)
		if err != nil {
			s.logger().Warn("skipping unreadable crontab", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		tabs = append(tabs, cron.Crontab{User: filepath.Base(path), Lines: lines})
		return nil
	})
	if err != nil {
		if shared.IsCanceled(err) {
			return nil, err
		}
		return nil, shared.MarkKind(shared.Wrapf(err, "read spool directory %s", s.Dir), shared.KindDependencyFailure)
	}
	s.logger().Debug("spool directory read", slog.String("dir", s.Dir), slog.Int("crontabs", len(tabs)))

	if s.SystemFile != "" {
		lines, err := readLines(s.SystemFile)
		if err != nil {
			return nil, shared.MarkKind(shared.Wrap(err, "read system crontab"), shared.KindDependencyFailure)
		}
		tabs = append(tabs, cron.Crontab{User: cron.SystemUser, Lines: lines, System: true})
	}
	return tabs, nil
}

func (s DirSource) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// ListDir returns the scripts run-parts would run from dir: regular files
// and symlinks, hidden entries skipped, in lexical order.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, shared.MarkKind(err, shared.KindDependencyFailure)
	}
	var scripts []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if entry.Type().IsRegular() || entry.Type()&fs.ModeSymlink != 0 {
			scripts = append(scripts, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(scripts)
	return scripts, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitLines(data)
}

// maxLineLength bounds a single crontab line.
const maxLineLength = 1024 * 1024

// splitLines fails rather than truncate when a line exceeds maxLineLength.
func splitLines(data []byte) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", len(lines)+1, err)
	}
	return lines, nil
}
