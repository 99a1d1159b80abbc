package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cronls/internal/config"
	"cronls/internal/shared"
)

var fixedNow = time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local)

type fakeRunner struct {
	stdout, stderr string
	err            error
}

func (f fakeRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func run(t *testing.T, args []string, opts ...Option) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts = append([]Option{WithNow(func() time.Time { return fixedNow })}, opts...)
	a, err := New(args, &stdout, &stderr, opts...)
	if err != nil {
		return stdout.String(), stderr.String(), err
	}
	defer a.Close()
	err = a.Run(context.Background())
	return stdout.String(), stderr.String(), err
}

// allCrontabs lays out a spool directory, a system crontab and a
// run-parts directory, and returns the flags pointing at them.
func allCrontabs(t *testing.T) []string {
	t.Helper()
	root := t.TempDir()
	spool := filepath.Join(root, "spool")
	hourly := filepath.Join(root, "cron.hourly")

	writeFile(t, filepath.Join(spool, "crontabs", "alice"),
		"# backups\nMAILTO=alice\n0,30 9 * * * /usr/local/bin/backup\n* * * * * /usr/bin/heartbeat\nnot a cron line\n")
	writeFile(t, filepath.Join(spool, "crontabs", "bob"), "15 9 * * 2 report --weekly\n")
	writeFile(t, filepath.Join(hourly, "logrotate"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(hourly, "zz-cleanup"), "#!/bin/sh\n")
	sys := filepath.Join(root, "crontab")
	writeFile(t, sys, "SHELL=/bin/sh\n17 * * * * root cd / && run-parts "+hourly+"\n")

	return []string{"--all", "--cron-dir", spool, "--sys-cron-file", sys}
}

func TestRun_AllCrontabs(t *testing.T) {
	flags := allCrontabs(t)
	hourly := filepath.Join(filepath.Dir(flags[4]), "cron.hourly")

	// 2024-01-02 is a Tuesday.
	stdout, stderr, err := run(t, append(flags, "24/01/02-09:00", "24/01/02-10:00"))
	require.NoError(t, err)

	sysRaw := "17 * * * * root cd / && run-parts " + hourly
	want := []string{
		"2024-01-02 09:00:00 :: alice   :: 0,30 9 * * * /usr/local/bin/backup",
		"2024-01-02 09:15:00 :: bob     :: 15 9 * * 2 report --weekly",
		"2024-01-02 09:17:00 :: sys     :: " + sysRaw + " (" + filepath.Join(hourly, "logrotate") + ")",
		"2024-01-02 09:17:00 :: sys     :: " + sysRaw + " (" + filepath.Join(hourly, "zz-cleanup") + ")",
		"2024-01-02 09:30:00 :: alice   :: 0,30 9 * * * /usr/local/bin/backup",
	}
	assert.Equal(t, want, strings.Split(strings.TrimSuffix(stdout, "\n"), "\n"))

	assert.Contains(t, stderr, "ignored crontab line")
	assert.Contains(t, stderr, "not a cron line")
	assert.NotContains(t, stderr, "heartbeat")
}

func TestRun_NoSystemCron(t *testing.T) {
	flags := allCrontabs(t)

	stdout, _, err := run(t, append(flags, "-s", "24/01/02-09:00", "24/01/02-10:00"))
	require.NoError(t, err)
	assert.NotContains(t, stdout, ":: sys")
	assert.Equal(t, 3, strings.Count(stdout, "\n"))
}

func TestRun_Threshold(t *testing.T) {
	flags := allCrontabs(t)

	stdout, _, err := run(t, append(flags, "-s", "-r", "1", "24/01/02-09:00", "24/01/02-10:00"))
	require.NoError(t, err)
	assert.NotContains(t, stdout, "backup")
	assert.Contains(t, stdout, "report --weekly")
}

func TestRun_CurrentUser(t *testing.T) {
	runner := fakeRunner{stdout: "0 12 * * * lunch\n"}

	stdout, _, err := run(t, []string{"now", "+24"}, WithRunner(runner))
	require.NoError(t, err)
	assert.Contains(t, stdout, "2024-01-02 12:00:00 :: ")
	assert.Contains(t, stdout, ":: 0 12 * * * lunch\n")
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
}

func TestRun_CurrentUserWithoutCrontab(t *testing.T) {
	runner := fakeRunner{stderr: "no crontab for alice", err: errors.New("exit status 1")}

	stdout, _, err := run(t, nil, WithRunner(runner))
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestRun_Export(t *testing.T) {
	flags := allCrontabs(t)
	dbPath := filepath.Join(t.TempDir(), "out", "listing.db")

	stdout, _, err := run(t, append(flags, "--export", dbPath, "24/01/02-09:00", "24/01/02-10:00"))
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(stdout, "\n"))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var matches, suppressed int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&matches))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM rules WHERE suppressed = 1").Scan(&suppressed))
	assert.Equal(t, 5, matches)
	assert.Equal(t, 1, suppressed)
}

func TestRun_CompareStandard(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "spool", "alice"), "0 12 1 * 1 monthly-monday\n")

	stdout, stderr, err := run(t, []string{
		"--all", "-s", "--cron-dir", filepath.Join(root, "spool"), "--compare-standard",
		"24/01/01-00:00", "24/01/31-23:59",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 12:00:00 :: alice   :: 0 12 1 * 1 monthly-monday\n", stdout)
	assert.Contains(t, stderr, "fires differently under standard cron")
}

func TestRun_Failures(t *testing.T) {
	t.Run("missing spool directory", func(t *testing.T) {
		_, _, err := run(t, []string{"--all", "-s", "--cron-dir", filepath.Join(t.TempDir(), "missing")})
		require.Error(t, err)
		assert.Equal(t, shared.ExitFailure, shared.ExitCode(err))
	})

	t.Run("missing run-parts directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "spool"), 0o755))
		sys := filepath.Join(root, "crontab")
		writeFile(t, sys, "25 6 * * * root run-parts "+filepath.Join(root, "cron.daily")+"\n")

		_, _, err := run(t, []string{"--all", "--cron-dir", filepath.Join(root, "spool"), "--sys-cron-file", sys})
		require.Error(t, err)
		assert.True(t, shared.IsDependencyFailure(err))
	})

	t.Run("crontab command fails", func(t *testing.T) {
		runner := fakeRunner{stderr: "crontab: must be privileged", err: errors.New("exit status 1")}
		_, _, err := run(t, nil, WithRunner(runner))
		assert.True(t, shared.IsDependencyFailure(err))
	})

	t.Run("start after stop", func(t *testing.T) {
		_, _, err := run(t, []string{"+2", "now"})
		assert.Equal(t, shared.ExitUsage, shared.ExitCode(err))
	})
}

func TestNew_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, err := New([]string{"-h"}, &stdout, &stderr)
	assert.ErrorIs(t, err, config.ErrHelp)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Usage:")
}
