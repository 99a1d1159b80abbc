// Package export saves a listing into an SQLite database so it can be
// queried later. Each invocation appends one run; nothing is read back by
// cronls itself.
package export

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"cronls/internal/cron"
	"cronls/internal/platform/sqlite"
	"cronls/internal/shared"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run is one listing: the window, the threshold, the evaluated rules and
// the events they produced.
type Run struct {
	Created              time.Time
	Start, Stop          time.Time
	MaxHourlyRepetitions int
	Rules                []cron.Rule
	Events               []cron.MatchEvent
}

// Exporter writes runs into an SQLite file.
type Exporter struct {
	db     *sql.DB
	runner *sqlite.TxRunner
	log    *slog.Logger
}

// Open opens or creates the export database at path and brings its
// schema up to date.
func Open(ctx context.Context, path string, log *slog.Logger) (*Exporter, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sqlite.NewDB(ctx, path)
	if err != nil {
		return nil, shared.MarkKind(shared.Wrap(err, "open export database"), shared.KindDependencyFailure)
	}
	if err := sqlite.ApplyMigrations(migrations, "migrations", path); err != nil {
		_ = db.Close()
		return nil, shared.MarkKind(shared.Wrap(err, "migrate export database"), shared.KindDependencyFailure)
	}

	runner := sqlite.NewTxRunner(db)
	runner.Retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Debug("export database busy, retrying",
			slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.Any("error", err))
	}
	return &Exporter{db: db, runner: runner, log: log}, nil
}

// Close closes the database.
func (e *Exporter) Close() error {
	return e.db.Close()
}

// SaveRun stores run in a single transaction and returns its id.
func (e *Exporter) SaveRun(ctx context.Context, run Run) (int64, error) {
	var id int64
	err := e.runner.WithinTx(ctx, func(ctx context.Context) error {
		q := e.runner.GetQuerier(ctx)

		res, err := q.ExecContext(ctx,
			"INSERT INTO runs (created_at, window_start, window_stop, max_hourly) VALUES (?, ?, ?, ?)",
			formatTime(run.Created), formatTime(run.Start), formatTime(run.Stop), run.MaxHourlyRepetitions)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		if err := insertRules(ctx, q, id, run); err != nil {
			return err
		}
		return insertMatches(ctx, q, id, run.Events)
	})
	if err != nil {
		if shared.IsCanceled(err) {
			return 0, err
		}
		return 0, shared.MarkKind(shared.Wrap(err, "save run"), shared.KindDependencyFailure)
	}

	e.log.Info("listing exported",
		slog.Int64("run", id), slog.Int("rules", len(run.Rules)), slog.Int("matches", len(run.Events)))
	return id, nil
}

func insertRules(ctx context.Context, q sqlite.Querier, runID int64, run Run) error {
	stmt, err := q.PrepareContext(ctx,
		"INSERT INTO rules (run_id, position, user, raw, schedule, command, system, suppressed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare rules: %w", err)
	}
	defer stmt.Close()

	for i, rule := range run.Rules {
		suppressed := cron.Suppressed(rule, run.MaxHourlyRepetitions)
		if _, err := stmt.ExecContext(ctx, runID, i, rule.User, rule.Raw, rule.Schedule, rule.Command, rule.System, suppressed); err != nil {
			return fmt.Errorf("insert rule %d: %w", i, err)
		}
	}
	return nil
}

func insertMatches(ctx context.Context, q sqlite.Querier, runID int64, events []cron.MatchEvent) error {
	stmt, err := q.PrepareContext(ctx, "INSERT INTO matches (run_id, rule_position, fired_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare matches: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.ExecContext(ctx, runID, event.Rule, formatTime(event.Time)); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(cron.TimeLayout)
}
