package app

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"time"

	"cronls/internal/adapter/compat"
	"cronls/internal/adapter/crontab"
	"cronls/internal/adapter/export"
	"cronls/internal/adapter/report"
	"cronls/internal/config"
	"cronls/internal/cron"
	"cronls/internal/platform/logger"
	"cronls/internal/shared"
)

// App wires application components.
type App struct {
	cfg     config.Config
	log     *slog.Logger
	stdout  io.Writer
	runner  crontab.Runner
	listDir cron.ListDirFunc
	now     func() time.Time
}

// Option customises an App, mostly for tests.
type Option func(*App)

// WithRunner replaces the command runner used for "crontab -l".
func WithRunner(r crontab.Runner) Option {
	return func(a *App) { a.runner = r }
}

// WithListDir replaces the run-parts directory lister.
func WithListDir(list cron.ListDirFunc) Option {
	return func(a *App) { a.listDir = list }
}

// WithNow replaces the clock used for relative time arguments.
func WithNow(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New parses args and builds the App. Listings go to stdout, usage and
// diagnostics to stderr. It returns config.ErrHelp after printing usage.
func New(args []string, stdout, stderr io.Writer, opts ...Option) (*App, error) {
	a := &App{
		stdout:  stdout,
		runner:  crontab.ExecRunner{},
		listDir: crontab.ListDir,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	cfg, err := config.Load(args, a.now(), stderr)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "cronls",
		Console:      stderr,
	})
	return a, nil
}

// Close releases the log file, if any.
func (a *App) Close() error {
	return logger.Close(a.log)
}

// Run loads the crontabs, prints every match in the configured window
// and, when requested, compares dialects and exports the listing.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting",
		slog.String("start", a.cfg.Start.Format(cron.TimeLayout)),
		slog.String("stop", a.cfg.Stop.Format(cron.TimeLayout)),
		slog.Bool("all", a.cfg.All))

	tabs, err := a.source().Crontabs(ctx)
	if err != nil {
		return err
	}

	rules := a.parse(tabs)
	rules, err = cron.ExpandSystemRules(rules, a.listDir)
	if err != nil {
		if shared.IsValidation(err) {
			return err
		}
		return shared.MarkKind(err, shared.KindDependencyFailure)
	}
	a.log.Info("rules loaded", slog.Int("crontabs", len(tabs)), slog.Int("rules", len(rules)))

	if a.cfg.CompareStandard {
		divergences, err := compat.New(a.log).Compare(ctx, rules, a.cfg.Start, a.cfg.Stop, a.cfg.MaxHourlyRepetitions)
		if err != nil {
			return err
		}
		a.log.Info("dialect comparison finished", slog.Int("divergent_rules", len(divergences)))
	}

	events, err := cron.Simulate(rules, a.cfg.Start, a.cfg.Stop, cron.SimulateOptions{
		MaxHourlyRepetitions: a.cfg.MaxHourlyRepetitions,
	})
	if err != nil {
		return err
	}

	var exported []cron.MatchEvent
	if a.cfg.Export != "" {
		events = tee(events, &exported)
	}
	written, err := report.NewWriter(a.stdout).WriteAll(untilDone(ctx, events))
	if err != nil {
		return shared.MarkKind(shared.Wrap(err, "write listing"), shared.KindDependencyFailure)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.log.Info("listing written", slog.Int("matches", written))

	if a.cfg.Export != "" {
		return a.export(ctx, rules, exported)
	}
	return nil
}

func (a *App) source() crontab.Source {
	if a.cfg.All {
		src := crontab.DirSource{Dir: a.cfg.CronDir, Log: a.log}
		if a.cfg.SystemCron {
			src.SystemFile = a.cfg.SysCronFile
		}
		return src
	}
	name, args := a.cfg.CrontabCommandArgs()
	return crontab.UserSource{Runner: a.runner, Command: name, Args: args}
}

// parse turns crontabs into rules, logging every dropped line.
func (a *App) parse(tabs []cron.Crontab) []cron.Rule {
	var rules []cron.Rule
	for _, tab := range tabs {
		parsed, dropped := cron.ParseCrontab(tab)
		for _, d := range dropped {
			a.log.Warn("ignored crontab line",
				slog.String("user", d.User),
				slog.Int("line", d.Line),
				slog.String("raw", d.Raw),
				slog.Any("error", d.Err))
		}
		rules = append(rules, parsed...)
	}
	return rules
}

func (a *App) export(ctx context.Context, rules []cron.Rule, events []cron.MatchEvent) error {
	exp, err := export.Open(ctx, a.cfg.Export, a.log)
	if err != nil {
		return err
	}
	defer exp.Close()

	_, err = exp.SaveRun(ctx, export.Run{
		Created:              a.now(),
		Start:                a.cfg.Start,
		Stop:                 a.cfg.Stop,
		MaxHourlyRepetitions: a.cfg.MaxHourlyRepetitions,
		Rules:                rules,
		Events:               events,
	})
	return err
}

// tee appends every event to dst as it passes through.
func tee(seq iter.Seq[cron.MatchEvent], dst *[]cron.MatchEvent) iter.Seq[cron.MatchEvent] {
	return func(yield func(cron.MatchEvent) bool) {
		for e := range seq {
			*dst = append(*dst, e)
			if !yield(e) {
				return
			}
		}
	}
}

// untilDone stops seq once ctx is canceled.
func untilDone(ctx context.Context, seq iter.Seq[cron.MatchEvent]) iter.Seq[cron.MatchEvent] {
	return func(yield func(cron.MatchEvent) bool) {
		for e := range seq {
			if ctx.Err() != nil || !yield(e) {
				return
			}
		}
	}
}
