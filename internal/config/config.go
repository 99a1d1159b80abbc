package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"cronls/internal/cron"
	"cronls/internal/shared"
)

// ErrHelp is returned by Load when usage was requested and printed.
var ErrHelp = pflag.ErrHelp

// Config holds application configuration values.
type Config struct {
	Env   string `validate:"required,oneof=dev prod"`
	Start time.Time
	Stop  time.Time

	All                  bool
	SystemCron           bool
	MaxHourlyRepetitions int    `validate:"gte=0"`
	CronDir              string `validate:"required"`
	SysCronFile          string `validate:"required"`
	CrontabCommand       string `validate:"required"`

	Export          string
	CompareStandard bool

	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load builds the configuration from defaults, the environment (with an
// optional .env file) and the command line, in increasing precedence.
// Relative time arguments are resolved against now. When -h/--help is
// given, usage is written to out and ErrHelp is returned.
func Load(args []string, now time.Time, out io.Writer) (Config, error) {
	_ = godotenv.Load()

	var c Config
	var err error
	c.Env = getenv("CRONLS_ENV", "prod")
	c.CronDir = getenv("CRONLS_CRON_DIR", "/var/spool/cron")
	c.SysCronFile = getenv("CRONLS_SYS_CRON_FILE", "/etc/crontab")
	c.CrontabCommand = getenv("CRONLS_CRONTAB_COMMAND", "crontab -l")
	c.Export = os.Getenv("CRONLS_EXPORT")
	c.Log.ConsoleLevel = strings.ToLower(getenv("CRONLS_LOG_LEVEL", "warn"))
	c.Log.FileLevel = "debug"
	c.Log.File = os.Getenv("CRONLS_LOG_FILE")
	if c.All, err = getbool("CRONLS_ALL", false); err != nil {
		return Config{}, err
	}
	if c.SystemCron, err = getbool("CRONLS_SYSTEM_CRON", true); err != nil {
		return Config{}, err
	}
	if c.CompareStandard, err = getbool("CRONLS_COMPARE_STANDARD", false); err != nil {
		return Config{}, err
	}
	if c.MaxHourlyRepetitions, err = getint("CRONLS_MAX_HOURLY_REPETITIONS", cron.DefaultMaxHourlyRepetitions); err != nil {
		return Config{}, err
	}

	flagSet := pflag.NewFlagSet("cronls", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVarP(&c.All, "all", "a", c.All, "list the crontabs of all users and the system crontab instead of the current user only")
	noSystem := flagSet.BoolP("no-system-cron", "s", false, "do not include the system crontab")
	flagSet.IntVarP(&c.MaxHourlyRepetitions, "max-hourly-repetitions", "r", c.MaxHourlyRepetitions, "hide jobs that run more than this many times per hour")
	flagSet.StringVarP(&c.CronDir, "cron-dir", "d", c.CronDir, "directory holding the user crontabs")
	flagSet.StringVar(&c.SysCronFile, "sys-cron-file", c.SysCronFile, "system crontab file")
	flagSet.StringVar(&c.Export, "export", c.Export, "also write the listing into this SQLite database")
	flagSet.BoolVar(&c.CompareStandard, "compare-standard", c.CompareStandard, "warn where standard cron semantics would fire differently")
	verbose := flagSet.CountP("verbose", "v", "log progress to stderr (-vv for debug)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(normalizeOffsets(args)); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(out, flagSet)
			return Config{}, ErrHelp
		}
		return Config{}, shared.Validation("%w", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(out, flagSet)
		return Config{}, ErrHelp
	}
	if *noSystem {
		c.SystemCron = false
	}
	switch {
	case *verbose == 1:
		c.Log.ConsoleLevel = "info"
	case *verbose > 1:
		c.Log.ConsoleLevel = "debug"
	}

	positional := flagSet.Args()
	if len(positional) > 2 {
		return Config{}, shared.Validation("unexpected argument: %s", positional[2])
	}
	startArg, stopArg := "now", "+24"
	if len(positional) > 0 {
		startArg = positional[0]
	}
	if len(positional) > 1 {
		stopArg = positional[1]
	}
	if c.Start, err = ParseTime(startArg, now); err != nil {
		return Config{}, fmt.Errorf("start time: %w", err)
	}
	if c.Stop, err = ParseTime(stopArg, now); err != nil {
		return Config{}, fmt.Errorf("stop time: %w", err)
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, shared.Validation("%w", err)
	}
	if c.Start.After(c.Stop) {
		return Config{}, &cron.InvalidRangeError{Start: c.Start, Stop: c.Stop}
	}
	return c, nil
}

// CrontabCommandArgs splits the configured crontab command into a program
// and its arguments.
func (c Config) CrontabCommandArgs() (string, []string) {
	parts := strings.Fields(c.CrontabCommand)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, shared.Validation("%s: %q is not a boolean", k, v)
	}
	return b, nil
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, shared.Validation("%s: %q is not an integer", k, v)
	}
	return n, nil
}

func printHelp(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(out, `cronls lists the cron jobs that run in a time window.

Usage:
  cronls [flags] [START [STOP]]

START defaults to "now" and STOP to "+24". Both accept:
  now              the current time
  +hh, -hh         hours from now (also now+hh, now-hh)
  yy/mm/dd         midnight of a date
  yy/mm/dd-HH:MM   a date and time
  yyyymmdd_hhmmss  a full timestamp

Examples:
  # Your own jobs for the next 24 hours
  cronls

  # Every user's jobs from four hours ago until now
  sudo cronls --all -4 now

  # One night, saved for later inspection
  cronls -a 24/03/01-22:00 24/03/02-06:00 --export night.db

Flags:
`)
	flagSet.SetOutput(out)
	flagSet.PrintDefaults()
}
