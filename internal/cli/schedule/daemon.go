package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/logger"
)

// specParser accepts standard five-field specs and descriptors such as @hourly and @every.
var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSpec reports whether spec is a schedule the daemon can run.
func ValidateSpec(spec string) error {
	if _, err := specParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// cronLogger routes the runner's own logging through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error(msg, append(keysAndValues, "error", err)...)
}

// NewRunner builds the cron runner that refreshes and dispatches on the configured specs.
func NewRunner(ctx *cli.Context) (*cron.Cron, error) {
	loc, settings, err := ctx.Location()
	if err != nil {
		return nil, err
	}
	if err := ValidateSpec(settings.RefreshSpec); err != nil {
		return nil, err
	}
	if err := ValidateSpec(settings.DispatchSpec); err != nil {
		return nil, err
	}

	runner := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(specParser),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	if _, err := runner.AddFunc(settings.RefreshSpec, func() { refreshJob(ctx) }); err != nil {
		return nil, err
	}
	if _, err := runner.AddFunc(settings.DispatchSpec, func() { dispatchJob(ctx) }); err != nil {
		return nil, err
	}
	return runner, nil
}

func refreshJob(ctx *cli.Context) {
	result, err := Refresh(ctx, false, true)
	if err != nil {
		logger.Error("Refresh failed", "error", err)
		return
	}
	logger.Debug("Refresh pass", "state", result.State, "day", result.DayKey)
}

func dispatchJob(ctx *cli.Context) {
	if _, err := Dispatch(ctx, ctx.Sender); err != nil && !errors.Is(err, ErrNotificationsDisabled) {
		logger.Error("Dispatch failed", "error", err)
	}
}

type DaemonCmd struct {
	Foreground bool `help:"Log to stderr instead of the log file."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	if c.Foreground {
		logger.InitWriter(os.Stderr, log.InfoLevel)
	}

	runner, err := NewRunner(ctx)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catch up before the first tick.
	refreshJob(ctx)
	dispatchJob(ctx)

	runner.Start()
	logger.Info("Daemon started", "entries", len(runner.Entries()))
	ctx.Println("nudge daemon running. Press Ctrl+C to stop.")

	<-sigCtx.Done()
	logger.Info("Daemon stopping")
	<-runner.Stop().Done()
	return nil
}
