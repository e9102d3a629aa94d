package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"digital.vasic.minitest/pkg/config"
	"digital.vasic.minitest/pkg/logging"
	"digital.vasic.minitest/pkg/metrics"
	"digital.vasic.minitest/pkg/monitor"
	"digital.vasic.minitest/pkg/registry"
	"digital.vasic.minitest/pkg/report"
	"digital.vasic.minitest/pkg/runner"
)

type runFlags struct {
	configPath  string
	format      string
	color       string
	timeout     time.Duration
	resultsDir  string
	historyFile string
	monitorAddr string
	verbose     bool
	stacks      bool
}

func newRunCommand(app App) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every registered test file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), app, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file.")
	f.StringVar(&flags.format, "format", config.FormatConsole,
		"Live report format: console or json.")
	f.StringVar(&flags.color, "color", config.ColorAuto,
		"Color the console report: auto, always or never.")
	f.DurationVar(&flags.timeout, "timeout", 0,
		"Fail a test that has not settled after this long. 0 waits forever.")
	f.StringVar(&flags.resultsDir, "results-dir", "",
		"Write JSON and Markdown run summaries to this directory.")
	f.StringVar(&flags.historyFile, "history", "",
		"Append one JSON line per run to this file.")
	f.StringVar(&flags.monitorAddr, "monitor", "",
		"Serve live events, stats and metrics on this address.")
	f.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Log test lifecycle events to stderr.")
	f.BoolVar(&flags.stacks, "stacks", false,
		"Print the stack of panicking tests.")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("color") {
		cfg.Color = f.color
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("results-dir") {
		cfg.ResultsDir = f.resultsDir
	}
	if changed("history") {
		cfg.HistoryFile = f.historyFile
	}
	if changed("monitor") {
		cfg.MonitorAddr = f.monitorAddr
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("stacks") {
		cfg.Stacks = f.stacks
	}
}

func newLogger(
	fs afero.Fs,
	cfg *config.Config,
	stderr io.Writer,
) (logging.Logger, error) {
	var loggers []logging.Logger
	if cfg.LogFile != "" {
		level := logging.LevelInfo
		if cfg.Verbose {
			level = logging.LevelDebug
		}
		fileLogger, err := logging.NewLogrusLogger(logging.LoggerConfig{
			OutputPath: cfg.LogFile,
			Fs:         fs,
			Format:     cfg.LogFormat,
			Level:      level,
		})
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		loggers = append(loggers, fileLogger)
	}
	if cfg.Verbose {
		loggers = append(loggers, logging.NewConsoleLoggerTo(stderr, true))
	}
	if len(loggers) == 0 {
		return logging.NullLogger{}, nil
	}
	return logging.NewMultiLogger(loggers...), nil
}

func newReporter(cfg *config.Config, stdout io.Writer) report.Reporter {
	if cfg.Format == config.FormatJSON {
		return report.NewJSONReporter(stdout)
	}
	return report.NewConsoleReporter(stdout,
		report.WithColor(cfg.Color),
		report.WithStacks(cfg.Stacks),
	)
}

// run executes the suite once. The monitor, when enabled, serves
// for the duration of the run and is shut down afterwards.
func run(
	ctx context.Context,
	app App,
	cfg *config.Config,
	stdout, stderr io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger, err := newLogger(app.Fs, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	collector := monitor.NewEventCollector()
	counters := metrics.NewPrometheusMetrics()
	r := runner.New(
		runner.WithLogger(logger),
		runner.WithReporter(newReporter(cfg, stdout)),
		runner.WithCollector(collector),
		runner.WithMetrics(counters),
		runner.WithTimeout(cfg.Timeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	monitorCtx, stopMonitor := context.WithCancel(gctx)
	defer stopMonitor()

	var server *monitor.Server
	if cfg.MonitorAddr != "" {
		server = monitor.NewServer(cfg.MonitorAddr, collector, logger,
			monitor.WithMetrics(counters),
		)
		g.Go(func() error {
			return server.Start(monitorCtx)
		})
	}

	var summary *report.Summary
	g.Go(func() error {
		defer stopMonitor()

		_, loadErr := registry.Bootstrap(gctx, app.Registry, r)
		summary = r.Finish()
		if server != nil {
			server.Dashboard().SetStatus(monitor.RunFinished)
		}
		if loadErr != nil {
			logger.Error("load_failed", logging.ErrorField(loadErr))
			return loadErr
		}
		return persist(app, cfg, summary, logger)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if !summary.AllPassed() {
		return ErrTestsFailed
	}
	return nil
}

func persist(
	app App,
	cfg *config.Config,
	summary *report.Summary,
	logger logging.Logger,
) error {
	var summaryPath string
	if cfg.ResultsDir != "" {
		path, err := report.SaveSummary(app.Fs, summary, cfg.ResultsDir)
		if err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		summaryPath = path
		logger.Info("summary_saved", logging.StringField("path", path))
	}
	if cfg.HistoryFile != "" {
		err := report.AppendToHistory(app.Fs, cfg.HistoryFile, summary, summaryPath)
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}
