package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/errors"
	"github.com/provbook/bookbuilder/internal/history"
	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/metrics"
	"github.com/provbook/bookbuilder/internal/notify"
	"github.com/provbook/bookbuilder/internal/preview"
	"github.com/provbook/bookbuilder/internal/site"
	"github.com/provbook/bookbuilder/internal/theme"
	"github.com/provbook/bookbuilder/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bookbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Show version and exit"`

	Build struct {
		Output string `short:"o" help:"Output directory override"`
		Minify bool   `help:"Minify rendered output"`
	} `cmd:"" help:"Build the site once and exit"`

	Serve struct {
		Port int `short:"p" help:"Preview server port override"`
	} `cmd:"" help:"Build, serve locally, and rebuild on content changes"`

	Check struct{} `cmd:"" help:"Load and verify content without rendering"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Theme struct {
		Fetch struct{} `cmd:"" help:"Fetch the configured theme into the themes directory"`
	} `cmd:"" help:"Theme management"`

	History struct {
		Limit int `short:"n" help:"Number of builds to show" default:"20"`
	} `cmd:"" help:"Show recent build history"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.String()})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "serve":
		err = runServe()
	case "check":
		err = runCheck()
	case "init":
		err = runInit()
	case "theme fetch":
		err = runThemeFetch()
	case "history":
		err = runHistory()
	}
	if err != nil {
		adapter.HandleError(err)
	}
}

func loadConfig() (*config.Config, string, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, "", err
	}
	root, err := filepath.Abs(filepath.Dir(CLI.Config))
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func runBuild() error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	gen := site.NewGenerator(cfg, root, site.Options{
		Minify:    CLI.Build.Minify,
		OutputDir: CLI.Build.Output,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, buildErr := gen.Build(ctx)
	if report != nil {
		persistReport(cfg, root, report)
	}
	if buildErr != nil {
		return buildErr
	}

	slog.Info("site built",
		logfields.BuildID(report.BuildID),
		logfields.Outcome(string(report.Outcome)),
		logfields.Pages(report.Pages),
		logfields.Warnings(len(report.References)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return nil
}

func runServe() error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Serve.Port != 0 {
		cfg.Serve.Port = CLI.Serve.Port
	}

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	gen := site.NewGenerator(cfg, root, site.Options{Recorder: recorder})

	var publisher *notify.Publisher
	if publisher, err = notify.New(cfg.Notify); err != nil {
		slog.Warn("build notifications disabled", logfields.Error(err))
		publisher = nil
	}
	defer publisher.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return preview.Run(ctx, cfg, root, preview.Options{
		Build:   gen.Build,
		Metrics: recorder.Handler(),
		OnReport: func(report *site.BuildReport, buildErr error) {
			if report == nil {
				return
			}
			persistReport(cfg, root, report)
			if buildErr == nil && publisher != nil {
				if pubErr := publisher.PublishBuild(report); pubErr != nil {
					slog.Warn("failed to publish build event", logfields.Error(pubErr))
				}
			}
		},
	})
}

func runCheck() error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	gen := site.NewGenerator(cfg, root, site.Options{SkipRenderer: true})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, buildErr := gen.Build(ctx)
	if buildErr != nil {
		return buildErr
	}

	for _, w := range report.References {
		fmt.Fprintf(os.Stderr, "warning: %s: unresolved reference %q\n", w.SourcePath, w.Target)
	}
	slog.Info("content check passed",
		logfields.Pages(report.Pages),
		logfields.Warnings(len(report.References)))
	return nil
}

func runInit() error {
	if err := config.WriteDefault(CLI.Config, CLI.Init.Force); err != nil {
		return err
	}
	slog.Info("configuration written", logfields.Path(CLI.Config))
	return nil
}

func runThemeFetch() error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dest := filepath.Join(root, cfg.Theme.Dir, cfg.Theme.Name)
	if err := theme.Fetch(ctx, cfg.Theme, dest); err != nil {
		return err
	}
	slog.Info("theme fetched", logfields.Theme(cfg.Theme.Name), logfields.Path(dest))
	return nil
}

func runHistory() error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(historyPath(cfg, root))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background(), CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no builds recorded yet")
		return nil
	}

	fmt.Printf("%-36s  %-8s  %-20s  %8s  %6s  %8s\n",
		"BUILD", "OUTCOME", "STARTED", "DURATION", "PAGES", "WARNINGS")
	for _, e := range entries {
		fmt.Printf("%-36s  %-8s  %-20s  %8s  %6d  %8d\n",
			e.BuildID, e.Outcome, e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Duration.Round(time.Millisecond), e.Pages, e.Warnings)
	}
	return nil
}

func historyPath(cfg *config.Config, root string) string {
	p := cfg.History.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p
}

// persistReport stores a build report in history, best effort. A failed write
// never fails the build.
func persistReport(cfg *config.Config, root string, report *site.BuildReport) {
	store, err := history.Open(historyPath(cfg, root))
	if err != nil {
		slog.Warn("failed to open build history", logfields.Error(err))
		return
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Record(ctx, report); err != nil {
		slog.Warn("failed to record build history", logfields.Error(err))
		return
	}
	if cfg.History.Keep > 0 {
		if err := store.Prune(ctx, cfg.History.Keep); err != nil {
			slog.Warn("failed to prune build history", logfields.Error(err))
		}
	}
}
