package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"icsagenda/internal/app"
	"icsagenda/internal/capture"
	"icsagenda/internal/config"
	appLog "icsagenda/internal/log"
	"icsagenda/internal/web"
)

type flagConfig struct {
	configPath    string
	url           string
	out           string
	pattern       string
	invert        bool
	caseSensitive bool
	title         string
	png           string
	serve         bool
	verbose       bool
}

func main() {
	flags := parseFlags()

	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	applyFlagOverrides(conf, flags)

	appLog.Info("effective config",
		"url_set", conf.URL != "",
		"output", conf.OutputPath,
		"title", conf.Title,
		"pattern", conf.Pattern,
		"invert", conf.Invert,
		"case_sensitive", conf.CaseSensitive,
		"timezone", conf.Timezone,
		"strict_parse", conf.StrictParse,
		"serve", flags.serve,
	)

	// A bad filter pattern fails here, before any fetch work.
	application, err := app.New(conf)
	if err != nil {
		appLog.Error("invalid configuration", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.serve {
		if err := runServe(ctx, conf, application); err != nil {
			appLog.Error("serve mode failed", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(ctx, conf, application); err != nil {
		appLog.Error("run failed", err)
		os.Exit(1)
	}
}

// runOnce executes a single fetch+render cycle and writes the document
// (plus the optional PNG snapshot), then exits.
func runOnce(ctx context.Context, conf *config.Config, application *app.App) error {
	stats, err := application.WriteDocument(ctx)
	if err != nil {
		return err
	}
	appLog.Info("agenda generated",
		"considered", stats.Considered,
		"retained", stats.Retained,
		"output", conf.OutputPath,
	)

	if conf.PNGPath != "" {
		if err := capture.SnapshotPNG(ctx, capture.Options{
			DocumentPath: conf.OutputPath,
			OutputPath:   conf.PNGPath,
		}); err != nil {
			return err
		}
		appLog.Info("snapshot written", "path", conf.PNGPath)
	}
	return nil
}

// runServe starts the HTTP server and a cron schedule that periodically
// regenerates the document on disk.
func runServe(ctx context.Context, conf *config.Config, application *app.App) error {
	c := cron.New()
	_, err := c.AddFunc(conf.RefreshCron, func() {
		if err := runOnce(ctx, conf, application); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	// Generate an initial document so the schedule never serves nothing.
	if err := runOnce(ctx, conf, application); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	server := web.NewServer(conf, application)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func applyFlagOverrides(conf *config.Config, flags flagConfig) {
	if flags.url != "" {
		conf.URL = flags.url
	}
	if flags.out != "" {
		conf.OutputPath = flags.out
	}
	if flags.pattern != "" {
		conf.Pattern = flags.pattern
	}
	if flags.invert {
		conf.Invert = true
	}
	if flags.caseSensitive {
		conf.CaseSensitive = true
	}
	if flags.title != "" {
		conf.Title = flags.title
	}
	if flags.png != "" {
		conf.PNGPath = flags.png
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./icsagenda.yaml", "Path to config file")
	flag.StringVar(&cfg.url, "url", "", "ICS subscription URL (overrides config)")
	flag.StringVar(&cfg.out, "out", "", "Output HTML path (overrides config)")
	flag.StringVar(&cfg.pattern, "pattern", "", "Regex filter over summary/description/location")
	flag.BoolVar(&cfg.invert, "invert", false, "Keep events that do NOT match the pattern")
	flag.BoolVar(&cfg.caseSensitive, "case-sensitive", false, "Match the pattern case-sensitively")
	flag.StringVar(&cfg.title, "title", "", "Document title (overrides config)")
	flag.StringVar(&cfg.png, "png", "", "Also write a PNG snapshot to this path")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the agenda over HTTP and refresh on a schedule")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
