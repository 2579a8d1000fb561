package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"icsagenda/internal/agenda"
	"icsagenda/internal/config"
	"icsagenda/internal/filter"
	"icsagenda/internal/ics"
	appLog "icsagenda/internal/log"
	"icsagenda/internal/model"
	"icsagenda/internal/render"
)

// Stats counts events considered vs retained after filtering, for
// observability. The caller decides how to surface it.
type Stats struct {
	Considered int
	Retained   int
}

// App wires the fetch -> parse -> filter -> sort -> render pipeline for one
// configuration. The filter pattern is compiled at construction time so a
// bad pattern fails before any fetching work is wasted.
type App struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	matcher *filter.Matcher
	loc     *time.Location
}

// New validates the configuration and constructs the pipeline.
func New(cfg *config.Config) (*App, error) {
	matcher, err := filter.New(cfg.Pattern, cfg.CaseSensitive, cfg.Invert)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.CacheDir),
		matcher: matcher,
		loc:     cfg.Location(),
	}, nil
}

// Location returns the display timezone resolved from the configuration.
func (a *App) Location() *time.Location {
	return a.loc
}

// Events fetches and parses the subscription, then filters and sorts the
// events. Each invocation is independent; no state is retained.
func (a *App) Events(ctx context.Context) ([]model.Event, Stats, error) {
	res, err := a.fetcher.Fetch(ctx, a.cfg.URL)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("fetch calendar: %w", err)
	}

	parsed, err := ics.Parse(res.Body, a.cfg.StrictParse)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("parse calendar: %w", err)
	}

	kept := a.matcher.Apply(parsed)
	agenda.Sort(kept)

	stats := Stats{Considered: len(parsed), Retained: len(kept)}
	appLog.Info("pipeline events ready", "considered", stats.Considered, "retained", stats.Retained)
	return kept, stats, nil
}

// RenderDocument renders an already-filtered, sorted event sequence into
// the HTML document using the configured title and visibility toggles.
func (a *App) RenderDocument(events []model.Event) (string, error) {
	return render.Render(a.cfg.Title, events, render.Options{
		ShowSummary:     a.cfg.ShowSummary,
		ShowMeta:        a.cfg.ShowMeta,
		ShowDescription: a.cfg.ShowDescription,
		Location:        a.loc,
	})
}

// BuildDocument runs the full pipeline and returns the rendered HTML
// document. Nothing is written; a terminal error leaves no partial output.
func (a *App) BuildDocument(ctx context.Context) (string, Stats, error) {
	events, stats, err := a.Events(ctx)
	if err != nil {
		return "", stats, err
	}

	doc, err := a.RenderDocument(events)
	if err != nil {
		return "", stats, err
	}
	return doc, stats, nil
}

// WriteDocument runs the full pipeline and atomically writes the document
// to the configured output path (temp file + rename, so readers never see
// a partial document).
func (a *App) WriteDocument(ctx context.Context) (Stats, error) {
	doc, stats, err := a.BuildDocument(ctx)
	if err != nil {
		return stats, err
	}

	if err := writeFileAtomic(a.cfg.OutputPath, []byte(doc)); err != nil {
		return stats, fmt.Errorf("write document: %w", err)
	}

	appLog.Info("document written", "path", a.cfg.OutputPath, "bytes", len(doc),
		"considered", stats.Considered, "retained", stats.Retained)
	return stats, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsagenda-out-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
