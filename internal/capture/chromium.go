package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters; A4-ish portrait at 96dpi.
const (
	DefaultWidth      = 794
	DefaultHeight     = 1123
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based snapshot of the rendered
// agenda document.
type Options struct {
	// DocumentPath is the HTML file to snapshot; it is loaded via a
	// file:// URL, so no server needs to be running.
	DocumentPath string

	// OutputPath is where the PNG will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// SnapshotPNG launches a headless Chromium via chromedp, loads the rendered
// document from disk, waits for the body to be ready and writes a full-page
// PNG screenshot.
func SnapshotPNG(parentCtx context.Context, opts Options) error {
	if opts.DocumentPath == "" {
		return fmt.Errorf("capture: DocumentPath is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeoutSec * time.Second
	}

	abs, err := filepath.Abs(opts.DocumentPath)
	if err != nil {
		return fmt.Errorf("capture: resolve document path: %w", err)
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate("file://" + abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
