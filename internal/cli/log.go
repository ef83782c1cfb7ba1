// Package cli implements the docdesigner command-line interface.
//
// This package provides commands for editing invoice layout templates: the
// template collection, the modules of the active template, their rows and
// configuration forms, a graph preview, and an interactive designer. It also
// runs the HTTP API and manages the optional remote mirror. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - template: List, create, duplicate, delete, export and import templates
//   - module: Add, configure, resize, move and remove modules
//   - rows: Show how the active layout packs into rows
//   - preview: Render the packed layout as SVG or DOT
//   - design: Interactive terminal designer with drag-and-drop
//   - serve: Run the HTTP API
//   - sync, watch: Replay queued mirror writes and follow remote changes
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context; with debug logging on, store and mirror
// events are logged through observability hooks.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docdesigner/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Replayed 3 queued writes (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks reports store, mirror and HTTP events at debug level.
type logHooks struct {
	logger *log.Logger
}

// installLogHooks registers logHooks as the process-wide observability hooks.
func installLogHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetStoreHooks(h)
	observability.SetMirrorHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnMutation(op, templateID string) {
	h.logger.Debug("mutation", "op", op, "template", templateID)
}

func (h *logHooks) OnSave(_ context.Context, templates int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("save failed", "templates", templates, "error", err)
		return
	}
	h.logger.Debug("saved", "templates", templates, "took", d.Round(time.Microsecond))
}

func (h *logHooks) OnWrite(_ context.Context, op, templateID string, attempts int, d time.Duration, err error) {
	h.logger.Debug("mirror write", "op", op, "template", templateID, "attempts", attempts, "took", d.Round(time.Millisecond), "error", err)
}

func (h *logHooks) OnQueued(_ context.Context, op, templateID string) {
	h.logger.Debug("queued for sync", "op", op, "template", templateID)
}

func (h *logHooks) OnFlush(_ context.Context, replayed, remaining int) {
	h.logger.Debug("sync queue flushed", "replayed", replayed, "remaining", remaining)
}

func (h *logHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("served", "method", method, "route", route, "status", status, "took", d.Round(time.Microsecond))
}

var (
	_ observability.StoreHooks  = (*logHooks)(nil)
	_ observability.MirrorHooks = (*logHooks)(nil)
	_ observability.HTTPHooks   = (*logHooks)(nil)
)
