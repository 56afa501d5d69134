// Package clipboard watches the system clipboard and reports video links as
// they are copied.
package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"clipdl/internal/observability"
	"clipdl/pkg/urls"
)

// Reader returns the current clipboard text.
type Reader interface {
	Read(ctx context.Context) (string, error)
}

// URLFunc is invoked for every newly detected video link.
type URLFunc func(url string)

// execReader shells out to the platform's paste tool.
type execReader struct {
	tool string
	args []string
}

// pasteTools lists candidate tools in preference order per platform.
func pasteTools() []execReader {
	if runtime.GOOS == "darwin" {
		return []execReader{{tool: "pbpaste"}}
	}

	return []execReader{
		{tool: "wl-paste", args: []string{"--no-newline"}},
		{tool: "xclip", args: []string{"-selection", "clipboard", "-o"}},
		{tool: "xsel", args: []string{"--clipboard", "--output"}},
	}
}

// NewSystemReader picks the first available paste tool on this machine.
func NewSystemReader() (Reader, error) {
	for _, candidate := range pasteTools() {
		if _, err := exec.LookPath(candidate.tool); err == nil {
			return &candidate, nil
		}
	}

	return nil, fmt.Errorf("no clipboard tool found (wl-paste, xclip, xsel or pbpaste)")
}

func (r *execReader) Read(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.tool, r.args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.tool, err)
	}

	return string(out), nil
}

// Watcher polls the clipboard and fires OnURL when a video link appears. A
// link fires once per copy; copying the same text again without a change in
// between stays silent.
type Watcher struct {
	log      *slog.Logger
	reader   Reader
	interval time.Duration
	onURL    URLFunc
	metrics  *observability.Metrics

	last   string
	primed bool
}

func NewWatcher(log *slog.Logger, reader Reader, interval time.Duration, onURL URLFunc, metrics *observability.Metrics) *Watcher {
	return &Watcher{
		log:      log.With(slog.String("package", "clipboard")),
		reader:   reader,
		interval: interval,
		onURL:    onURL,
		metrics:  metrics,
	}
}

// Run polls until ctx is cancelled. Content already on the clipboard at
// startup is ignored; only changes trigger detection.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.InfoContext(ctx, "watching clipboard", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	text, err := w.reader.Read(ctx)
	if err != nil {
		w.log.DebugContext(ctx, "clipboard read failed", slog.Any("error", err))

		return
	}

	if !w.primed {
		w.primed = true
		w.last = text

		return
	}

	if text == w.last {
		return
	}

	w.last = text

	trimmed := strings.TrimSpace(text)
	if !urls.IsVideoURL(trimmed) {
		return
	}

	url := urls.Normalize(trimmed)

	w.log.InfoContext(ctx, "video link detected", slog.String("url", url))

	if w.metrics != nil {
		w.metrics.RecordURLDetected()
	}

	if w.onURL != nil {
		w.onURL(url)
	}
}
