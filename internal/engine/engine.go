// Package engine orchestrates one item's full download lifecycle: metadata
// fetch, then the audio stream, then the video stream, each wrapped in
// bounded retries. Failures never escape the engine; every path resolves to
// an entity.Result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"clipdl/internal/config"
	"clipdl/internal/entity"
	"clipdl/internal/errs"
	"clipdl/internal/fetcher"
	"clipdl/internal/observability"
	"clipdl/internal/progress"
	"clipdl/internal/retry"
	"clipdl/pkg/fsx"
)

// Engine runs one item at a time. Cancel aborts the in-flight item; the
// engine is reusable for the next item afterwards.
type Engine struct {
	log      *slog.Logger
	cfg      *config.Config
	resolver fetcher.Resolver
	streams  fetcher.StreamFetcher
	sink     progress.Sink
	metrics  *observability.Metrics

	mu        sync.Mutex
	cancelRun context.CancelFunc
	cancelled atomic.Bool
}

func New(log *slog.Logger, cfg *config.Config, resolver fetcher.Resolver, streams fetcher.StreamFetcher, sink progress.Sink, metrics *observability.Metrics) *Engine {
	return &Engine{
		log:      log.With(slog.String("package", "engine")),
		cfg:      cfg,
		resolver: resolver,
		streams:  streams,
		sink:     sink,
		metrics:  metrics,
	}
}

// Cancel aborts the in-flight item. The current transfer stops at its next
// checkpoint and no further retries or streams start.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)

	e.mu.Lock()
	if e.cancelRun != nil {
		e.cancelRun()
	}
	e.mu.Unlock()
}

// Run executes item to completion. Audio is attempted before video so the
// faster artifact lands first; the two streams fail independently unless
// cancellation abandons the remainder.
func (e *Engine) Run(ctx context.Context, item *entity.Item) entity.Result {
	var res entity.Result

	if item == nil {
		return res
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.cancelled.Store(false)
	e.cancelRun = cancel
	e.mu.Unlock()

	log := e.log.With(slog.Any("item", item))

	if e.metrics != nil {
		e.metrics.SetInFlight(1)
		defer e.metrics.SetInFlight(0)
		defer e.metrics.ItemTimer()()
	}

	item.Status = entity.ItemStatusFetchingInfo

	if item.Info == nil {
		info, err := e.resolver.FetchInfo(runCtx, item.URL)
		if err != nil {
			if e.interrupted(runCtx) {
				res.Cancelled = true
				item.Status = entity.ItemStatusCancelled
			} else {
				log.Error("metadata fetch failed, item abandoned",
					slog.Any("error", fmt.Errorf("%w: %s", errs.ErrMetadataFetch, err)))
				item.Status = entity.ItemStatusFailed
			}

			return res
		}

		item.Info = info
	}

	safeTitle := fsx.SanitizeFilename(item.Title())

	agg := progress.New(e.sink)

	if item.WantAudio {
		item.Status = entity.ItemStatusDownloadingAudio
		res.AudioOK = e.runStream(runCtx, agg, item, entity.StreamAudio, safeTitle)
	}

	if !e.interrupted(runCtx) && item.WantVideo {
		item.Status = entity.ItemStatusDownloadingVideo
		res.VideoOK = e.runStream(runCtx, agg, item, entity.StreamVideo, safeTitle)
	}

	switch {
	case e.interrupted(runCtx):
		res.Cancelled = true
		item.Status = entity.ItemStatusCancelled
	case res.OK():
		item.Status = entity.ItemStatusCompleted
	default:
		item.Status = entity.ItemStatusFailed
	}

	log.Info("item finished", slog.Any("result", res))

	return res
}

// runStream transfers one stream through the retry executor. Destination
// problems are not retried; retrying a path or permission error is futile.
func (e *Engine) runStream(ctx context.Context, agg *progress.Aggregator, item *entity.Item, kind entity.StreamKind, safeTitle string) bool {
	log := e.log.With(slog.String("kind", string(kind)), slog.String("url", item.URL))

	destDir := e.cfg.Dir.Videos
	if kind == entity.StreamAudio {
		destDir = e.cfg.Dir.Music
	}

	if err := fsx.EnsureDir(destDir); err != nil {
		log.Error("destination unavailable",
			slog.Any("error", fmt.Errorf("%w: %s", errs.ErrDestination, err)))
		e.recordStream(kind, false)

		return false
	}

	req := fetcher.StreamRequest{
		URL:          item.URL,
		Kind:         kind,
		VideoQuality: item.VideoQuality,
		AudioQuality: item.AudioQuality,
		DestDir:      destDir,
		BaseName:     safeTitle,
		OnProgress: func(raw fetcher.RawProgress) {
			if e.cancelled.Load() {
				return
			}

			agg.Update(kind, raw.Downloaded, raw.Total, raw.SpeedBPS)
		},
	}

	retrier := retry.New(e.log)
	retrier.OnRetry = func(attempt, total int, err error) {
		if e.metrics != nil {
			e.metrics.RecordRetry(string(kind))
		}
	}

	err := retrier.Do(ctx, func(ctx context.Context) error {
		agg.BeginAttempt(kind)

		return e.streams.FetchStream(ctx, req)
	})
	if err != nil {
		if !errors.Is(err, errs.ErrCancelled) {
			log.Error("stream failed after all attempts",
				slog.String("reason", errs.Classify(err)),
				slog.Any("error", err))
		}
		e.recordStream(kind, false)

		return false
	}

	agg.Finish(kind)

	if kind == entity.StreamAudio {
		// FetchStream returns only after the mp3 transcode; confirm it.
		agg.Converted()
	}

	e.recordStream(kind, true)

	return true
}

func (e *Engine) recordStream(kind entity.StreamKind, ok bool) {
	if e.metrics != nil {
		e.metrics.RecordStreamResult(string(kind), ok)
	}
}

func (e *Engine) interrupted(ctx context.Context) bool {
	return e.cancelled.Load() || ctx.Err() != nil
}
