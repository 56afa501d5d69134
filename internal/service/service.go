// Package service glues the queue, the download engine, and the history
// store together behind a single API: enqueue a URL, let the worker drain
// the queue one item at a time.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"clipdl/internal/config"
	"clipdl/internal/engine"
	"clipdl/internal/entity"
	"clipdl/internal/errs"
	"clipdl/internal/history"
	"clipdl/internal/observability"
	"clipdl/internal/queue"
	"clipdl/pkg/urls"
)

// ItemFinishedFunc is notified after every item resolves, on the worker
// goroutine.
type ItemFinishedFunc func(item *entity.Item, res entity.Result)

// Downloads coordinates the download pipeline. One background worker
// executes items strictly in queue order.
type Downloads struct {
	log     *slog.Logger
	cfg     *config.Config
	queue   *queue.Manager
	engine  *engine.Engine
	history history.Store
	metrics *observability.Metrics

	// OnItemFinished, when set before Start, observes every outcome.
	OnItemFinished ItemFinishedFunc

	work      chan *entity.Item
	quit      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closed    atomic.Bool
}

func New(log *slog.Logger, cfg *config.Config, eng *engine.Engine, hist history.Store, metrics *observability.Metrics) *Downloads {
	svc := &Downloads{
		log:     log.With(slog.String("package", "service")),
		cfg:     cfg,
		engine:  eng,
		history: hist,
		metrics: metrics,
		// One slot: the queue dispatches the next item from the worker's own
		// completion path, so the send must never block.
		work: make(chan *entity.Item, 1),
		quit: make(chan struct{}),
	}

	svc.queue = queue.New(log, queue.Callbacks{
		OnNext:  func(item *entity.Item) { svc.work <- item },
		OnEmpty: func() { svc.log.Info("all downloads finished") },
	})

	return svc
}

// Start launches the worker. Safe to call once; later calls are no-ops.
func (svc *Downloads) Start(ctx context.Context) {
	svc.startOnce.Do(func() {
		svc.wg.Add(1)
		go svc.worker(ctx)
	})
}

// Enqueue validates and queues a download request. The returned position is
// 0 when the item started immediately.
func (svc *Downloads) Enqueue(ctx context.Context, url string, wantVideo, wantAudio bool, vq entity.VideoQuality, aq entity.AudioQuality) (*entity.Item, int, error) {
	if svc.closed.Load() {
		return nil, 0, errs.ErrQueueClosed
	}

	if !wantVideo && !wantAudio {
		return nil, 0, errs.ErrNothingRequested
	}

	url = urls.Normalize(url)

	if svc.queue.Contains(url) {
		return nil, 0, errs.ErrAlreadyQueued
	}

	if svc.history != nil {
		if done, err := svc.history.IsDownloaded(ctx, url); err != nil {
			svc.log.WarnContext(ctx, "history lookup failed", slog.Any("error", err))
		} else if done {
			svc.log.InfoContext(ctx, "url was downloaded before, fetching again", slog.String("url", url))
		}
	}

	item := entity.NewItem(url, wantVideo, wantAudio, vq, aq)

	pos, err := svc.queue.Enqueue(item)
	if err != nil {
		return nil, 0, err
	}

	if svc.metrics != nil {
		svc.metrics.RecordEnqueued()
		svc.metrics.SetQueuePending(svc.queue.PendingCount())
	}

	return item, pos, nil
}

// CancelCurrent aborts the in-flight item. The queue advances once the
// engine resolves the cancellation.
func (svc *Downloads) CancelCurrent() {
	svc.engine.Cancel()
}

// Remove drops a pending item by URL.
func (svc *Downloads) Remove(url string) bool {
	removed := svc.queue.Remove(urls.Normalize(url))

	if removed && svc.metrics != nil {
		svc.metrics.SetQueuePending(svc.queue.PendingCount())
	}

	return removed
}

// Contains reports whether url is pending or in flight.
func (svc *Downloads) Contains(url string) bool {
	return svc.queue.Contains(urls.Normalize(url))
}

// Pending returns a snapshot of waiting items.
func (svc *Downloads) Pending() []*entity.Item {
	return svc.queue.Pending()
}

func (svc *Downloads) PendingCount() int { return svc.queue.PendingCount() }

func (svc *Downloads) TotalCount() int { return svc.queue.TotalCount() }

// Stop rejects new work, cancels the in-flight item, and waits for the
// worker to wind down.
func (svc *Downloads) Stop() {
	if !svc.closed.CompareAndSwap(false, true) {
		return
	}

	svc.queue.Close()
	svc.engine.Cancel()
	close(svc.quit)
	svc.wg.Wait()
}

func (svc *Downloads) worker(ctx context.Context) {
	defer svc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			svc.log.Info("worker stopping", slog.Any("reason", ctx.Err()))

			return
		case <-svc.quit:
			return
		case item := <-svc.work:
			if item == nil {
				continue
			}

			svc.process(ctx, item)
		}
	}
}

func (svc *Downloads) process(ctx context.Context, item *entity.Item) {
	log := svc.log.With(slog.Any("item", item))
	log.InfoContext(ctx, "starting download")

	res := svc.engine.Run(ctx, item)

	if svc.metrics != nil {
		svc.metrics.RecordOutcome(res.OK(), res.Cancelled)
	}

	if res.OK() && svc.history != nil {
		if err := svc.history.Add(ctx, history.EntryFromItem(item, res)); err != nil {
			log.WarnContext(ctx, "recording history failed", slog.Any("error", err))
		} else if svc.metrics != nil {
			if n, err := svc.history.Count(ctx); err == nil {
				svc.metrics.SetHistoryEntries(n)
			}
		}
	}

	if svc.OnItemFinished != nil {
		svc.OnItemFinished(item, res)
	}

	if res.Cancelled {
		svc.queue.CancelCurrent()
	} else {
		svc.queue.CompleteCurrent()
	}

	if svc.metrics != nil {
		svc.metrics.SetQueuePending(svc.queue.PendingCount())
	}
}
