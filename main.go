// entry point of the application
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"clipdl/internal/clipboard"
	"clipdl/internal/config"
	"clipdl/internal/engine"
	"clipdl/internal/entity"
	"clipdl/internal/errs"
	"clipdl/internal/fetcher"
	"clipdl/internal/ffmpeg"
	"clipdl/internal/history"
	"clipdl/internal/observability"
	"clipdl/internal/progress"
	"clipdl/internal/service"
	"clipdl/internal/storage"
	httpserver "clipdl/pkg/http/server"
	"clipdl/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
		Dir:       cfg.App.LogDir,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger degraded; using fallback settings", slog.Any("error", err))
	}

	var metrics *observability.Metrics

	var httpSrv *httpserver.Server

	if cfg.Metrics.Enabled {
		metrics = observability.New()
		httpSrv = httpserver.New(observability.Handler(), httpserver.Options{Addr: cfg.Metrics.Addr})

		log.InfoContext(ctx, "metrics endpoint up", slog.String("addr", cfg.Metrics.Addr))
	}

	log.InfoContext(ctx, "checking ffmpeg availability, a download may take some time...")

	if _, err := ffmpeg.New(log, cfg).Ensure(ctx); err != nil {
		log.WarnContext(ctx, "ffmpeg unavailable, audio transcode will fail", slog.Any("error", err))
	}

	var hist history.Store

	hist, err = history.Open(log, cfg.History.Path, cfg.History.Limit)
	if err != nil {
		log.WarnContext(ctx, "history store unavailable, continuing without it", slog.Any("error", err))
		hist = nil
	}

	videoQuality, audioQuality, err := cfg.Download.Qualities()
	if err != nil {
		log.Error("download quality config", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	sink := func(ev progress.Event) {
		log.Debug("progress",
			slog.String("kind", string(ev.Kind)),
			slog.Float64("percent", ev.Percent),
			slog.String("speed", ev.Speed),
			slog.String("stage", string(ev.Stage)),
		)
	}

	ytdlp := fetcher.NewYTdlp(log, cfg)
	eng := engine.New(log, cfg, ytdlp, ytdlp, sink, metrics)

	svc := service.New(log, cfg, eng, hist, metrics)
	svc.OnItemFinished = func(item *entity.Item, res entity.Result) {
		log.Info("download finished", slog.Any("item", item), slog.Any("result", res))
	}
	svc.Start(ctx)

	reader, err := clipboard.NewSystemReader()
	if err != nil {
		log.Error("clipboard unavailable", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	onURL := func(url string) {
		_, pos, err := svc.Enqueue(ctx, url,
			cfg.Download.Video, cfg.Download.Audio, videoQuality, audioQuality)
		if err != nil {
			if errors.Is(err, errs.ErrAlreadyQueued) {
				log.Info("link already queued", slog.String("url", url))
			} else {
				log.Warn("enqueue failed", slog.String("url", url), slog.Any("error", err))
			}

			return
		}

		log.Info("link queued", slog.String("url", url), slog.Int("position", pos))
	}

	go storage.New(log, cfg).Run(ctx)

	watcher := clipboard.NewWatcher(log, reader, cfg.Clipboard.PollInterval, onURL, metrics)
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("clipboard watcher stopped", slog.Any("error", err))
		}
	}()

	log.InfoContext(ctx, "clipdl started",
		slog.String("videos_dir", cfg.Dir.Videos),
		slog.String("music_dir", cfg.Dir.Music),
	)

	<-ctx.Done()

	svc.Stop()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(); err != nil {
			log.Error(err.Error())
		}
	}

	if hist != nil {
		if err := hist.Close(); err != nil {
			log.Error(err.Error())
		}
	}

	log.Info("clipdl shut down gracefully")
}
