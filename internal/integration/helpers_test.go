//go:build integration
// +build integration

package integration_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipdl/internal/config"
	"clipdl/internal/engine"
	"clipdl/internal/entity"
	"clipdl/internal/fetcher"
	"clipdl/internal/history"
	"clipdl/internal/progress"
	"clipdl/internal/service"
)

type finished struct {
	item *entity.Item
	res  entity.Result
}

type pipelineFixture struct {
	cfg  *config.Config
	svc  *service.Downloads
	hist history.Store

	mu     sync.Mutex
	events []progress.Event

	done chan finished
}

// newPipelineFixture wires the real queue, engine, service, and SQLite
// history around a simulated stream fetcher.
func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	baseDir := t.TempDir()

	cfg := &config.Config{}
	cfg.Dir.Videos = filepath.Join(baseDir, "videos")
	cfg.Dir.Music = filepath.Join(baseDir, "music")
	cfg.Dir.Cache = filepath.Join(baseDir, "cache")
	cfg.History.Path = filepath.Join(baseDir, "history.db")
	cfg.History.Limit = 100

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	hist, err := history.Open(log, cfg.History.Path, cfg.History.Limit)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}

	t.Cleanup(func() { _ = hist.Close() })

	mock := fetcher.NewMock(log)
	mock.SimulateTime = 50 * time.Millisecond

	fx := &pipelineFixture{
		cfg:  cfg,
		hist: hist,
		done: make(chan finished, 16),
	}

	sink := func(ev progress.Event) {
		fx.mu.Lock()
		fx.events = append(fx.events, ev)
		fx.mu.Unlock()
	}

	eng := engine.New(log, cfg, mock, mock, sink, nil)

	fx.svc = service.New(log, cfg, eng, hist, nil)
	fx.svc.OnItemFinished = func(item *entity.Item, res entity.Result) {
		fx.done <- finished{item: item, res: res}
	}

	return fx
}

func (fx *pipelineFixture) waitFinished(t *testing.T) finished {
	t.Helper()

	select {
	case fin := <-fx.done:
		return fin
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for an item to finish")

		return finished{}
	}
}

func (fx *pipelineFixture) snapshotEvents() []progress.Event {
	fx.mu.Lock()
	defer fx.mu.Unlock()

	out := make([]progress.Event, len(fx.events))
	copy(out, fx.events)

	return out
}
