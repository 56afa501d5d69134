//go:build integration
// +build integration

package integration_test

import (
	"context"
	"testing"

	"clipdl/internal/entity"
	"clipdl/internal/progress"
)

func TestPipelineDownloadsQueuedLinks(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	ctx := t.Context()

	fx.svc.Start(ctx)
	defer fx.svc.Stop()

	urls := []string{
		"https://www.youtube.com/watch?v=first001",
		"https://www.youtube.com/watch?v=second02",
		"https://www.youtube.com/watch?v=third003",
	}

	for i, url := range urls {
		_, pos, err := fx.svc.Enqueue(ctx, url, true, true, entity.Quality1080, entity.AudioBest)
		if err != nil {
			t.Fatalf("enqueue %s: %v", url, err)
		}

		if pos != i {
			t.Errorf("Enqueue(%s) position = %d, want %d", url, pos, i)
		}
	}

	for range urls {
		fin := fx.waitFinished(t)

		if !fin.res.OK() {
			t.Errorf("item %s finished without a successful stream", fin.item.URL)
		}

		if fin.item.Status != entity.ItemStatusCompleted {
			t.Errorf("item %s status = %s, want %s", fin.item.URL, fin.item.Status, entity.ItemStatusCompleted)
		}
	}

	if n := fx.svc.TotalCount(); n != 0 {
		t.Errorf("TotalCount() after drain = %d, want 0", n)
	}
}

func TestPipelineRecordsHistory(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	ctx := t.Context()

	fx.svc.Start(ctx)
	defer fx.svc.Stop()

	url := "https://www.youtube.com/watch?v=hist0001"

	if _, _, err := fx.svc.Enqueue(ctx, url, true, false, entity.Quality720, entity.AudioBest); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	fx.waitFinished(t)

	done, err := fx.hist.IsDownloaded(ctx, url)
	if err != nil {
		t.Fatalf("history lookup: %v", err)
	}

	if !done {
		t.Error("finished download missing from history")
	}

	entries, err := fx.hist.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}

	if !entries[0].VideoOK || entries[0].AudioOK {
		t.Errorf("history entry streams = video %v audio %v, want video only",
			entries[0].VideoOK, entries[0].AudioOK)
	}
}

func TestPipelineEmitsTerminalProgress(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	ctx := t.Context()

	fx.svc.Start(ctx)
	defer fx.svc.Stop()

	url := "https://www.youtube.com/watch?v=progr001"

	if _, _, err := fx.svc.Enqueue(ctx, url, true, true, entity.Quality1080, entity.AudioBest); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	fx.waitFinished(t)

	var audioDone, videoDone bool

	for _, ev := range fx.snapshotEvents() {
		if ev.Stage != progress.StageCompleted || ev.Percent != 100 {
			continue
		}

		switch ev.Kind {
		case entity.StreamAudio:
			audioDone = true
		case entity.StreamVideo:
			videoDone = true
		}
	}

	if !audioDone || !videoDone {
		t.Errorf("terminal events: audio %v video %v, want both", audioDone, videoDone)
	}
}

func TestPipelineRejectsDuplicateWhileQueued(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	ctx := t.Context()

	// Not started: the first item parks on the dispatch channel so the
	// duplicate check sees it as still queued.
	url := "https://www.youtube.com/watch?v=dupe0001"

	if _, _, err := fx.svc.Enqueue(ctx, url, true, true, entity.Quality1080, entity.AudioBest); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}

	if _, _, err := fx.svc.Enqueue(ctx, url, true, true, entity.Quality1080, entity.AudioBest); err == nil {
		t.Error("duplicate enqueue succeeded, want error")
	}
}

func TestPipelineCancelAdvancesQueue(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.svc.Start(ctx)
	defer fx.svc.Stop()

	first := "https://www.youtube.com/watch?v=cancel01"
	second := "https://www.youtube.com/watch?v=after001"

	if _, _, err := fx.svc.Enqueue(ctx, first, true, true, entity.Quality1080, entity.AudioBest); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}

	if _, _, err := fx.svc.Enqueue(ctx, second, true, true, entity.Quality1080, entity.AudioBest); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	fx.svc.CancelCurrent()

	var sawSecond bool

	for range 2 {
		fin := fx.waitFinished(t)
		if fin.item.URL == second && fin.res.OK() {
			sawSecond = true
		}
	}

	if !sawSecond {
		t.Error("second item did not complete after cancelling the first")
	}
}
