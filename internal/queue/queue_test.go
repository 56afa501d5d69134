package queue

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"clipdl/internal/entity"
	"clipdl/internal/errs"
)

func newTestItem(url string) *entity.Item {
	return entity.NewItem(url, true, true, entity.Quality1080, entity.AudioBest)
}

func newTestManager(cb Callbacks) *Manager {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(log, cb)
}

func TestEnqueueDispatchOrder(t *testing.T) {
	var dispatched []string
	m := newTestManager(Callbacks{
		OnNext: func(item *entity.Item) { dispatched = append(dispatched, item.URL) },
	})

	urls := []string{"https://youtu.be/aaa", "https://youtu.be/bbb", "https://youtu.be/ccc"}

	for i, url := range urls {
		pos, err := m.Enqueue(newTestItem(url))
		if err != nil {
			t.Fatalf("enqueue %q: %v", url, err)
		}

		if pos != i {
			t.Errorf("enqueue %q: got position %d, want %d", url, pos, i)
		}
	}

	// Only the first item dispatches; the rest wait for CompleteCurrent.
	if len(dispatched) != 1 || dispatched[0] != urls[0] {
		t.Fatalf("got dispatched %v, want just %q", dispatched, urls[0])
	}

	m.CompleteCurrent()
	m.CompleteCurrent()
	m.CompleteCurrent()

	for i, url := range urls {
		if dispatched[i] != url {
			t.Errorf("dispatch %d: got %q, want %q", i, dispatched[i], url)
		}
	}
}

func TestEnqueueNilItem(t *testing.T) {
	m := newTestManager(Callbacks{})

	if _, err := m.Enqueue(nil); !errors.Is(err, errs.ErrItemNil) {
		t.Errorf("got err %v, want ErrItemNil", err)
	}
}

func TestSingleFlight(t *testing.T) {
	inFlight := 0
	m := newTestManager(Callbacks{})
	m.cb.OnNext = func(*entity.Item) {
		inFlight++
		if inFlight > 1 {
			t.Errorf("second item dispatched while one is in flight")
		}
	}

	m.Enqueue(newTestItem("https://youtu.be/aaa"))
	m.Enqueue(newTestItem("https://youtu.be/bbb"))

	if !m.IsDownloading() {
		t.Error("expected downloading state after dispatch")
	}

	if m.PendingCount() != 1 {
		t.Errorf("got %d pending, want 1", m.PendingCount())
	}

	if m.TotalCount() != 2 {
		t.Errorf("got total %d, want 2", m.TotalCount())
	}

	inFlight--
	m.CompleteCurrent()
}

func TestDrainSignalsEmptyOnce(t *testing.T) {
	emptyCalls := 0

	m := newTestManager(Callbacks{})
	m.cb = Callbacks{
		OnNext:  func(*entity.Item) {},
		OnEmpty: func() { emptyCalls++ },
	}

	for _, url := range []string{"https://youtu.be/aaa", "https://youtu.be/bbb", "https://youtu.be/ccc"} {
		m.Enqueue(newTestItem(url))
	}

	for range 3 {
		m.CompleteCurrent()
	}

	if emptyCalls != 1 {
		t.Errorf("got %d empty signals, want 1", emptyCalls)
	}

	if m.PendingCount() != 0 {
		t.Errorf("got %d pending after drain, want 0", m.PendingCount())
	}

	if m.IsDownloading() {
		t.Error("still marked downloading after drain")
	}
}

func TestImmediateCompletionFromCallback(t *testing.T) {
	// An engine stub that finishes synchronously inside OnNext re-enters the
	// manager; the whole chain must run without deadlock.
	var dispatched []string

	var m *Manager
	m = newTestManager(Callbacks{})
	m.cb = Callbacks{
		OnNext: func(item *entity.Item) {
			dispatched = append(dispatched, item.URL)
			m.CompleteCurrent()
		},
	}

	m.Enqueue(newTestItem("https://youtu.be/aaa"))
	m.Enqueue(newTestItem("https://youtu.be/bbb"))
	m.Enqueue(newTestItem("https://youtu.be/ccc"))

	if len(dispatched) != 3 {
		t.Fatalf("got %d dispatches, want 3", len(dispatched))
	}
}

func TestRemove(t *testing.T) {
	var dispatched []string
	m := newTestManager(Callbacks{})
	m.cb.OnNext = func(item *entity.Item) { dispatched = append(dispatched, item.URL) }

	a, b, c := "https://youtu.be/aaa", "https://youtu.be/bbb", "https://youtu.be/ccc"
	m.Enqueue(newTestItem(a))
	m.Enqueue(newTestItem(b))
	m.Enqueue(newTestItem(c))

	if !m.Remove(b) {
		t.Fatal("expected removal of a pending item to succeed")
	}

	if m.Remove(b) {
		t.Error("second removal of the same url should be a no-op")
	}

	if m.Remove(a) {
		t.Error("the current item must not be removable")
	}

	m.CompleteCurrent()
	m.CompleteCurrent()

	want := []string{a, c}
	if len(dispatched) != len(want) {
		t.Fatalf("got dispatches %v, want %v", dispatched, want)
	}

	for i := range want {
		if dispatched[i] != want[i] {
			t.Errorf("dispatch %d: got %q, want %q", i, dispatched[i], want[i])
		}
	}
}

func TestContains(t *testing.T) {
	m := newTestManager(Callbacks{})

	a, b := "https://youtu.be/aaa", "https://youtu.be/bbb"
	m.Enqueue(newTestItem(a)) // becomes current
	m.Enqueue(newTestItem(b)) // pending

	if !m.Contains(a) {
		t.Error("current item not reported as in queue")
	}

	if !m.Contains(b) {
		t.Error("pending item not reported as in queue")
	}

	if m.Contains("https://youtu.be/zzz") {
		t.Error("unknown url reported as in queue")
	}

	m.CompleteCurrent()
	m.CompleteCurrent()

	if m.Contains(a) || m.Contains(b) {
		t.Error("drained items still reported as in queue")
	}
}

func TestClear(t *testing.T) {
	m := newTestManager(Callbacks{})

	m.Enqueue(newTestItem("https://youtu.be/aaa"))
	m.Enqueue(newTestItem("https://youtu.be/bbb"))
	m.Enqueue(newTestItem("https://youtu.be/ccc"))

	if n := m.Clear(); n != 2 {
		t.Errorf("got %d cleared, want 2", n)
	}

	if m.PendingCount() != 0 {
		t.Errorf("got %d pending after clear, want 0", m.PendingCount())
	}

	// Current item is unaffected.
	if !m.IsDownloading() {
		t.Error("clear must not vacate the in-flight slot")
	}
}

func TestCloseRejectsEnqueue(t *testing.T) {
	m := newTestManager(Callbacks{})

	m.Close()

	if _, err := m.Enqueue(newTestItem("https://youtu.be/aaa")); !errors.Is(err, errs.ErrQueueClosed) {
		t.Errorf("got err %v, want ErrQueueClosed", err)
	}
}

func TestConcurrentEnqueue(t *testing.T) {
	m := newTestManager(Callbacks{})

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Enqueue(newTestItem(string(rune('a'+i)) + "-url"))
		}(i)
	}
	wg.Wait()

	if m.TotalCount() != 10 {
		t.Errorf("got total %d, want 10", m.TotalCount())
	}

	for range 10 {
		m.CompleteCurrent()
	}

	if m.TotalCount() != 0 {
		t.Errorf("got total %d after drain, want 0", m.TotalCount())
	}
}
