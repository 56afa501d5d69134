// Package queue serializes download requests: items dispatch strictly in
// enqueue order and at most one item is in flight at any time.
package queue

import (
	"log/slog"
	"sync"

	"clipdl/internal/entity"
	"clipdl/internal/errs"
)

// Callbacks are invoked synchronously on the goroutine that triggered the
// state transition. Receivers redispatch to another goroutine if needed.
type Callbacks struct {
	// OnNext fires when an item becomes current and should start downloading.
	OnNext func(item *entity.Item)
	// OnEmpty fires when the last item vacates and nothing is pending.
	OnEmpty func()
}

// Manager owns the pending queue and the single in-flight slot. All mutation
// is mutex-serialized; callbacks run outside the lock so they may call back
// into the manager.
type Manager struct {
	log *slog.Logger
	cb  Callbacks

	mu          sync.Mutex
	pending     []*entity.Item
	current     *entity.Item
	downloading bool
	closed      bool
}

func New(log *slog.Logger, cb Callbacks) *Manager {
	return &Manager{
		log: log.With(slog.String("package", "queue")),
		cb:  cb,
	}
}

// Enqueue appends item and returns its position at insertion time. Position 0
// means the item was dispatched immediately; position n means n items run
// before it.
func (m *Manager) Enqueue(item *entity.Item) (int, error) {
	if item == nil {
		return 0, errs.ErrItemNil
	}

	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return 0, errs.ErrQueueClosed
	}

	m.pending = append(m.pending, item)

	if m.downloading {
		pos := len(m.pending)
		m.mu.Unlock()

		m.log.Info("item queued", slog.Any("item", item), slog.Int("position", pos))

		return pos, nil
	}

	next := m.popLocked()
	onNext := m.cb.OnNext
	m.mu.Unlock()

	m.log.Info("item dispatched", slog.Any("item", next))

	if onNext != nil {
		onNext(next)
	}

	return 0, nil
}

// CompleteCurrent vacates the in-flight slot after the engine finished with
// the current item, for any outcome, and advances the queue.
func (m *Manager) CompleteCurrent() {
	m.mu.Lock()
	m.current = nil
	m.downloading = false
	m.mu.Unlock()

	m.advance()
}

// CancelCurrent is the cancellation path of CompleteCurrent. The state
// transition is identical; the outcome distinction lives with the caller.
func (m *Manager) CancelCurrent() {
	m.CompleteCurrent()
}

// Remove drops a matching pending item. The current item cannot be removed
// this way; cancel it instead.
func (m *Manager) Remove(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.pending {
		if item.URL == url {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)

			return true
		}
	}

	return false
}

// Contains reports whether url matches the current item or any pending item.
func (m *Manager) Contains(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.URL == url {
		return true
	}

	for _, item := range m.pending {
		if item.URL == url {
			return true
		}
	}

	return false
}

// Current returns the in-flight item, or nil.
func (m *Manager) Current() *entity.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}

func (m *Manager) TotalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pending)
	if m.current != nil {
		n++
	}

	return n
}

func (m *Manager) IsDownloading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.downloading
}

// Pending returns a snapshot of the waiting items in dispatch order.
func (m *Manager) Pending() []*entity.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entity.Item, len(m.pending))
	copy(out, m.pending)

	return out
}

// Clear drops all pending items. The current item keeps running.
func (m *Manager) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pending)
	m.pending = nil

	return n
}

// Close rejects further enqueues. Pending items are dropped; the current
// item keeps running until the engine reports back.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.pending = nil
}

// advance pops the next item into the in-flight slot, or signals empty. A
// concurrent Enqueue may have already refilled the slot; then there is
// nothing to do.
func (m *Manager) advance() {
	m.mu.Lock()

	if m.closed || m.downloading {
		m.mu.Unlock()

		return
	}

	if len(m.pending) == 0 {
		onEmpty := m.cb.OnEmpty
		m.mu.Unlock()

		m.log.Info("queue empty")

		if onEmpty != nil {
			onEmpty()
		}

		return
	}

	next := m.popLocked()
	onNext := m.cb.OnNext
	m.mu.Unlock()

	m.log.Info("item dispatched", slog.Any("item", next))

	if onNext != nil {
		onNext(next)
	}
}

func (m *Manager) popLocked() *entity.Item {
	next := m.pending[0]
	m.pending = m.pending[1:]
	m.current = next
	m.downloading = true

	return next
}
