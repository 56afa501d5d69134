// Package progress normalizes raw byte-level transfer ticks from the video
// and audio streams into human-facing progress events.
package progress

import (
	"sync"

	"clipdl/internal/consts"
	"clipdl/internal/entity"
	"clipdl/pkg/calc"
)

// Stage describes what an event's percent refers to.
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageConverting  Stage = "converting"
	StageCompleted   Stage = "completed"
)

// Event is one normalized progress tuple for a single stream.
type Event struct {
	Kind    entity.StreamKind
	Percent float64
	Speed   string
	Stage   Stage
}

// Sink receives events synchronously. Handlers run on the downloader's
// goroutine and must be cheap.
type Sink func(Event)

// Aggregator holds per-stream progress state. Percent is non-decreasing for
// a stream within one attempt; BeginAttempt resets the floor after a retry.
type Aggregator struct {
	mu   sync.Mutex
	sink Sink
	last map[entity.StreamKind]float64
}

func New(sink Sink) *Aggregator {
	return &Aggregator{
		sink: sink,
		last: make(map[entity.StreamKind]float64),
	}
}

// BeginAttempt clears the monotonic floor for kind. Call it at the start of
// every transfer attempt, including retries.
func (a *Aggregator) BeginAttempt(kind entity.StreamKind) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.last[kind] = 0
}

// Update folds one raw tick into an event. When the total size is unknown no
// percent can be computed and no event is emitted; callers tolerate the gap.
func (a *Aggregator) Update(kind entity.StreamKind, downloaded, total int64, speedBytesPerSec float64) (Event, bool) {
	if total <= 0 {
		return Event{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pct := calc.Percent(downloaded, total)
	if pct < a.last[kind] {
		pct = a.last[kind]
	}
	a.last[kind] = pct

	ev := Event{
		Kind:    kind,
		Percent: pct,
		Speed:   calc.FormatSpeed(speedBytesPerSec),
		Stage:   StageDownloading,
	}
	a.emit(ev)

	return ev, true
}

// Finish emits a stream's terminal transfer event. Video is done at this
// point; audio still has an external transcode ahead, so it reports just
// short of full until Converted confirms the transcode.
func (a *Aggregator) Finish(kind entity.StreamKind) Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ev Event
	if kind == entity.StreamAudio {
		ev = Event{Kind: kind, Percent: consts.AudioFinishPercent, Stage: StageConverting}
	} else {
		ev = Event{Kind: kind, Percent: consts.FullProgress, Stage: StageCompleted}
	}

	a.last[kind] = ev.Percent
	a.emit(ev)

	return ev
}

// Converted emits the audio stream's final event once the transcode is
// externally confirmed done.
func (a *Aggregator) Converted() Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	ev := Event{Kind: entity.StreamAudio, Percent: consts.FullProgress, Stage: StageCompleted}
	a.last[entity.StreamAudio] = ev.Percent
	a.emit(ev)

	return ev
}

func (a *Aggregator) emit(ev Event) {
	if a.sink != nil {
		a.sink(ev)
	}
}
