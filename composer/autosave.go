package composer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSaveWindow is the quiet period before the buffer is written.
const DefaultSaveWindow = 1000 * time.Millisecond

// Autosaver debounces writes of the buffer to a Store.
//
// Every Touch re-arms a single timer; the snapshot handed to the most recent
// Touch is written once no Touch happened for the whole window. A failed save
// is logged and retried after another window. Writes run one at a time and a
// snapshot older than the last committed one is never written. Safe for
// concurrent use.
type Autosaver struct {
	mu       sync.Mutex
	store    Store
	window   time.Duration
	timeout  time.Duration
	timer    *time.Timer
	seq      uint64 // invalidates stale timer callbacks
	pending  bool
	snapshot string
	gen      uint64 // bumped by every Touch
	saved    uint64 // gen of the last committed write
	stopped  bool
	last     PersistenceRecord
	inflight sync.WaitGroup
	writeMu  sync.Mutex
	onSaved  func(PersistenceRecord)
	log      *zap.Logger
}

// NewAutosaver returns an idle Autosaver writing to store.
func NewAutosaver(store Store, window time.Duration, log *zap.Logger) *Autosaver {
	if window <= 0 {
		window = DefaultSaveWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Autosaver{
		store:   store,
		window:  window,
		timeout: 10 * time.Second,
		log:     log.Named("autosave"),
	}
}

// OnSaved registers fn to run after each successful write.
func (a *Autosaver) OnSaved(fn func(PersistenceRecord)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSaved = fn
}

// Touch records snapshot as the latest buffer state and restarts the window.
func (a *Autosaver) Touch(snapshot string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.snapshot = snapshot
	a.gen++
	a.pending = true
	a.armLocked()
}

func (a *Autosaver) armLocked() {
	a.seq++
	seq := a.seq
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.window, func() { a.fire(seq) })
}

func (a *Autosaver) fire(seq uint64) {
	a.mu.Lock()
	if a.stopped || !a.pending || a.seq != seq {
		a.mu.Unlock()
		return
	}
	a.inflight.Add(1)
	defer a.inflight.Done()
	snapshot, gen := a.snapshot, a.gen
	a.pending = false
	a.timer = nil
	a.mu.Unlock()

	a.write(snapshot, gen)
}

func (a *Autosaver) write(snapshot string, gen uint64) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	if a.stopped || gen <= a.saved {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.store.Save(ctx, snapshot); err != nil {
		a.log.Warn("save failed, retrying next window",
			zap.Error(fmt.Errorf("%w: %w", ErrPersistenceFailed, err)))
		a.mu.Lock()
		// A newer Touch already re-armed the timer.
		if !a.stopped && !a.pending {
			a.pending = true
			a.armLocked()
		}
		a.mu.Unlock()
		return
	}

	rec := PersistenceRecord{Snapshot: snapshot, SavedAt: time.Now()}
	a.mu.Lock()
	a.saved = gen
	a.last = rec
	onSaved := a.onSaved
	a.mu.Unlock()

	a.log.Debug("saved", zap.Int("bytes", len(snapshot)))
	if onSaved != nil {
		onSaved(rec)
	}
}

// Flush writes a pending snapshot immediately instead of waiting for the window.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.stopped || !a.pending {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++
	a.pending = false
	snapshot, gen := a.snapshot, a.gen
	a.inflight.Add(1)
	a.mu.Unlock()

	defer a.inflight.Done()
	a.write(snapshot, gen)
}

// Pending reports whether a write is scheduled.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Last returns the most recent successful write.
func (a *Autosaver) Last() PersistenceRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Stop cancels any scheduled write and waits for one already running.
// A write still queued behind it is dropped. Nothing is written after Stop
// returns.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	a.pending = false
	a.seq++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.inflight.Wait()
}
