package composer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SessionKind names the AI operation a GenerationSession runs.
type SessionKind string

const (
	KindContinue SessionKind = "continue"
	KindImprove  SessionKind = "improve"
)

// Span is a captured pair of character offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PersistenceRecord is the last snapshot written by the Autosaver.
type PersistenceRecord struct {
	Snapshot string    `json:"-"`
	SavedAt  time.Time `json:"saved_at"`
}

// GenerationSession is one in-flight AI operation.
type GenerationSession struct {
	ID          string      `json:"id"`
	Kind        SessionKind `json:"kind"`
	Target      *Span       `json:"target,omitempty"`
	Instruction string      `json:"instruction,omitempty"`
	StartedAt   time.Time   `json:"started_at"`

	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool
	done    chan struct{}

	mu        sync.Mutex
	err       error
	fragments int
}

func newSession(ctx context.Context, id string, kind SessionKind) *GenerationSession {
	sctx, cancel := context.WithCancel(ctx)
	return &GenerationSession{
		ID:        id,
		Kind:      kind,
		StartedAt: time.Now(),
		ctx:       sctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Active reports whether the session has not finished yet.
func (s *GenerationSession) Active() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Done is closed once the session has ended.
func (s *GenerationSession) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns its error, if any.
func (s *GenerationSession) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fragments returns how many fragments the session appended.
func (s *GenerationSession) Fragments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fragments
}

// Aborted reports whether the session was cancelled.
func (s *GenerationSession) Aborted() bool {
	return s.aborted.Load()
}

func (s *GenerationSession) abort() {
	s.aborted.Store(true)
	s.cancel()
}

func (s *GenerationSession) finish(err error) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	s.err = err
	close(s.done)
	s.mu.Unlock()
	s.cancel()
}

// Observer receives notifications from a Controller. Any field may be nil.
// Callbacks run while the controller is locked and must not call back into it.
type Observer struct {
	OnBufferChanged          func(text string)
	OnAppended               func(fragment string)
	OnSelectionChanged       func(sel *Selection)
	OnGenerationStateChanged func(active bool)
	OnSaved                  func(at time.Time)
	OnError                  func(err error)
}
