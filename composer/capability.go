package composer

import (
	"context"
	"sync"
)

// FragmentStream is a finite, non-restartable sequence of text fragments.
// Next blocks until a fragment is available or the sequence ends; Err reports
// a failure once Next returns false. Close releases the underlying transport.
type FragmentStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Generator produces a continuation of the given trailing context window.
type Generator interface {
	RequestContinuation(ctx context.Context, window string) (FragmentStream, error)
}

// Rewriter rewrites selected text according to an instruction. It either
// returns the full replacement or fails as a whole.
type Rewriter interface {
	RequestRewrite(ctx context.Context, selected, instruction string) (string, error)
}

// Store is the durable home of one document.
type Store interface {
	Save(ctx context.Context, snapshot string) error
	// Load returns false when nothing was saved yet.
	Load(ctx context.Context) (string, bool, error)
}

// SliceStream serves fragments from memory, optionally failing after them.
type SliceStream struct {
	mu        sync.Mutex
	fragments []string
	pos       int
	cur       string
	failWith  error
	err       error
	closed    bool
}

// NewSliceStream returns a stream over fragments.
func NewSliceStream(fragments ...string) *SliceStream {
	return &SliceStream{fragments: fragments}
}

// FailAfter makes the stream report err once its fragments are exhausted.
func (s *SliceStream) FailAfter(err error) *SliceStream {
	s.failWith = err
	return s
}

func (s *SliceStream) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pos >= len(s.fragments) {
		if !s.closed && s.failWith != nil {
			s.err = s.failWith
		}
		return false
	}
	s.cur = s.fragments[s.pos]
	s.pos++
	return true
}

func (s *SliceStream) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *SliceStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *SliceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
