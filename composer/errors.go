package composer

import "errors"

var (
	// ErrMissingCredential means the generation or rewrite capability is unavailable.
	ErrMissingCredential = errors.New("ai capability unavailable: api key is missing")
	// ErrStreamInterrupted means a continuation failed after zero or more fragments.
	ErrStreamInterrupted = errors.New("continuation stream interrupted")
	// ErrRewriteFailed means an improve request failed as a whole.
	ErrRewriteFailed = errors.New("rewrite failed")
	// ErrPersistenceFailed wraps store errors seen by the Autosaver.
	ErrPersistenceFailed = errors.New("persistence failed")

	ErrSessionActive = errors.New("a generation session is already active")
	ErrNoSelection   = errors.New("no selection to improve")
	ErrClosed        = errors.New("controller is closed")
	ErrAborted       = errors.New("generation session aborted")
)
