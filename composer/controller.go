// Package composer keeps a single text buffer consistent while a user types
// and an AI collaborator streams continuations or rewrites a selection.
package composer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultContextChars is how much trailing text seeds a continuation.
const DefaultContextChars = 2000

// WelcomeText seeds a document that has never been saved.
const WelcomeText = `# ZenWriter

Start typing...

Select text to see AI options, or click the sparkle icon to continue writing.`

// Option configures a Controller.
type Option func(*Controller)

// WithGenerator sets the continuation capability.
func WithGenerator(g Generator) Option {
	return func(c *Controller) { c.gen = g }
}

// WithRewriter sets the improve capability.
func WithRewriter(r Rewriter) Option {
	return func(c *Controller) { c.rw = r }
}

// WithAutosaver routes every buffer mutation through a.
func WithAutosaver(a *Autosaver) Option {
	return func(c *Controller) { c.autosave = a }
}

// WithContextChars overrides the continuation context window.
func WithContextChars(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.contextChars = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller owns the document buffer and arbitrates every mutation of it:
// direct edits, streamed continuation fragments and selection replacement.
// Each mutation runs under one lock, so readers never see a half-applied change.
type Controller struct {
	mu           sync.Mutex
	text         string
	selection    *Selection
	active       *GenerationSession
	observers    []subscription // subscription order
	nextObserver int
	closed       bool

	gen          Generator
	rw           Rewriter
	autosave     *Autosaver
	contextChars int
	log          *zap.Logger
}

// NewController returns a controller over initial.
func NewController(initial string, opts ...Option) *Controller {
	c := &Controller{
		text:         initial,
		contextChars: DefaultContextChars,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("module", "composer"))
	if c.autosave != nil {
		c.autosave.OnSaved(c.saved)
	}
	return c
}

// Open loads the document from store, falling back to WelcomeText, and
// autosaves every later mutation back to it.
func Open(ctx context.Context, store Store, window time.Duration, opts ...Option) (*Controller, error) {
	text, ok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if !ok {
		text = WelcomeText
	}
	c := NewController(text, opts...)
	if c.autosave == nil {
		c.autosave = NewAutosaver(store, window, c.log)
		c.autosave.OnSaved(c.saved)
	}
	return c, nil
}

// Subscribe registers o and returns a function that removes it.
func (c *Controller) Subscribe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	c.observers = append(c.observers, subscription{id: id, o: o})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.observers {
			if sub.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Text returns the current buffer.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Selection returns a copy of the live selection, or nil.
func (c *Controller) Selection() *Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection == nil {
		return nil
	}
	sel := *c.selection
	return &sel
}

// Session returns the active generation session, or nil.
func (c *Controller) Session() *GenerationSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Generating reports whether a generation session is active.
func (c *Controller) Generating() bool {
	return c.Session() != nil
}

// LastSaved returns the time of the last successful autosave, zero if none.
func (c *Controller) LastSaved() time.Time {
	if c.autosave == nil {
		return time.Time{}
	}
	return c.autosave.Last().SavedAt
}

// Edit replaces the whole buffer with text, as delivered by a text input on
// every change. Edits are accepted while a session runs; a continuation keeps
// appending at the current end of the buffer. After Close the edit is
// rejected with ErrClosed and the buffer is left as it was.
func (c *Controller) Edit(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.log.Warn("edit after close rejected", zap.Int("chars", runeLen(text)))
		return ErrClosed
	}
	if c.active != nil {
		c.log.Debug("edit during generation", zap.String("session", c.active.ID), zap.String("kind", string(c.active.Kind)))
	}
	c.mutateLocked(text)
	return nil
}

// UpdateSelection records the input surface's active range. A collapsed
// range clears the selection.
func (c *Controller) UpdateSelection(start, end int) *Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSelectionLocked(TrackSelection(c.text, start, end))
	if c.selection == nil {
		return nil
	}
	sel := *c.selection
	return &sel
}

// BeginContinue opens a continue session and drains the generator's fragments
// into the buffer in the background. It returns ErrSessionActive without
// touching any state when a session is already running.
func (c *Controller) BeginContinue(ctx context.Context) (*GenerationSession, error) {
	c.mu.Lock()
	if err := c.admitLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	sess := newSession(ctx, uuid.NewString(), KindContinue)
	window := tail(c.text, c.contextChars)
	c.startLocked(sess)
	c.mu.Unlock()

	c.log.Info("continue started", zap.String("session", sess.ID), zap.Int("context_chars", runeLen(window)))
	go c.drainContinuation(sess, window)
	return sess, nil
}

// BeginImprove captures the live selection, clears it, and asks the rewriter
// for a replacement that is spliced in at the captured offsets.
func (c *Controller) BeginImprove(ctx context.Context, instruction string) (*GenerationSession, error) {
	c.mu.Lock()
	if c.selection == nil {
		c.mu.Unlock()
		return nil, ErrNoSelection
	}
	if err := c.admitLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	captured := *c.selection
	sess := newSession(ctx, uuid.NewString(), KindImprove)
	span := captured.Span()
	sess.Target = &span
	sess.Instruction = instruction
	c.setSelectionLocked(nil)
	c.startLocked(sess)
	c.mu.Unlock()

	c.log.Info("improve started", zap.String("session", sess.ID), zap.Int("start", span.Start), zap.Int("end", span.End))
	go c.runReplacement(sess, captured, instruction)
	return sess, nil
}

// EndSession ends the active session, if any, with err as its result. A nil
// err is a clean end: no OnError, and Wait returns nil. Either way fragments
// already appended stay in the buffer and anything the session produces
// afterwards is discarded.
func (c *Controller) EndSession(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	c.active.abort()
	c.endLocked(c.active, err)
}

// Abort cancels the active session, if any. Its result is ErrAborted.
func (c *Controller) Abort() {
	c.EndSession(ErrAborted)
}

// Flush writes any pending autosave immediately.
func (c *Controller) Flush() {
	if c.autosave != nil {
		c.autosave.Flush()
	}
}

// Close stops autosaving and abandons the active session. Pending writes are
// dropped; call Flush first to keep them.
func (c *Controller) Close() {
	if c.autosave != nil {
		c.autosave.Stop()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.active != nil {
		c.active.abort()
		c.endLocked(c.active, ErrClosed)
	}
}

func (c *Controller) admitLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.active != nil {
		return ErrSessionActive
	}
	return nil
}

func (c *Controller) startLocked(sess *GenerationSession) {
	c.active = sess
	c.each(func(o Observer) {
		if o.OnGenerationStateChanged != nil {
			o.OnGenerationStateChanged(true)
		}
	})
}

// endSession finishes sess if it is still the active one.
func (c *Controller) endSession(sess *GenerationSession, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != sess {
		sess.finish(err)
		return
	}
	c.endLocked(sess, err)
}

// endLocked clears the active session, notifies observers, then releases
// waiters on sess.
func (c *Controller) endLocked(sess *GenerationSession, err error) {
	c.active = nil
	defer sess.finish(err)
	if err != nil {
		c.log.Warn("session ended with error", zap.String("session", sess.ID), zap.String("kind", string(sess.Kind)), zap.Error(err))
		if !errors.Is(err, ErrAborted) && !errors.Is(err, ErrClosed) {
			c.each(func(o Observer) {
				if o.OnError != nil {
					o.OnError(err)
				}
			})
		}
	} else {
		c.log.Info("session ended", zap.String("session", sess.ID), zap.String("kind", string(sess.Kind)), zap.Int("fragments", sess.Fragments()))
	}
	c.each(func(o Observer) {
		if o.OnGenerationStateChanged != nil {
			o.OnGenerationStateChanged(false)
		}
	})
}

// mutateLocked installs text as the new buffer and fans out the consequences:
// selection invalidation, observers, autosave.
func (c *Controller) mutateLocked(text string) {
	c.text = text
	c.each(func(o Observer) {
		if o.OnBufferChanged != nil {
			o.OnBufferChanged(text)
		}
	})
	if c.selection != nil && !c.selection.survives(text) {
		c.setSelectionLocked(nil)
	}
	if c.autosave != nil && !c.closed {
		c.autosave.Touch(text)
	}
}

func (c *Controller) setSelectionLocked(sel *Selection) {
	if sameSelection(c.selection, sel) {
		return
	}
	c.selection = sel
	c.each(func(o Observer) {
		if o.OnSelectionChanged != nil {
			o.OnSelectionChanged(sel)
		}
	})
}

func (c *Controller) saved(rec PersistenceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.each(func(o Observer) {
		if o.OnSaved != nil {
			o.OnSaved(rec.SavedAt)
		}
	})
}

type subscription struct {
	id int
	o  Observer
}

// each visits observers in subscription order.
func (c *Controller) each(fn func(Observer)) {
	for _, sub := range c.observers {
		fn(sub.o)
	}
}
