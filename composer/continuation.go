package composer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// drainContinuation pulls fragments from the generator and appends each one
// in arrival order. A mid-stream failure keeps everything appended so far.
// The stream is closed before the session ends, on every path.
func (c *Controller) drainContinuation(sess *GenerationSession, window string) {
	if c.gen == nil {
		c.endSession(sess, ErrMissingCredential)
		return
	}

	stream, err := c.gen.RequestContinuation(sess.ctx, window)
	if err != nil {
		c.endSession(sess, classifyStreamErr(err))
		return
	}

	for stream.Next() {
		if sess.Aborted() {
			break
		}
		c.appendFragment(sess, stream.Current())
	}

	var result error
	switch {
	case sess.Aborted():
		result = ErrAborted
	case stream.Err() != nil:
		result = classifyStreamErr(stream.Err())
	}
	if cerr := stream.Close(); cerr != nil {
		c.log.Debug("close continuation stream", zap.String("session", sess.ID), zap.Error(cerr))
	}
	c.endSession(sess, result)
}

// appendFragment is the append primitive. Fragments from a session that is no
// longer active are dropped.
func (c *Controller) appendFragment(sess *GenerationSession, fragment string) {
	if fragment == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != sess || sess.Aborted() {
		return
	}
	sess.mu.Lock()
	sess.fragments++
	sess.mu.Unlock()

	c.each(func(o Observer) {
		if o.OnAppended != nil {
			o.OnAppended(fragment)
		}
	})
	c.mutateLocked(c.text + fragment)
}

func classifyStreamErr(err error) error {
	if errors.Is(err, ErrMissingCredential) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
}
