package composer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// runReplacement waits for the rewritten text and splices it over the span
// captured when the session began.
func (c *Controller) runReplacement(sess *GenerationSession, captured Selection, instruction string) {
	if c.rw == nil {
		c.endSession(sess, ErrMissingCredential)
		return
	}

	replacement, err := c.rw.RequestRewrite(sess.ctx, captured.Text, instruction)
	if sess.Aborted() {
		c.endSession(sess, ErrAborted)
		return
	}
	if err != nil {
		if !errors.Is(err, ErrMissingCredential) {
			err = fmt.Errorf("%w: %w", ErrRewriteFailed, err)
		}
		c.endSession(sess, err)
		return
	}

	c.mu.Lock()
	if c.active != sess {
		c.mu.Unlock()
		sess.finish(ErrAborted)
		return
	}
	c.applyReplacement(*sess.Target, replacement)
	c.endLocked(sess, nil)
	c.mu.Unlock()
}

// applyReplacement is the splice primitive. Captured offsets beyond the
// current buffer are clamped to its end. Caller holds c.mu.
func (c *Controller) applyReplacement(span Span, replacement string) {
	n := runeLen(c.text)
	start := clampInt(span.Start, 0, n)
	end := clampInt(span.End, start, n)
	if start != span.Start || end != span.End {
		c.log.Warn("captured span exceeds buffer, clamped",
			zap.Int("start", span.Start), zap.Int("end", span.End), zap.Int("len", n))
	}
	text := splice(c.text, start, end, replacement)
	c.setSelectionLocked(nil)
	c.mutateLocked(text)
}
