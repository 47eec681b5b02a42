package spool

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"ditherbooth/pkg/fault"
)

// WithTimeout bounds every Spool call of s by d, so a stuck printer cannot
// hold a request forever.
func WithTimeout(s Spooler, d time.Duration) Spooler {
	return &timeoutSpooler{s: s, d: d}
}

type timeoutSpooler struct {
	s Spooler
	d time.Duration
}

func (t *timeoutSpooler) Spool(ctx context.Context, queue string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	err := t.s.Spool(ctx, queue, payload)
	if err == nil {
		return nil
	}
	if fault.Is(err, fault.KindDispatch) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failed(errors.Wrapf(err, "spool timed out after %s", t.d))
	}
	return failed(err)
}
