package spool

import (
	"context"
	"io"

	"ditherbooth/pkg/fault"
)

// Spooler delivers an encoded payload to a printer queue. Implementations
// never retry: a second attempt could print the label twice.
type Spooler interface {
	Spool(ctx context.Context, queue string, payload []byte) error
}

// Attempted reports whether a failed Spool call got as far as handing bytes
// to the device or spooler. False means nothing could have been printed.
func Attempted(err error) bool {
	return fault.Attempted(err)
}

func notAttempted(err error) error {
	return fault.Dispatch(err, false)
}

func failed(err error) error {
	return fault.Dispatch(err, true)
}

// writeAll writes payload to w unless ctx ends first, in which case w is
// closed to unblock the pending write. w is closed whenever an error is
// returned; on success closing is left to the caller.
func writeAll(ctx context.Context, w io.WriteCloser, payload []byte) error {
	done := make(chan error, 1)
	go func() {
		_, err := w.Write(payload)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			_ = w.Close()
		}
		return err
	case <-ctx.Done():
		_ = w.Close()
		return ctx.Err()
	}
}
