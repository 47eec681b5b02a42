package worker

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"ditherbooth/pkg/fault"
)

// Pool bounds how many CPU heavy jobs run at once, so one large upload does
// not starve the others.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New returns a pool of size slots; size < 1 uses GOMAXPROCS.
func New(size int) *Pool {
	if size < 1 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

func (p *Pool) Size() int {
	return p.size
}

// Do waits for a free slot and runs fn on its own goroutine. A panic in fn is
// returned as an internal error. Cancelling ctx stops the wait, but a job that
// already started runs to completion before Do returns.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- fault.Internal("worker", fmt.Errorf("panic: %v", r))
			}
		}()
		done <- fn()
	}()

	return <-done
}
