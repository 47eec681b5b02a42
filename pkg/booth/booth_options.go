package booth

import (
	"context"
	"time"

	"ditherbooth/pkg/trim"
)

type Option func(b *Booth)

// WithSpoolTimeout bounds each dispatch; the default is 30s.
func WithSpoolTimeout(d time.Duration) Option {
	return func(b *Booth) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithTrim(opts trim.Options) Option {
	return func(b *Booth) {
		b.trim = opts
	}
}

// WithSleep replaces the test mode delay, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Booth) {
		b.sleep = fn
	}
}
