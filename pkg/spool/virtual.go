package spool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

func NewVirtual(logger *zap.Logger) *Virtual {
	return &Virtual{l: logger.With(zap.String("via", "virtual"))}
}

type Job struct {
	Queue   string
	Payload []byte
}

// Virtual prints nothing. It logs each job and keeps it for inspection.
type Virtual struct {
	l    *zap.Logger
	mu   sync.Mutex
	jobs []Job
}

func (v *Virtual) Spool(_ context.Context, queue string, payload []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.jobs = append(v.jobs, Job{Queue: queue, Payload: append([]byte(nil), payload...)})
	v.l.With(zap.String("queue", queue), zap.Int("bytes", len(payload))).Info("spool")
	return nil
}

func (v *Virtual) Jobs() []Job {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]Job(nil), v.jobs...)
}
