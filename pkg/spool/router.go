package spool

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ditherbooth/pkg/fault"
)

const (
	DevicePrefix = "/dev/"
	SerialPrefix = "serial:"
	VirtualQueue = "virtual"
)

type Option func(r *Router)

func WithLPR(s Spooler) Option {
	return func(r *Router) {
		r.lpr = s
	}
}

func WithDevice(s Spooler) Option {
	return func(r *Router) {
		r.device = s
	}
}

func WithSerial(s Spooler) Option {
	return func(r *Router) {
		r.serial = s
	}
}

func WithRemote(s Spooler) Option {
	return func(r *Router) {
		r.remote = s
	}
}

func WithVirtual(s Spooler) Option {
	return func(r *Router) {
		r.virtual = s
	}
}

// NewRouter wires the default backends on the host filesystem; options
// replace individual backends.
func NewRouter(logger *zap.Logger, opts ...Option) *Router {
	osFs := afero.NewOsFs()
	r := &Router{
		lpr:     NewLPR(osFs, os.TempDir(), logger),
		device:  NewDevice(osFs, logger),
		serial:  NewSerial(logger),
		remote:  NewRemote("", logger),
		virtual: NewVirtual(logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Router picks a backend from the shape of the queue name:
//
//	/dev/usb/lp0              raw device node
//	serial:ttyUSB0@9600       serial port, matched by substring
//	http://booth:8000         another instance's /api/spool
//	virtual                   log only
//	anything else             CUPS queue through lpr
type Router struct {
	lpr     Spooler
	device  Spooler
	serial  Spooler
	remote  Spooler
	virtual Spooler
	logger  *zap.Logger
}

func (r *Router) Route(queue string) (Spooler, string) {
	switch {
	case strings.HasPrefix(queue, DevicePrefix):
		return r.device, "device"
	case strings.HasPrefix(queue, SerialPrefix):
		return r.serial, "serial"
	case strings.HasPrefix(queue, "http://"), strings.HasPrefix(queue, "https://"):
		return r.remote, "remote"
	case queue == VirtualQueue:
		return r.virtual, "virtual"
	}
	return r.lpr, "lpr"
}

func (r *Router) Spool(ctx context.Context, queue string, payload []byte) error {
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return notAttempted(errors.New("no printer queue configured"))
	}

	s, backend := r.Route(queue)
	log := r.logger.With(zap.String("queue", queue), zap.String("backend", backend), zap.Int("bytes", len(payload)))

	if err := s.Spool(ctx, queue, payload); err != nil {
		if !fault.Is(err, fault.KindDispatch) {
			err = failed(err)
		}
		log.With(zap.Error(err), zap.Bool("attempted", Attempted(err))).Warn("spool failed")
		return err
	}

	log.Info("spooled")
	return nil
}
