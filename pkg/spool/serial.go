package spool

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

const DefaultBaudRate = 9600

type SerialOptions struct {
	DTR      bool
	RTS      bool
	BaudRate int
}

type port interface {
	io.WriteCloser
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
	Drain() error
}

func NewSerial(logger *zap.Logger) *Serial {
	return &Serial{
		ports: serial.GetPortsList,
		open: func(name string, mode *serial.Mode) (port, error) {
			return serial.Open(name, mode)
		},
		logger: logger.With(zap.String("via", "serial")),
	}
}

// Serial writes to a printer attached to a serial or USB CDC port. Queues look
// like serial:ttyUSB0 or serial:usbserial@19200; the name is matched as a
// substring of the available ports.
type Serial struct {
	ports  func() ([]string, error)
	open   func(name string, mode *serial.Mode) (port, error)
	logger *zap.Logger
}

// ParseSerialQueue splits serial:<port>[@baud].
func ParseSerialQueue(queue string) (string, SerialOptions, error) {
	opts := SerialOptions{DTR: true, RTS: true, BaudRate: DefaultBaudRate}

	name := strings.TrimPrefix(queue, SerialPrefix)
	if i := strings.LastIndex(name, "@"); i >= 0 {
		baud, err := strconv.Atoi(name[i+1:])
		if err != nil || baud <= 0 {
			return "", opts, errors.Errorf("invalid baud rate in %q", queue)
		}
		name, opts.BaudRate = name[:i], baud
	}
	if name == "" {
		return "", opts, errors.Errorf("missing port name in %q", queue)
	}

	return name, opts, nil
}

func (s *Serial) match(name string) (string, error) {
	ports, err := s.ports()
	if err != nil {
		return "", err
	}

	for _, p := range ports {
		if strings.Contains(p, name) {
			return p, nil
		}
	}
	return "", errors.Errorf("serial port %q not found", name)
}

func (s *Serial) Spool(ctx context.Context, queue string, payload []byte) error {
	name, opts, err := ParseSerialQueue(queue)
	if err != nil {
		return notAttempted(err)
	}

	matched, err := s.match(name)
	if err != nil {
		return notAttempted(err)
	}

	p, err := s.open(matched, &serial.Mode{BaudRate: opts.BaudRate})
	if err != nil {
		return notAttempted(errors.Wrapf(err, "open %s", matched))
	}

	if err := p.SetDTR(opts.DTR); err != nil {
		_ = p.Close()
		return notAttempted(err)
	}
	if err := p.SetRTS(opts.RTS); err != nil {
		_ = p.Close()
		return notAttempted(err)
	}

	log := s.logger.With(zap.String("port", matched), zap.Int("baud", opts.BaudRate))

	if err := writeAll(ctx, p, payload); err != nil {
		return failed(errors.Wrapf(err, "write %s", matched))
	}
	if err := p.Drain(); err != nil {
		log.With(zap.Error(err)).Debug("drain failed")
	}
	if err := p.Close(); err != nil {
		return failed(errors.Wrapf(err, "close %s", matched))
	}

	log.Debug("written")
	return nil
}
