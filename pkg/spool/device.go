package spool

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func NewDevice(fs afero.Fs, logger *zap.Logger) *Device {
	return &Device{fs: fs, logger: logger.With(zap.String("via", "device"))}
}

// Device writes the payload straight to a printer device node such as
// /dev/usb/lp0. The node has to exist; it is never created.
type Device struct {
	fs     afero.Fs
	logger *zap.Logger
}

func (d *Device) Spool(ctx context.Context, queue string, payload []byte) error {
	f, err := d.fs.OpenFile(queue, os.O_WRONLY, 0)
	if err != nil {
		return notAttempted(errors.Wrapf(err, "open %s", queue))
	}

	if err := writeAll(ctx, f, payload); err != nil {
		return failed(errors.Wrapf(err, "write %s", queue))
	}

	if err := f.Close(); err != nil {
		return failed(errors.Wrapf(err, "close %s", queue))
	}

	d.logger.With(zap.String("device", queue)).Debug("written")
	return nil
}
