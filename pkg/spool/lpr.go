package spool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Runner runs an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewLPR spools through `lpr -o raw`. Payloads are staged as files under dir
// on base, since lpr only reads from files or stdin of its own process.
func NewLPR(base afero.Fs, dir string, logger *zap.Logger) *LPR {
	return &LPR{
		fs:     afero.NewBasePathFs(base, dir).(*afero.BasePathFs),
		run:    execRunner,
		logger: logger.With(zap.String("via", "lpr")),
	}
}

type LPR struct {
	fs     *afero.BasePathFs
	run    Runner
	logger *zap.Logger
}

// WithRunner replaces the command runner, for tests.
func (l *LPR) WithRunner(run Runner) *LPR {
	l.run = run
	return l
}

func (l *LPR) newFile() (string, string, error) {
	name := fmt.Sprintf("ditherbooth-%s.raw", xid.New().String())
	path, err := l.fs.RealPath(name)
	return name, path, err
}

func (l *LPR) Spool(ctx context.Context, queue string, payload []byte) error {
	name, path, err := l.newFile()
	if err != nil {
		return notAttempted(errors.Wrap(err, "temp file"))
	}

	if err := afero.WriteFile(l.fs, name, payload, 0600); err != nil {
		return notAttempted(errors.Wrap(err, "write temp file"))
	}
	defer func() {
		if err := l.fs.Remove(name); err != nil {
			l.logger.With(zap.Error(err), zap.String("file", path)).Debug("remove temp failed")
		}
	}()

	out, err := l.run(ctx, "lpr", "-P", queue, "-o", "raw", path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return notAttempted(errors.Wrap(err, "lpr"))
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return failed(errors.Wrap(err, "lpr"))
		}
		return failed(errors.Wrapf(err, "lpr: %s", msg))
	}

	return nil
}
