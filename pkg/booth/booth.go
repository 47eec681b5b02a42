package booth

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"ditherbooth/pkg/bitmap"
	"ditherbooth/pkg/config"
	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/label"
	"ditherbooth/pkg/media"
	"ditherbooth/pkg/normalize"
	"ditherbooth/pkg/spool"
	"ditherbooth/pkg/trim"
	"ditherbooth/pkg/worker"
)

// MaxUpload is the largest accepted upload, checked before decoding.
const MaxUpload = 10 << 20

// continuousFormHeight is the Q length sent for continuous EPL stock. The
// printer feeds the whole graphic regardless, so a short form avoids blank
// tape after the image.
const continuousFormHeight = 16

type Request struct {
	Data []byte
	// Media and Lang fall back to the configured defaults when empty.
	Media string
	Lang  string
}

type Result struct {
	Status string     `json:"status"`
	Mode   string     `json:"mode,omitempty"`
	JobID  string     `json:"job_id"`
	Bytes  int        `json:"bytes"`
	Media  media.ID   `json:"media"`
	Lang   media.Lang `json:"lang"`
	Queue  string     `json:"queue,omitempty"`
}

func New(pool *worker.Pool, spooler spool.Spooler, printer string, logger *zap.Logger, opts ...Option) *Booth {
	b := &Booth{
		pool:    pool,
		spooler: spooler,
		printer: printer,
		timeout: config.DefaultTimeout,
		trim:    trim.DefaultOptions(),
		sleep:   sleep,
		logger:  logger.With(zap.String("via", "booth")),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.spooler = spool.WithTimeout(b.spooler, b.timeout)
	return b
}

// Booth turns uploads into printed labels. It holds no settings of its own:
// every call gets the snapshot it should honor.
type Booth struct {
	pool    *worker.Pool
	spooler spool.Spooler
	printer string
	timeout time.Duration
	trim    trim.Options
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *zap.Logger
}

func (b *Booth) Printer() string {
	return b.printer
}

type job struct {
	id      string
	profile media.Profile
	lang    media.Lang
	layout  label.Layout
}

func (b *Booth) resolve(st config.Settings, req Request) (*job, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}

	id := st.DefaultMedia
	if req.Media != "" {
		var err error
		if id, err = media.Parse(req.Media); err != nil {
			return nil, err
		}
	}
	profile, ok := media.Lookup(id)
	if !ok {
		return nil, fault.Validationf("media", "unknown media %q", id)
	}

	lang := st.DefaultLang
	if req.Lang != "" {
		var err error
		if lang, err = media.ParseLang(req.Lang); err != nil {
			return nil, err
		}
	}

	return &job{
		id:      xid.New().String(),
		profile: profile,
		lang:    lang,
		layout:  layoutFor(profile, lang, st),
	}, nil
}

func layoutFor(p media.Profile, lang media.Lang, st config.Settings) label.Layout {
	l := label.DefaultLayout()
	if lang != media.EPL {
		return l
	}

	l.Darkness, l.Speed = st.EPLDarkness, st.EPLSpeed
	if p.Continuous() {
		l.FormHeight = continuousFormHeight
		l.Gap = lo.ToPtr(0)
	} else {
		l.FormHeight = p.MaxDotHeight
		l.Gap = nil
	}
	return l
}

func checkSize(data []byte) error {
	if len(data) > MaxUpload {
		return fault.Oversize(int64(len(data)), MaxUpload)
	}
	return nil
}

func (j *job) normalizeOptions() normalize.Options {
	return normalize.Options{
		Width:     j.profile.DotWidth,
		MaxHeight: j.profile.MaxDotHeight,
		Center:    true,
	}
}

// Encode runs the pipeline up to the payload without dispatching it. The
// result carries the resolved media and language.
func (b *Booth) Encode(ctx context.Context, st config.Settings, req Request) (*Result, []byte, error) {
	j, err := b.resolve(st, req)
	if err != nil {
		return nil, nil, err
	}
	if err := checkSize(req.Data); err != nil {
		return nil, nil, err
	}

	var payload *label.Payload
	err = b.pool.Do(ctx, func() error {
		m, err := normalize.Normalize(req.Data, j.normalizeOptions())
		if err != nil {
			return err
		}
		if j.lang == media.EPL && j.profile.Continuous() {
			m = trim.Trailing(m, b.trim)
		}
		payload, err = label.Encode(j.lang, m, j.layout)
		return err
	})
	if err != nil {
		err = asFault(err)
		log := b.logger.With(zap.String("job", j.id), zap.Error(err))
		if fault.KindOf(err) == fault.KindInternal {
			log.With(zap.String("stack", stackOf(err))).Error("encode failed")
		} else {
			log.Info("encode failed")
		}
		return nil, nil, err
	}

	return &Result{
		Status: "ok",
		JobID:  j.id,
		Bytes:  len(payload.Data),
		Media:  j.profile.ID,
		Lang:   j.lang,
	}, payload.Data, nil
}

func (b *Booth) Print(ctx context.Context, st config.Settings, req Request) (*Result, error) {
	res, payload, err := b.Encode(ctx, st, req)
	if err != nil {
		return nil, err
	}

	log := b.logger.With(
		zap.String("job", res.JobID),
		zap.String("media", string(res.Media)),
		zap.String("lang", string(res.Lang)),
		zap.Int("upload", len(req.Data)),
		zap.Int("bytes", res.Bytes),
	)

	if st.TestMode {
		if err := b.sleep(ctx, time.Duration(st.TestModeDelayMs)*time.Millisecond); err != nil {
			return nil, fault.Internal("test mode", err)
		}
		res.Mode = "test"
		log.Info("test mode, not spooled")
		return res, nil
	}

	res.Queue = st.Printer(b.printer)
	if err := b.spooler.Spool(ctx, res.Queue, payload); err != nil {
		if !fault.Is(err, fault.KindDispatch) {
			err = fault.Dispatch(err, true)
		}
		log.With(zap.Error(err), zap.Bool("attempted", spool.Attempted(err))).Warn("print failed")
		return nil, err
	}

	log.With(zap.String("queue", res.Queue)).Info("printed")
	return res, nil
}

// Preview renders the bitmap a print would produce, as a 1-bit PNG. The
// language plays no part in dithering, so only the media is resolved.
func (b *Booth) Preview(ctx context.Context, st config.Settings, req Request) ([]byte, error) {
	req.Lang = ""
	j, err := b.resolve(st, req)
	if err != nil {
		return nil, err
	}
	if err := checkSize(req.Data); err != nil {
		return nil, err
	}

	var m *bitmap.Mono
	err = b.pool.Do(ctx, func() error {
		var err error
		m, err = normalize.Normalize(req.Data, j.normalizeOptions())
		return err
	})
	if err != nil {
		return nil, asFault(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, m.Paletted()); err != nil {
		return nil, fault.Internal("preview", err)
	}
	return buf.Bytes(), nil
}

// asFault keeps typed errors and turns anything else, like a cancelled
// context while waiting for a worker, into an internal one.
func asFault(err error) error {
	var e *fault.Error
	if errors.As(err, &e) {
		return err
	}
	return fault.Internal("booth", err)
}

// stackOf formats the wrapped error with the stack recorded when it was
// classified.
func stackOf(err error) string {
	var e *fault.Error
	if errors.As(err, &e) {
		return fmt.Sprintf("%+v", e.Err)
	}
	return fmt.Sprintf("%+v", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
