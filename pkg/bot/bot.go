package bot

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"ditherbooth/pkg/booth"
	"ditherbooth/pkg/config"
	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
)

func NewBot(token string, b *booth.Booth, store *config.Store, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 30 * time.Second,
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{
		b:      tb,
		booth:  b,
		store:  store,
		logger: logger.With(zap.String("via", "telegram")),
	}, nil
}

// Bot prints photos sent to it in a Telegram chat. The caption may pick the
// media and language, e.g. "label55x30 ZPL".
type Bot struct {
	b      *tele.Bot
	booth  *booth.Booth
	store  *config.Store
	logger *zap.Logger
}

func (b *Bot) handleBase() {
	b.b.Handle("/start", func(context tele.Context) error {
		return context.Reply(strings.Join([]string{
			"Send a photo to print it.",
			"Add a caption to choose the media and language, e.g. label55x30 ZPL.",
			"/media lists the media, /lang the languages.",
		}, "\n"))
	})

	b.b.Handle("/media", func(context tele.Context) error {
		st, err := b.store.Load()
		if err != nil {
			return context.Reply(fmt.Sprintf("settings error: %s", fault.Public(err)))
		}
		return context.Reply(mediaList(st.DefaultMedia))
	})

	b.b.Handle("/lang", func(context tele.Context) error {
		st, err := b.store.Load()
		if err != nil {
			return context.Reply(fmt.Sprintf("settings error: %s", fault.Public(err)))
		}
		def := st.DefaultLang
		lines := lo.Map(media.Langs(), func(l string, _ int) string {
			return lo.Ternary(l == string(def), l+" (default)", l)
		})
		return context.Reply(strings.Join(lines, "\n"))
	})
}

func (b *Bot) handlePrint() {
	b.b.Handle(tele.OnPhoto, func(context tele.Context) error {
		msg := context.Message()
		return b.printFile(context, &msg.Photo.File, msg.Caption)
	})

	b.b.Handle(tele.OnDocument, func(context tele.Context) error {
		msg := context.Message()
		doc := msg.Document
		if !strings.HasPrefix(doc.MIME, "image/") {
			return context.Reply("send a photo or an image file")
		}
		if int64(doc.FileSize) > booth.MaxUpload {
			return context.Reply(fmt.Sprintf("print failed: file too large (%s)", bytesize.New(float64(doc.FileSize))))
		}
		return b.printFile(context, &doc.File, msg.Caption)
	})
}

func (b *Bot) printFile(context tele.Context, file *tele.File, caption string) error {
	rc, err := b.b.File(file)
	if err != nil {
		b.logger.With(zap.Error(err)).Info("download failed")
		return context.Reply(fmt.Sprintf("download failed: %s", err))
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(rc, booth.MaxUpload+1))
	if err != nil {
		return context.Reply(fmt.Sprintf("download failed: %s", err))
	}

	return context.Reply(b.print(data, caption))
}

// print runs one job and returns the reply text.
func (b *Bot) print(data []byte, caption string) string {
	m, l, err := ParseCaption(caption)
	if err != nil {
		return fmt.Sprintf("print failed: %s", fault.Public(err))
	}

	st, err := b.store.Load()
	if err != nil {
		return fmt.Sprintf("print failed: %s", fault.Public(err))
	}

	res, err := b.booth.Print(context.Background(), st, booth.Request{Data: data, Media: m, Lang: l})
	if err != nil {
		b.logger.With(zap.Error(err)).Info("print failed")
		return fmt.Sprintf("print failed: %s", fault.Public(err))
	}

	return describe(res, len(data))
}

// ParseCaption picks a media id and a language out of free text. Either may
// be missing; anything else in the caption is an error.
func ParseCaption(caption string) (string, string, error) {
	var m, l string
	fields := strings.FieldsFunc(caption, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})

	for _, f := range fields {
		if id, err := media.Parse(strings.ToLower(f)); err == nil {
			m = string(id)
			continue
		}
		if lang, err := media.ParseLang(f); err == nil {
			l = string(lang)
			continue
		}
		return "", "", fault.Validationf("caption", "unknown option %q, see /media and /lang", f)
	}

	return m, l, nil
}

func describe(res *booth.Result, upload int) string {
	size := bytesize.New(float64(res.Bytes)).String()
	in := bytesize.New(float64(upload)).String()

	if res.Mode == "test" {
		return fmt.Sprintf("Test mode, not printed: %s %s, %s payload from %s", res.Media, res.Lang, size, in)
	}
	return fmt.Sprintf("Printed on %s: %s %s, %s payload from %s", res.Queue, res.Media, res.Lang, size, in)
}

func mediaList(def media.ID) string {
	dims := media.Dimensions()
	ids := media.IDs()
	sort.SliceStable(ids, func(i, j int) bool { return dims[ids[i]].Width < dims[ids[j]].Width })

	return strings.Join(lo.Map(ids, func(id string, _ int) string {
		d := dims[id]
		line := fmt.Sprintf("%s: %d dots wide", id, d.Width)
		if d.Height != nil {
			line = fmt.Sprintf("%s: %dx%d dots", id, d.Width, *d.Height)
		}
		return lo.Ternary(id == string(def), line+" (default)", line)
	}), "\n")
}

func (b *Bot) Start() {
	b.handleBase()
	b.handlePrint()
	go b.b.Start()
}

func (b *Bot) Stop() {
	// telebot's Stop waits for the poller, which can take a full long poll
	go b.b.Stop()
}
