package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"ditherbooth/pkg/booth"
	"ditherbooth/pkg/config"
	"ditherbooth/pkg/logger"
	"ditherbooth/pkg/spool"
	"ditherbooth/pkg/worker"
)

func main() {
	flags := flag.NewFlagSet("dbprint", flag.ExitOnError)
	config.RegisterFlags(flags)
	mediaID := flags.String("media", "", "media id, defaults to the configured one")
	lang := flags.String("lang", "", "EPL or ZPL, defaults to the configured one")
	out := flags.StringP("out", "o", "", "write the payload to a file (- for stdout) instead of printing")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: dbprint [flags] <image|->\n")
		flags.PrintDefaults()
	}

	opts, err := config.Load(flags, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	l, err := logger.New(logger.Config{Level: opts.LogLevel, Format: opts.LogFormat})
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = l.Sync()
	}()

	data, err := readInput(flags.Arg(0))
	if err != nil {
		l.With(zap.Error(err)).Fatal("read input failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := config.NewStore(afero.NewOsFs(), opts.ConfigPath, l)
	router := spool.NewRouter(l, spool.WithRemote(spool.NewRemote(opts.RemotePassword, l)))
	b := booth.New(worker.New(opts.Workers), router, opts.Printer, l, booth.WithSpoolTimeout(opts.SpoolTimeout))
	req := booth.Request{Data: data, Media: *mediaID, Lang: *lang}

	st, err := store.Load()
	if err != nil {
		l.With(zap.Error(err), zap.String("settings", store.Path())).Fatal("invalid settings")
	}

	if *out != "" {
		res, payload, err := b.Encode(ctx, st, req)
		if err != nil {
			l.With(zap.Error(err)).Fatal("encode failed")
		}
		if err := writeOutput(*out, payload); err != nil {
			l.With(zap.Error(err)).Fatal("write failed")
		}
		l.With(zap.String("media", string(res.Media)), zap.String("lang", string(res.Lang)), zap.Int("bytes", res.Bytes)).Info("written")
		return
	}

	res, err := b.Print(ctx, st, req)
	if err != nil {
		l.With(zap.Error(err), zap.Bool("attempted", spool.Attempted(err))).Fatal("print failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(io.LimitReader(os.Stdin, booth.MaxUpload+1))
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	bar := progressbar.DefaultBytes(st.Size(), fmt.Sprintf("reading %s", name))
	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), io.LimitReader(f, booth.MaxUpload+1)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeOutput(name string, payload []byte) error {
	if name == "-" {
		_, err := os.Stdout.Write(payload)
		return err
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(int64(len(payload)), fmt.Sprintf("writing %s", name))
	if _, err := io.Copy(io.MultiWriter(f, bar), bytes.NewReader(payload)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
