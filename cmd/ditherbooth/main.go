package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ditherbooth/pkg/booth"
	"ditherbooth/pkg/bot"
	"ditherbooth/pkg/config"
	"ditherbooth/pkg/logger"
	"ditherbooth/pkg/server"
	"ditherbooth/pkg/spool"
	"ditherbooth/pkg/worker"
)

func main() {
	flags := flag.NewFlagSet("ditherbooth", flag.ExitOnError)
	config.RegisterFlags(flags)

	opts, err := config.Load(flags, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	fx.New(
		fx.Supply(opts),
		fx.Provide(
			func(o *config.Options) (*zap.Logger, error) {
				return logger.New(logger.Config{Level: o.LogLevel, Format: o.LogFormat})
			},
			func(o *config.Options, l *zap.Logger) *config.Store {
				return config.NewStore(afero.NewOsFs(), o.ConfigPath, l)
			},
			func(o *config.Options) *worker.Pool {
				return worker.New(o.Workers)
			},
			func(o *config.Options, l *zap.Logger) spool.Spooler {
				return spool.NewRouter(l, spool.WithRemote(spool.NewRemote(o.RemotePassword, l)))
			},
			func(o *config.Options, p *worker.Pool, s spool.Spooler, l *zap.Logger) *booth.Booth {
				return booth.New(p, s, o.Printer, l, booth.WithSpoolTimeout(o.SpoolTimeout))
			},
			func(o *config.Options, b *booth.Booth, st *config.Store, s spool.Spooler, l *zap.Logger) *server.Server {
				return server.New(b, st, s, server.Options{DevPassword: o.DevPassword, SpoolTimeout: o.SpoolTimeout}, l)
			},
			func(o *config.Options) *http.Server {
				return &http.Server{Addr: o.Listen}
			},
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Invoke(
			server.Serve,
			startBot,
			logStartup,
		),
	).Run()
}

func startBot(o *config.Options, b *booth.Booth, st *config.Store, l *zap.Logger, lifecycle fx.Lifecycle) error {
	if o.TgToken == "" {
		return nil
	}

	tb, err := bot.NewBot(o.TgToken, b, st, l)
	if err != nil {
		return err
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tb.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			tb.Stop()
			return nil
		},
	})
	return nil
}

func logStartup(o *config.Options, st *config.Store, l *zap.Logger) {
	l.With(
		zap.String("printer", o.Printer),
		zap.String("settings", st.Path()),
		zap.Int("workers", o.Workers),
		zap.Duration("spool-timeout", o.SpoolTimeout),
		zap.Bool("telegram", o.TgToken != ""),
	).Info("starting")
}
