package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "DITHERBOOTH"
	DefaultPrinter = "Zebra_LP2844"
	DefaultListen  = ":8000"
	DefaultTimeout = 30 * time.Second
)

// Options are the process level knobs. Unlike Settings they are fixed for the
// lifetime of the process.
type Options struct {
	Listen         string
	ConfigPath     string
	Printer        string
	DevPassword    string
	Workers        int
	SpoolTimeout   time.Duration
	LogLevel       string
	LogFormat      string
	TgToken        string
	RemotePassword string
}

// RegisterFlags adds the shared flags to fs. Every flag can also be set
// through the environment, e.g. --config-path as DITHERBOOTH_CONFIG_PATH.
func RegisterFlags(fs *flag.FlagSet) {
	fs.String("listen", DefaultListen, "listen addr")
	fs.String("config-path", "", "settings file path")
	fs.String("printer", DefaultPrinter, "default printer queue, device, serial: port or remote url")
	fs.String("dev-password", "dev", "password for the dev settings api")
	fs.Int("workers", runtime.GOMAXPROCS(0), "concurrent image jobs")
	fs.Duration("spool-timeout", DefaultTimeout, "printer dispatch timeout")
	fs.String("log-level", "info", "log level")
	fs.String("log-format", "console", "log format, console or json")
	fs.String("tg-token", "", "telegram bot token")
	fs.String("remote-password", "", "dev password of the remote instance for http printers")
}

// Load parses args into fs (which must carry RegisterFlags) and resolves the
// options from flags, environment and an optional .env file.
func Load(fs *flag.FlagSet, args []string) (*Options, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "load .env")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}

	o := &Options{
		Listen:         v.GetString("listen"),
		ConfigPath:     v.GetString("config-path"),
		Printer:        v.GetString("printer"),
		DevPassword:    v.GetString("dev-password"),
		Workers:        v.GetInt("workers"),
		SpoolTimeout:   v.GetDuration("spool-timeout"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		TgToken:        v.GetString("tg-token"),
		RemotePassword: v.GetString("remote-password"),
	}

	if o.ConfigPath == "" {
		o.ConfigPath = DefaultConfigPath()
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.SpoolTimeout <= 0 {
		o.SpoolTimeout = DefaultTimeout
	}

	return o, nil
}

// DefaultConfigPath is $XDG_CONFIG_HOME/ditherbooth/config.json, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "ditherbooth", "config.json")
}
