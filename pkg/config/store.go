package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
)

func NewStore(fs afero.Fs, path string, logger *zap.Logger) *Store {
	return &Store{
		fs:     fs,
		path:   path,
		logger: logger.With(zap.String("via", "settings"), zap.String("path", path)),
	}
}

// Store persists Settings as a JSON file. Readers never share a value: every
// Load decodes the file again.
type Store struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger

	// mu serializes read-modify-write cycles of Update.
	mu sync.Mutex
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the current settings merged over the defaults. A missing or
// corrupt file yields the defaults. Values that decode but fail validation
// are rejected, never replaced.
func (s *Store) Load() (Settings, error) {
	st := s.read()
	if err := st.Validate(); err != nil {
		s.logger.With(zap.Error(err)).Warn("invalid settings")
		return Settings{}, err
	}
	return st, nil
}

// read decodes the file without validating it, so Update can repair a file
// that Load rejects.
func (s *Store) read() Settings {
	bs, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.With(zap.Error(err)).Warn("read failed, using defaults")
		}
		return Defaults()
	}

	st := Defaults()
	if err := json.Unmarshal(bs, &st); err != nil {
		s.logger.With(zap.Error(err)).Warn("decode failed, using defaults")
		return Defaults()
	}
	return st
}

// Save validates st and replaces the file atomically through a rename.
func (s *Store) Save(st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}

	bs, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fault.Internal("settings", err)
	}

	dir := filepath.Dir(s.path)
	if exists, err := afero.DirExists(s.fs, dir); err != nil {
		return fault.Internal("settings", err)
	} else if !exists {
		if err2 := s.fs.MkdirAll(dir, 0755); err2 != nil {
			return fault.Internal("settings", err2)
		}
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(s.path), xid.New().String()))
	if err := afero.WriteFile(s.fs, tmp, bs, 0644); err != nil {
		return fault.Internal("settings", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fault.Internal("settings", err)
	}

	s.logger.Debug("saved")
	return nil
}

// Update applies a partial patch keyed by JSON field name and saves the
// result. Unknown keys are ignored. The patched settings are validated as a
// whole, so a patch can repair a file that Load rejects.
func (s *Store) Update(patch map[string]json.RawMessage) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.read()
	if err := applyPatch(&st, patch); err != nil {
		return Settings{}, err
	}
	if err := s.Save(st); err != nil {
		return Settings{}, err
	}
	return st, nil
}

func applyPatch(st *Settings, patch map[string]json.RawMessage) error {
	for key, raw := range patch {
		null := isNull(raw)

		switch key {
		case "test_mode":
			if err := decodeBool(key, raw, &st.TestMode); err != nil {
				return err
			}
		case "lock_controls":
			if err := decodeBool(key, raw, &st.LockControls); err != nil {
				return err
			}
		case "default_media":
			if null {
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return invalid(key, "must be a string")
			}
			id, err := media.Parse(v)
			if err != nil {
				return invalid(key, "unknown media %q", v)
			}
			st.DefaultMedia = id
		case "default_lang":
			if null {
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return invalid(key, "must be a string")
			}
			lang, err := media.ParseLang(v)
			if err != nil {
				return invalid(key, "unknown language %q", v)
			}
			st.DefaultLang = lang
		case "printer_name":
			if null {
				st.PrinterName = nil
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return invalid(key, "must be a string")
			}
			if v == "" {
				st.PrinterName = nil
			} else {
				st.PrinterName = &v
			}
		case "test_mode_delay_ms":
			if null {
				st.TestModeDelayMs = 0
				continue
			}
			var v int
			if err := json.Unmarshal(raw, &v); err != nil {
				return invalid(key, "must be an integer")
			}
			if v < 0 {
				return invalid(key, "must be at least 0")
			}
			st.TestModeDelayMs = v
		case "epl_darkness":
			if err := decodeRange(key, raw, 0, 15, &st.EPLDarkness); err != nil {
				return err
			}
		case "epl_speed":
			if err := decodeRange(key, raw, 1, 6, &st.EPLSpeed); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func decodeBool(key string, raw json.RawMessage, dst *bool) error {
	if isNull(raw) {
		*dst = false
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid(key, "must be a boolean")
	}
	return nil
}

// decodeRange sets dst to an integer in [lo, hi]; null clears it.
func decodeRange(key string, raw json.RawMessage, lo, hi int, dst **int) error {
	if isNull(raw) {
		*dst = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return invalid(key, "must be an integer")
	}
	if v < lo || v > hi {
		return invalid(key, "must be between %d and %d", lo, hi)
	}
	*dst = &v
	return nil
}

func invalid(key, format string, args ...interface{}) error {
	return fault.Validation("settings", errors.Errorf("%s %s", key, fmt.Sprintf(format, args...)))
}
