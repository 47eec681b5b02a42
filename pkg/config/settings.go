package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
)

// Settings is the persisted runtime configuration. A value is loaded fresh
// for every request and passed down by parameter; nothing mutates it in place.
type Settings struct {
	DefaultMedia    media.ID   `json:"default_media" validate:"media"`
	DefaultLang     media.Lang `json:"default_lang" validate:"lang"`
	TestMode        bool       `json:"test_mode"`
	TestModeDelayMs int        `json:"test_mode_delay_ms" validate:"gte=0"`
	LockControls    bool       `json:"lock_controls"`
	PrinterName     *string    `json:"printer_name,omitempty"`
	EPLDarkness     *int       `json:"epl_darkness,omitempty" validate:"omitempty,min=0,max=15"`
	EPLSpeed        *int       `json:"epl_speed,omitempty" validate:"omitempty,min=1,max=6"`
}

func Defaults() Settings {
	return Settings{
		DefaultMedia: media.Continuous80,
		DefaultLang:  media.EPL,
	}
}

// Clone returns a deep copy, so the optional fields never alias.
func (s Settings) Clone() Settings {
	c := s
	if s.PrinterName != nil {
		c.PrinterName = lo.ToPtr(*s.PrinterName)
	}
	if s.EPLDarkness != nil {
		c.EPLDarkness = lo.ToPtr(*s.EPLDarkness)
	}
	if s.EPLSpeed != nil {
		c.EPLSpeed = lo.ToPtr(*s.EPLSpeed)
	}
	return c
}

// Printer returns the configured queue override, or fallback when unset.
func (s Settings) Printer(fallback string) string {
	if s.PrinterName != nil && *s.PrinterName != "" {
		return *s.PrinterName
	}
	return fallback
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("media", func(fl validator.FieldLevel) bool {
		_, ok := media.Lookup(media.ID(fl.Field().String()))
		return ok
	})
	_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
		return lo.Contains(media.Langs(), fl.Field().String())
	})
	return v
}

// Validate rejects out of range values instead of clamping them.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fault.Internal("settings", err)
	}
	return fault.Validation("settings", errors.New(message(verrs[0])))
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "media":
		return e.Field() + " must be one of: " + strings.Join(media.IDs(), ", ")
	case "lang":
		return e.Field() + " must be one of: " + strings.Join(media.Langs(), ", ")
	case "min", "gte":
		return e.Field() + " must be at least " + e.Param()
	case "max", "lte":
		return e.Field() + " must be at most " + e.Param()
	}
	return e.Field() + " is invalid"
}
