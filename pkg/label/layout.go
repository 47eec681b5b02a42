package label

import (
	"github.com/samber/lo"

	"ditherbooth/pkg/fault"
)

const (
	DefaultX   = 20
	DefaultY   = 20
	DefaultGap = 24

	MinDarkness = 0
	MaxDarkness = 15
	MinSpeed    = 1
	MaxSpeed    = 6
)

// Layout places the graphic on the form and carries the optional EPL tuning.
// Nil pointers mean the printer keeps its own setting.
type Layout struct {
	X, Y int

	Darkness *int
	Speed    *int

	// Gap is the inter-label gap in dots; nil omits it from the Q command.
	Gap *int
	// FormHeight is the Q form length; 0 uses the bitmap height.
	FormHeight int
}

func DefaultLayout() Layout {
	return Layout{
		X:   DefaultX,
		Y:   DefaultY,
		Gap: lo.ToPtr(DefaultGap),
	}
}

func (l Layout) validate() error {
	if l.X < 0 || l.Y < 0 {
		return fault.Validationf("label", "offset must not be negative, got %d,%d", l.X, l.Y)
	}
	if l.Darkness != nil && (*l.Darkness < MinDarkness || *l.Darkness > MaxDarkness) {
		return fault.Validationf("label", "darkness must be between %d and %d, got %d", MinDarkness, MaxDarkness, *l.Darkness)
	}
	if l.Speed != nil && (*l.Speed < MinSpeed || *l.Speed > MaxSpeed) {
		return fault.Validationf("label", "speed must be between %d and %d, got %d", MinSpeed, MaxSpeed, *l.Speed)
	}
	if l.Gap != nil && *l.Gap < 0 {
		return fault.Validationf("label", "gap must not be negative, got %d", *l.Gap)
	}
	if l.FormHeight < 0 {
		return fault.Validationf("label", "form height must not be negative, got %d", l.FormHeight)
	}
	return nil
}
