package media

import (
	"strings"

	"github.com/samber/lo"

	"ditherbooth/pkg/fault"
)

type ID string

const (
	Continuous58 ID = "continuous58"
	Continuous80 ID = "continuous80"
	Label100x150 ID = "label100x150"
	Label55x30   ID = "label55x30"
	Label50x30   ID = "label50x30"
)

// Profile describes a media kind in dots at the printer's native resolution.
// MaxDotHeight is 0 for continuous stock.
type Profile struct {
	ID           ID
	DotWidth     int
	MaxDotHeight int
}

func (p Profile) Continuous() bool {
	return p.MaxDotHeight == 0
}

var catalog = []Profile{
	{ID: Continuous58, DotWidth: 463},
	{ID: Continuous80, DotWidth: 640},
	{ID: Label100x150, DotWidth: 800, MaxDotHeight: 1200},
	{ID: Label55x30, DotWidth: 440, MaxDotHeight: 240},
	{ID: Label50x30, DotWidth: 400, MaxDotHeight: 240},
}

func Lookup(id ID) (Profile, bool) {
	return lo.Find(catalog, func(p Profile) bool { return p.ID == id })
}

func Parse(s string) (ID, error) {
	id := ID(strings.TrimSpace(s))
	if _, ok := Lookup(id); !ok {
		return "", fault.Validationf("media", "unknown media %q", s)
	}
	return id, nil
}

func IDs() []string {
	return lo.Map(catalog, func(p Profile, _ int) string { return string(p.ID) })
}

type Dimension struct {
	Width  int  `json:"width"`
	Height *int `json:"height,omitempty"`
}

func Dimensions() map[string]Dimension {
	return lo.SliceToMap(catalog, func(p Profile) (string, Dimension) {
		d := Dimension{Width: p.DotWidth}
		if !p.Continuous() {
			d.Height = lo.ToPtr(p.MaxDotHeight)
		}
		return string(p.ID), d
	})
}
