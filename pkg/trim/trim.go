package trim

import (
	"math"

	"ditherbooth/pkg/bitmap"
)

const (
	DefaultMargin  = 8
	DefaultDensity = 0.01

	// minDarkPixels keeps isolated dither speckles from counting as content.
	minDarkPixels = 3
)

type Options struct {
	// Margin is the number of blank rows kept below the last content row.
	Margin int
	// Density is the fraction of a row that has to be dark for the row to
	// count as content.
	Density float64
}

func DefaultOptions() Options {
	return Options{Margin: DefaultMargin, Density: DefaultDensity}
}

// Trailing crops blank rows off the bottom of m. The result is never taller
// than m and never shorter than one row, because the printer rejects an
// empty form.
func Trailing(m *bitmap.Mono, opts Options) *bitmap.Mono {
	threshold := math.Max(minDarkPixels, float64(m.Width())*opts.Density)
	margin := max(0, opts.Margin)

	for y := m.Height() - 1; y >= 0; y-- {
		if float64(darkCount(m.Row(y))) >= threshold {
			return m.Crop(min(m.Height(), y+1+margin))
		}
	}

	return m.Crop(1)
}

func darkCount(row []byte) int {
	n := 0
	for _, v := range row {
		n += int(v)
	}
	return n
}
