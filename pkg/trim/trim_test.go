package trim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"ditherbooth/pkg/bitmap"
)

func fillRow(m *bitmap.Mono, y, n int) {
	for x := 0; x < n; x++ {
		m.SetDark(x, y, true)
	}
}

func TestTrailing(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *bitmap.Mono
		opts   Options
		height int
	}{
		{
			name: "content then blank tail",
			build: func() *bitmap.Mono {
				m := bitmap.NewMono(100, 50)
				fillRow(m, 10, 100)
				return m
			},
			opts:   Options{Margin: 5, Density: 0.01},
			height: 16,
		},
		{
			name: "margin clipped to original height",
			build: func() *bitmap.Mono {
				m := bitmap.NewMono(100, 20)
				fillRow(m, 18, 100)
				return m
			},
			opts:   Options{Margin: 8, Density: 0.01},
			height: 20,
		},
		{
			name: "blank bitmap keeps one row",
			build: func() *bitmap.Mono {
				return bitmap.NewMono(100, 20)
			},
			opts:   DefaultOptions(),
			height: 1,
		},
		{
			name: "speckles below the floor of three pixels are ignored",
			build: func() *bitmap.Mono {
				m := bitmap.NewMono(100, 40)
				fillRow(m, 5, 50)
				fillRow(m, 30, 2)
				return m
			},
			opts:   Options{Margin: 0, Density: 0},
			height: 6,
		},
		{
			name: "three pixels meet the floor",
			build: func() *bitmap.Mono {
				m := bitmap.NewMono(100, 40)
				fillRow(m, 30, 3)
				return m
			},
			opts:   Options{Margin: 0, Density: 0.01},
			height: 31,
		},
		{
			name: "density above the floor on wide rows",
			build: func() *bitmap.Mono {
				m := bitmap.NewMono(1000, 40)
				fillRow(m, 5, 10)
				fillRow(m, 30, 9)
				return m
			},
			opts:   Options{Margin: 2, Density: 0.01},
			height: 8,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Trailing(tc.build(), tc.opts)
			assert.Equal(t, tc.height, got.Height())
		})
	}
}

func TestTrailingNeverGrowsNorEmpties(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		m := bitmap.NewMono(1+r.Intn(64), 1+r.Intn(64))
		for y := 0; y < m.Height(); y++ {
			for x := 0; x < m.Width(); x++ {
				m.SetDark(x, y, r.Intn(10) == 0)
			}
		}
		got := Trailing(m, Options{Margin: r.Intn(20), Density: r.Float64() * 0.2})
		assert.LessOrEqual(t, got.Height(), m.Height())
		assert.GreaterOrEqual(t, got.Height(), 1)
		assert.Equal(t, m.Width(), got.Width())
	}
}
