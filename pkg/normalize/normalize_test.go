package normalize

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ditherbooth/pkg/fault"
)

func solid(t *testing.T, w, h int, c color.Color) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// withOrientation splices a minimal big-endian EXIF APP1 segment carrying
// only the orientation tag right after the JPEG SOI marker.
func withOrientation(jpg []byte, o uint16) []byte {
	app1 := []byte{
		0xFF, 0xE1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0, 0,
		'M', 'M', 0x00, 0x2A, 0, 0, 0, 8,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0, 0, 0, 1, byte(o >> 8), byte(o), 0, 0,
		0, 0, 0, 0,
	}
	out := append([]byte{}, jpg[:2]...)
	out = append(out, app1...)
	return append(out, jpg[2:]...)
}

func TestNormalizeBlackImage(t *testing.T) {
	data := pngBytes(t, solid(t, 10, 5, color.Black))

	m, err := Normalize(data, Options{Width: 20, Center: true})
	require.NoError(t, err)
	assert.Equal(t, 20, m.Width())
	assert.Equal(t, 10, m.Height())
	assert.True(t, m.Dark(0, 0))
	assert.True(t, m.Dark(19, 9))
}

func TestNormalizeWidthIsExact(t *testing.T) {
	sources := [][2]int{{1, 1}, {3, 120}, {120, 3}, {300, 200}, {17, 33}}
	widths := []int{1, 7, 8, 463, 640}

	for _, s := range sources {
		data := pngBytes(t, solid(t, s[0], s[1], color.Gray{Y: 100}))
		for _, w := range widths {
			for _, maxH := range []int{0, 240} {
				t.Run(fmt.Sprintf("%dx%d to %d max %d", s[0], s[1], w, maxH), func(t *testing.T) {
					m, err := Normalize(data, Options{Width: w, MaxHeight: maxH, Center: true})
					require.NoError(t, err)
					assert.Equal(t, w, m.Width())
					assert.GreaterOrEqual(t, m.Height(), 1)
					if maxH > 0 {
						assert.LessOrEqual(t, m.Height(), maxH)
					}
				})
			}
		}
	}
}

func TestFitPreservesAspect(t *testing.T) {
	tests := []struct {
		srcW, srcH, width, maxH int
		wantW, wantH            int
	}{
		{300, 200, 463, 0, 463, 309},
		{1000, 1000, 800, 1200, 800, 800},
		{400, 1000, 800, 1200, 480, 1200},
		{4000, 10, 400, 240, 400, 1},
		{10, 4000, 440, 240, 1, 240},
	}

	for _, tc := range tests {
		w, h := Fit(tc.srcW, tc.srcH, tc.width, tc.maxH)
		assert.Equal(t, tc.wantW, w, "%+v", tc)
		assert.Equal(t, tc.wantH, h, "%+v", tc)

		// both axes use one scale factor, so each side is within rounding
		// of the exact value unless clamped to a single dot
		scale := float64(tc.width) / float64(tc.srcW)
		if tc.maxH > 0 {
			scale = math.Min(scale, float64(tc.maxH)/float64(tc.srcH))
		}
		if w > 1 {
			assert.LessOrEqual(t, math.Abs(float64(w)-float64(tc.srcW)*scale), 0.5)
		}
		if h > 1 {
			assert.LessOrEqual(t, math.Abs(float64(h)-float64(tc.srcH)*scale), 0.5)
		}
	}
}

func TestNormalizeCentersOnWhiteCanvas(t *testing.T) {
	data := pngBytes(t, solid(t, 400, 1000, color.Black))

	centered, err := Normalize(data, Options{Width: 800, MaxHeight: 1200, Center: true})
	require.NoError(t, err)
	assert.Equal(t, 800, centered.Width())
	assert.Equal(t, 1200, centered.Height())
	assert.False(t, centered.Dark(10, 600))
	assert.True(t, centered.Dark(400, 600))
	assert.False(t, centered.Dark(790, 600))

	left, err := Normalize(data, Options{Width: 800, MaxHeight: 1200})
	require.NoError(t, err)
	assert.True(t, left.Dark(10, 600))
	assert.False(t, left.Dark(790, 600))
}

func TestNormalizeAppliesOrientation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(t, 40, 20, color.Black), nil))

	plain, err := Normalize(buf.Bytes(), Options{Width: 20})
	require.NoError(t, err)
	assert.Equal(t, 10, plain.Height())

	rotated, err := Normalize(withOrientation(buf.Bytes(), 6), Options{Width: 20})
	require.NoError(t, err)
	assert.Equal(t, 20, rotated.Width())
	assert.Equal(t, 40, rotated.Height())
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for name, data := range map[string][]byte{
		"text":      []byte("not_an_image"),
		"empty":     nil,
		"truncated": pngBytes(t, solid(t, 10, 10, color.White))[:20],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(data, Options{Width: 8})
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindDecode), "got %v", err)
		})
	}
}

func TestNormalizeRejectsBadOptions(t *testing.T) {
	data := pngBytes(t, solid(t, 2, 2, color.White))

	_, err := Normalize(data, Options{Width: 0})
	assert.True(t, fault.Is(err, fault.KindValidation))

	_, err = Normalize(data, Options{Width: 8, MaxHeight: -1})
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestDitherGray(t *testing.T) {
	m, err := Dither(solid(t, 64, 64, color.Gray{Y: 128}))
	require.NoError(t, err)

	dark := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if m.Dark(x, y) {
				dark++
			}
		}
	}
	// mid gray diffuses into a mix, never a flat field
	assert.Greater(t, dark, 0)
	assert.Less(t, dark, 64*64)
}
