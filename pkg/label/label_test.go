package label

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ditherbooth/pkg/bitmap"
	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
)

func allDark(w, h int) *bitmap.Mono {
	m := bitmap.NewMono(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetDark(x, y, true)
		}
	}
	return m
}

func TestEPLAllDark(t *testing.T) {
	got, err := EPL(allDark(8, 8), DefaultLayout())
	require.NoError(t, err)

	want := append([]byte("N\nq8\nQ8,24\nGW20,20,1,8,"), make([]byte, 8)...)
	want = append(want, "\nP1\n"...)
	assert.Equal(t, want, got)
}

func TestZPLAllDark(t *testing.T) {
	got, err := ZPL(allDark(8, 8), DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, "^XA^FO20,20^GFA,8,8,1,FFFFFFFFFFFFFFFF^FS^XZ", string(got))
}

func TestEPLContinuousHeader(t *testing.T) {
	l := DefaultLayout()
	l.Darkness = lo.ToPtr(8)
	l.Speed = lo.ToPtr(2)
	l.FormHeight = 16
	l.Gap = lo.ToPtr(0)

	got, err := EPL(bitmap.NewMono(463, 3), l)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte("N\nD8\nS2\nq463\nQ16,0\nGW20,20,58,3,")), "%q", got[:40])
	assert.True(t, bytes.HasSuffix(got, []byte("\nP1\n")))
}

func TestEPLGapOmitted(t *testing.T) {
	l := DefaultLayout()
	l.Gap = nil
	l.FormHeight = 240

	got, err := EPL(bitmap.NewMono(400, 240), l)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte("N\nq400\nQ240\nGW20,20,50,240,")))
}

func TestRowBytes(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		w, h := 1+r.Intn(90), 1+r.Intn(30)
		m := bitmap.NewMono(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.SetDark(x, y, r.Intn(2) == 0)
			}
		}
		rowBytes := (w + 7) / 8

		t.Run(fmt.Sprintf("%dx%d", w, h), func(t *testing.T) {
			epl, err := EPL(m, DefaultLayout())
			require.NoError(t, err)
			header := fmt.Sprintf("N\nq%d\nQ%d,24\nGW20,20,%d,%d,", w, h, rowBytes, h)
			require.True(t, bytes.HasPrefix(epl, []byte(header)))
			assert.Len(t, epl, len(header)+rowBytes*h+len("\nP1\n"))

			zpl, err := ZPL(m, DefaultLayout())
			require.NoError(t, err)
			total := rowBytes * h
			prefix := fmt.Sprintf("^XA^FO20,20^GFA,%d,%d,%d,", total, total, rowBytes)
			require.True(t, strings.HasPrefix(string(zpl), prefix))
			body := strings.TrimSuffix(strings.TrimPrefix(string(zpl), prefix), "^FS^XZ")
			assert.Len(t, body, 2*total)
			assert.Equal(t, strings.ToUpper(body), body)
		})
	}
}

func TestEncodersArePure(t *testing.T) {
	m := allDark(17, 5)
	m.SetDark(3, 2, false)
	l := DefaultLayout()
	l.Darkness = lo.ToPtr(15)

	for _, lang := range []media.Lang{media.EPL, media.ZPL} {
		a, err := Encode(lang, m, l)
		require.NoError(t, err)
		b, err := Encode(lang, m, l)
		require.NoError(t, err)
		assert.Equal(t, a.Data, b.Data)
		assert.Equal(t, lang, a.Lang)
	}
	assert.False(t, m.Dark(3, 2))
	assert.Equal(t, 15, *l.Darkness)
}

func TestRejectsNonMonochrome(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	gray.SetGray(0, 0, color.Gray{Y: 128})

	for _, lang := range []media.Lang{media.EPL, media.ZPL} {
		_, err := Encode(lang, gray, DefaultLayout())
		assert.True(t, fault.Is(err, fault.KindValidation), "%s: %v", lang, err)
	}
}

func TestRejectsOutOfRangeTuning(t *testing.T) {
	tests := []struct {
		name   string
		layout func(l *Layout)
	}{
		{"darkness below", func(l *Layout) { l.Darkness = lo.ToPtr(-1) }},
		{"darkness above", func(l *Layout) { l.Darkness = lo.ToPtr(16) }},
		{"speed below", func(l *Layout) { l.Speed = lo.ToPtr(0) }},
		{"speed above", func(l *Layout) { l.Speed = lo.ToPtr(7) }},
		{"negative offset", func(l *Layout) { l.X = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := DefaultLayout()
			tc.layout(&l)
			_, err := EPL(allDark(8, 1), l)
			assert.True(t, fault.Is(err, fault.KindValidation))
			_, err = ZPL(allDark(8, 1), l)
			assert.True(t, fault.Is(err, fault.KindValidation))
		})
	}

	l := DefaultLayout()
	l.Darkness, l.Speed = lo.ToPtr(0), lo.ToPtr(6)
	_, err := EPL(allDark(8, 1), l)
	assert.NoError(t, err)
}

func TestEncodeUnknownLang(t *testing.T) {
	_, err := Encode(media.Lang("CPCL"), allDark(8, 1), DefaultLayout())
	assert.True(t, fault.Is(err, fault.KindValidation))
}
