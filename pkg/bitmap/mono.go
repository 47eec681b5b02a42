package bitmap

import (
	"image"
	"image/color"
	"image/draw"

	"ditherbooth/pkg/fault"
)

var _ draw.Image = (*Mono)(nil)

func NewMono(width, height int) *Mono {
	return &Mono{
		pixels: make([]byte, width*height),
		stride: width,
		bounds: image.Rect(0, 0, width, height),
	}
}

// Mono is a 1-bit image, one byte per pixel where 1 means dark. It implements
// the draw.Image interface so the dithered result can be previewed as PNG.
type Mono struct {
	pixels []byte
	stride int
	bounds image.Rectangle
}

func (m *Mono) Width() int {
	return m.bounds.Dx()
}

func (m *Mono) Height() int {
	return m.bounds.Dy()
}

// Bounds implements the image.Image interface.
func (m *Mono) Bounds() image.Rectangle {
	return m.bounds
}

// ColorModel implements the image.Image interface.
func (m *Mono) ColorModel() color.Model {
	return Model
}

// At implements the image.Image interface.
func (m *Mono) At(x, y int) color.Color {
	if m.Dark(x, y) {
		return color.Black
	}
	return color.White
}

// Set implements the draw.Image interface.
func (m *Mono) Set(x, y int, c color.Color) {
	m.SetDark(x, y, isDark(c))
}

func (m *Mono) Dark(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(m.bounds) {
		return false
	}
	return m.pixels[y*m.stride+x] == 1
}

func (m *Mono) SetDark(x, y int, dark bool) {
	if !(image.Point{X: x, Y: y}).In(m.bounds) {
		return
	}
	var v byte
	if dark {
		v = 1
	}
	m.pixels[y*m.stride+x] = v
}

// Row returns the pixels of row y; 1 means dark. The slice aliases the image.
func (m *Mono) Row(y int) []byte {
	return m.pixels[y*m.stride : y*m.stride+m.Width()]
}

// Crop keeps the top height rows. The result shares pixel memory with m and
// is never taller than m or shorter than one row.
func (m *Mono) Crop(height int) *Mono {
	if height > m.Height() {
		height = m.Height()
	}
	if height < 1 {
		height = 1
	}
	return &Mono{
		pixels: m.pixels[:height*m.stride],
		stride: m.stride,
		bounds: image.Rect(0, 0, m.Width(), height),
	}
}

// Paletted copies m into a two colour paletted image, which PNG encodes at
// one bit per pixel.
func (m *Mono) Paletted() *image.Paletted {
	p := image.NewPaletted(m.bounds, color.Palette{color.White, color.Black})
	for y := 0; y < m.Height(); y++ {
		copy(p.Pix[y*p.Stride:y*p.Stride+m.Width()], m.Row(y))
	}
	return p
}

// Model maps any colour onto black or white by luminance.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	if isDark(c) {
		return color.Black
	}
	return color.White
})

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 0x80
}

// FromImage accepts an image that is already two-tone. Intensity images are
// rejected instead of being thresholded.
func FromImage(img image.Image) (*Mono, error) {
	switch src := img.(type) {
	case *Mono:
		return src, nil
	case *image.Paletted:
		return fromPaletted(src)
	case nil:
		return nil, fault.Validationf("bitmap", "nil image")
	}
	return nil, fault.Validationf("bitmap", "image must be 1-bit, got %T", img)
}

func fromPaletted(p *image.Paletted) (*Mono, error) {
	if len(p.Palette) != 2 {
		return nil, fault.Validationf("bitmap", "image must be 1-bit, palette has %d colours", len(p.Palette))
	}

	var dark [2]bool
	for i, c := range p.Palette {
		g := color.GrayModel.Convert(c).(color.Gray).Y
		if g != 0 && g != 0xFF {
			return nil, fault.Validationf("bitmap", "image must be black and white, palette has gray %d", g)
		}
		dark[i] = g == 0
	}
	if dark[0] == dark[1] {
		return nil, fault.Validationf("bitmap", "image must be black and white")
	}

	b := p.Bounds()
	m := NewMono(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m.SetDark(x, y, dark[p.ColorIndexAt(b.Min.X+x, b.Min.Y+y)&1])
		}
	}
	return m, nil
}
