package normalize

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"ditherbooth/pkg/bitmap"
	"ditherbooth/pkg/fault"
)

type Options struct {
	// Width is the exact width of the result in dots.
	Width int
	// MaxHeight bounds the scaled height; 0 leaves it unbounded.
	MaxHeight int
	// Center pastes the scaled image in the middle of the canvas instead of
	// on the left edge.
	Center bool
}

var palette = []color.Color{color.Black, color.White}

// Normalize turns encoded image bytes into a dithered bitmap exactly
// opts.Width dots wide.
func Normalize(data []byte, opts Options) (*bitmap.Mono, error) {
	if opts.Width <= 0 {
		return nil, fault.Validationf("normalize", "width must be positive, got %d", opts.Width)
	}
	if opts.MaxHeight < 0 {
		return nil, fault.Validationf("normalize", "max height must not be negative, got %d", opts.MaxHeight)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fault.Decode(err)
	}

	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, fault.Decode(errors.Errorf("empty image %dx%d", sb.Dx(), sb.Dy()))
	}

	gray := imaging.Grayscale(src)
	w, h := Fit(sb.Dx(), sb.Dy(), opts.Width, opts.MaxHeight)
	resized := imaging.Resize(gray, w, h, imaging.Lanczos)

	x := 0
	if opts.Center {
		x = (opts.Width - w) / 2
	}
	canvas := imaging.Paste(imaging.New(opts.Width, h, color.White), resized, image.Pt(x, 0))

	return Dither(canvas)
}

// Fit scales srcW x srcH to width, or to fit inside width x maxHeight when
// maxHeight is set, keeping the aspect ratio. Both results are at least 1.
func Fit(srcW, srcH, width, maxHeight int) (int, int) {
	scale := float64(width) / float64(srcW)
	if maxHeight > 0 {
		scale = math.Min(scale, float64(maxHeight)/float64(srcH))
	}

	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	return max(1, min(w, width)), max(1, h)
}

// Dither quantizes img to black and white with Floyd-Steinberg error
// diffusion.
func Dither(img image.Image) (*bitmap.Mono, error) {
	d := dither.NewDitherer(palette)
	if d == nil {
		return nil, fault.Internal("dither", errors.New("invalid palette"))
	}
	d.Matrix = dither.FloydSteinberg

	return bitmap.FromImage(d.DitherPaletted(img))
}
