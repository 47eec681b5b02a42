package bitmap

// Polarity selects which pixel value is written as a set bit.
type Polarity int

const (
	DarkIsOne Polarity = iota
	WhiteIsOne
)

const bitsPerByte = 8

func RowBytes(width int) int {
	return (width + bitsPerByte - 1) / bitsPerByte
}

// Pack writes m row by row, 8 pixels per byte with the leftmost pixel in the
// most significant bit. Padding bits at the end of a row are always 0,
// whatever the polarity.
func Pack(m *Mono, polarity Polarity) []byte {
	width, height := m.Width(), m.Height()
	stride := RowBytes(width)
	data := make([]byte, stride*height)

	for y := 0; y < height; y++ {
		row := m.Row(y)
		out := data[y*stride : (y+1)*stride]
		for x, v := range row {
			if (v == 1) == (polarity == DarkIsOne) {
				out[x/bitsPerByte] |= 0x80 >> uint(x%bitsPerByte)
			}
		}
	}

	return data
}
