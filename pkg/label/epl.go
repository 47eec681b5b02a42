package label

import (
	"bytes"
	"fmt"
	"image"

	"ditherbooth/pkg/bitmap"
)

// EPL renders img as an EPL2 GW graphic. EPL treats a set bit as white, so
// the bitmap is packed with WhiteIsOne.
func EPL(img image.Image, l Layout) ([]byte, error) {
	m, err := bitmap.FromImage(img)
	if err != nil {
		return nil, err
	}
	if err := l.validate(); err != nil {
		return nil, err
	}

	w, h := m.Width(), m.Height()
	formHeight := h
	if l.FormHeight > 0 {
		formHeight = l.FormHeight
	}

	var buf bytes.Buffer
	buf.WriteString("N\n")
	if l.Darkness != nil {
		fmt.Fprintf(&buf, "D%d\n", *l.Darkness)
	}
	if l.Speed != nil {
		fmt.Fprintf(&buf, "S%d\n", *l.Speed)
	}
	fmt.Fprintf(&buf, "q%d\n", w)
	if l.Gap != nil {
		fmt.Fprintf(&buf, "Q%d,%d\n", formHeight, *l.Gap)
	} else {
		fmt.Fprintf(&buf, "Q%d\n", formHeight)
	}
	fmt.Fprintf(&buf, "GW%d,%d,%d,%d,", l.X, l.Y, bitmap.RowBytes(w), h)
	buf.Write(bitmap.Pack(m, bitmap.WhiteIsOne))
	buf.WriteString("\nP1\n")

	return buf.Bytes(), nil
}
