package label

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"

	"ditherbooth/pkg/bitmap"
)

// ZPL renders img as a ZPL II ^GFA graphic field. Darkness, speed, gap and
// form height are EPL only and ignored here.
func ZPL(img image.Image, l Layout) ([]byte, error) {
	m, err := bitmap.FromImage(img)
	if err != nil {
		return nil, err
	}
	if err := l.validate(); err != nil {
		return nil, err
	}

	rowBytes := bitmap.RowBytes(m.Width())
	total := rowBytes * m.Height()
	packed := bitmap.Pack(m, bitmap.DarkIsOne)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "^XA^FO%d,%d^GFA,%d,%d,%d,", l.X, l.Y, total, total, rowBytes)
	buf.Write(bytes.ToUpper([]byte(hex.EncodeToString(packed))))
	buf.WriteString("^FS^XZ")

	return buf.Bytes(), nil
}
