package label

import (
	"image"

	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
)

type Payload struct {
	Lang media.Lang
	Data []byte
}

func Encode(lang media.Lang, img image.Image, l Layout) (*Payload, error) {
	var (
		data []byte
		err  error
	)

	switch lang {
	case media.EPL:
		data, err = EPL(img, l)
	case media.ZPL:
		data, err = ZPL(img, l)
	default:
		return nil, fault.Validationf("label", "unsupported language %q", lang)
	}
	if err != nil {
		return nil, err
	}

	return &Payload{Lang: lang, Data: data}, nil
}
