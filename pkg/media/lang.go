package media

import (
	"strings"

	"github.com/samber/lo"

	"ditherbooth/pkg/fault"
)

// Lang is the printer command language a payload is encoded in.
type Lang string

const (
	EPL Lang = "EPL"
	ZPL Lang = "ZPL"
)

var langs = []Lang{EPL, ZPL}

func ParseLang(s string) (Lang, error) {
	l := Lang(strings.ToUpper(strings.TrimSpace(s)))
	if !lo.Contains(langs, l) {
		return "", fault.Validationf("lang", "unknown language %q", s)
	}
	return l, nil
}

func Langs() []string {
	return lo.Map(langs, func(l Lang, _ int) string { return string(l) })
}
