package config

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, media.Continuous80, d.DefaultMedia)
	assert.Equal(t, media.EPL, d.DefaultLang)
	assert.False(t, d.TestMode)
	assert.Nil(t, d.PrinterName)
	assert.Nil(t, d.EPLDarkness)
	assert.Nil(t, d.EPLSpeed)
	require.NoError(t, d.Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
		msg    string
	}{
		{"darkness above", func(s *Settings) { s.EPLDarkness = lo.ToPtr(16) }, "epl_darkness must be at most 15"},
		{"darkness below", func(s *Settings) { s.EPLDarkness = lo.ToPtr(-1) }, "epl_darkness must be at least 0"},
		{"speed zero", func(s *Settings) { s.EPLSpeed = lo.ToPtr(0) }, "epl_speed must be at least 1"},
		{"speed above", func(s *Settings) { s.EPLSpeed = lo.ToPtr(7) }, "epl_speed must be at most 6"},
		{"negative delay", func(s *Settings) { s.TestModeDelayMs = -5 }, "test_mode_delay_ms must be at least 0"},
		{"unknown media", func(s *Settings) { s.DefaultMedia = "a4" }, "default_media must be one of"},
		{"unknown lang", func(s *Settings) { s.DefaultLang = "CPCL" }, "default_lang must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Defaults()
			tc.modify(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindValidation))
			assert.Contains(t, fault.Public(err), tc.msg)
		})
	}
}

func TestValidateAcceptsBounds(t *testing.T) {
	for _, pair := range [][2]int{{0, 1}, {15, 6}, {8, 2}} {
		s := Defaults()
		s.EPLDarkness, s.EPLSpeed = lo.ToPtr(pair[0]), lo.ToPtr(pair[1])
		assert.NoError(t, s.Validate(), "%v", pair)
	}
}

func TestClone(t *testing.T) {
	s := Defaults()
	s.PrinterName = lo.ToPtr("zebra")
	s.EPLDarkness = lo.ToPtr(3)

	c := s.Clone()
	*c.PrinterName = "other"
	*c.EPLDarkness = 9
	assert.Equal(t, "zebra", *s.PrinterName)
	assert.Equal(t, 3, *s.EPLDarkness)
}

func TestPrinter(t *testing.T) {
	s := Defaults()
	assert.Equal(t, "fallback", s.Printer("fallback"))
	s.PrinterName = lo.ToPtr("")
	assert.Equal(t, "fallback", s.Printer("fallback"))
	s.PrinterName = lo.ToPtr("zebra")
	assert.Equal(t, "zebra", s.Printer("fallback"))
}
