package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ditherbooth/pkg/fault"
)

func TestCatalog(t *testing.T) {
	tests := []struct {
		id         ID
		width      int
		height     int
		continuous bool
	}{
		{Continuous58, 463, 0, true},
		{Continuous80, 640, 0, true},
		{Label100x150, 800, 1200, false},
		{Label55x30, 440, 240, false},
		{Label50x30, 400, 240, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.id), func(t *testing.T) {
			p, ok := Lookup(tc.id)
			require.True(t, ok)
			assert.Equal(t, tc.width, p.DotWidth)
			assert.Equal(t, tc.height, p.MaxDotHeight)
			assert.Equal(t, tc.continuous, p.Continuous())
		})
	}

	assert.Equal(t, []string{"continuous58", "continuous80", "label100x150", "label55x30", "label50x30"}, IDs())
}

func TestParse(t *testing.T) {
	id, err := Parse(" label55x30 ")
	require.NoError(t, err)
	assert.Equal(t, Label55x30, id)

	_, err = Parse("a4")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestParseLang(t *testing.T) {
	l, err := ParseLang("zpl")
	require.NoError(t, err)
	assert.Equal(t, ZPL, l)

	_, err = ParseLang("PCL")
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestDimensions(t *testing.T) {
	dims := Dimensions()
	assert.Equal(t, 640, dims["continuous80"].Width)
	assert.Nil(t, dims["continuous80"].Height)
	require.NotNil(t, dims["label100x150"].Height)
	assert.Equal(t, 800, dims["label100x150"].Width)
	assert.Equal(t, 1200, *dims["label100x150"].Height)
}
