package transfer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func TestConvert(t *testing.T) {
	rgba := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	tests := []struct {
		to   PixelFormat
		want []byte
	}{
		{FormatRGBA, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{FormatBGRA, []byte{3, 2, 1, 4, 7, 6, 5, 8}},
		{FormatARGB, []byte{4, 1, 2, 3, 8, 5, 6, 7}},
		{FormatABGR, []byte{4, 3, 2, 1, 8, 7, 6, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			dst := make([]byte, len(rgba))
			Convert(dst, rgba, FormatRGBA, tt.to)
			assert.Equal(t, tt.want, dst)

			back := make([]byte, len(dst))
			Convert(back, dst, tt.to, FormatRGBA)
			assert.Equal(t, rgba, back)
		})
	}
}

func TestConvertInPlaceAndPartial(t *testing.T) {
	pix := []byte{1, 2, 3, 4, 9, 9}
	Convert(pix, pix, FormatRGBA, FormatBGRA)
	assert.Equal(t, []byte{3, 2, 1, 4, 9, 9}, pix, "trailing partial pixel is left alone")

	short := make([]byte, 4)
	Convert(short, []byte{1, 2, 3, 4, 5, 6, 7, 8}, FormatRGBA, FormatRGBA)
	assert.Equal(t, []byte{1, 2, 3, 4}, short)
}

func TestPixelFormatText(t *testing.T) {
	var f PixelFormat
	require.NoError(t, f.UnmarshalText([]byte(" BGRA ")))
	assert.Equal(t, FormatBGRA, f)
	b, err := f.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "bgra", string(b))

	assert.ErrorIs(t, f.UnmarshalText([]byte("yuv")), ErrUnknownFormat)
	_, err = PixelFormat(7).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, "PixelFormat(7)", PixelFormat(7).String())
}

func TestModeText(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("on_changes")))
	assert.Equal(t, ModeOnChanges, m)
	require.NoError(t, m.UnmarshalText([]byte("Always")))
	assert.Equal(t, ModeAlways, m)
	assert.ErrorIs(t, m.UnmarshalText([]byte("sometimes")), ErrUnknownMode)

	b, err := ModeOnChanges.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "on_changes", string(b))
	assert.Equal(t, "busy", StateBusy.String())
}

func TestScaledSink(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	s := NewScaledSink(dst, draw.NearestNeighbor)
	assert.Equal(t, FormatRGBA, s.PreferredFormat())

	frame := []byte{
		0, 0, 0xff, 0xff, 0, 0, 0xff, 0xff,
		0, 0, 0xff, 0xff, 0, 0, 0xff, 0xff,
	}
	s.WritePixels(0, 0, 2, 2, FormatBGRA, frame, 8)
	s.View(func(img image.Image) {
		assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, img.(*image.RGBA).RGBAAt(3, 3))
		assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, img.(*image.RGBA).RGBAAt(0, 0))
	})
}
