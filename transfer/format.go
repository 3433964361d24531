package transfer

import (
	"fmt"
	"strings"
)

// PixelFormat is the byte order of one 4-byte pixel.
type PixelFormat uint8

const (
	// FormatRGBA is R, G, B, A. It is the layout frames travel in.
	FormatRGBA PixelFormat = iota
	FormatBGRA
	FormatARGB
	FormatABGR
)

// channel offsets of R, G, B and A within a pixel, per format.
var channelOffsets = [...][4]int{
	FormatRGBA: {0, 1, 2, 3},
	FormatBGRA: {2, 1, 0, 3},
	FormatARGB: {1, 2, 3, 0},
	FormatABGR: {3, 2, 1, 0},
}

var formatNames = [...]string{
	FormatRGBA: "rgba",
	FormatBGRA: "bgra",
	FormatARGB: "argb",
	FormatABGR: "abgr",
}

func (f PixelFormat) valid() bool {
	return int(f) < len(channelOffsets)
}

func (f PixelFormat) String() string {
	if f.valid() {
		return formatNames[f]
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f PixelFormat) MarshalText() ([]byte, error) {
	if !f.valid() {
		return nil, fmt.Errorf("transfer: %w: %d", ErrUnknownFormat, uint8(f))
	}
	return []byte(formatNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are case
// insensitive.
func (f *PixelFormat) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range formatNames {
		if name == s {
			*f = PixelFormat(i)
			return nil
		}
	}
	return fmt.Errorf("transfer: %w: %q", ErrUnknownFormat, text)
}

// Convert reorders the channels of every whole pixel in src from one format
// to another, writing the result to dst. dst and src may be the same slice.
// The number of pixels converted is bounded by the shorter slice.
func Convert(dst, src []byte, from, to PixelFormat) {
	n := min(len(dst), len(src)) &^ 3
	if from == to {
		copy(dst[:n], src[:n])
		return
	}
	in, out := channelOffsets[from], channelOffsets[to]
	for i := 0; i < n; i += 4 {
		p := src[i : i+4 : i+4]
		r, g, b, a := p[in[0]], p[in[1]], p[in[2]], p[in[3]]
		q := dst[i : i+4 : i+4]
		q[out[0]], q[out[1]], q[out[2]], q[out[3]] = r, g, b, a
	}
}
