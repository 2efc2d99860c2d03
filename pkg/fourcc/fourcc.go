package fourcc

import (
	"errors"
	"fmt"
)

// Code is a FourCC pixel format identifier as used by V4L2 and related
// video APIs: four ASCII characters packed little-endian into a uint32.
type Code uint32

// Common pixel formats (from the kernel's videodev2.h V4L2_PIX_FMT_* set).
const (
	YUV420 Code = 0x32315559 // "YU12" planar YUV 4:2:0
	YVU420 Code = 0x32315659 // "YV12" planar YVU 4:2:0
	YUYV   Code = 0x56595559 // "YUYV" packed YUV 4:2:2
	NV12   Code = 0x3231564e // "NV12" Y plane with interleaved CbCr
	Grey   Code = 0x59455247 // "GREY" 8-bit greyscale
	RGB24  Code = 0x33424752 // "RGB3" packed RGB 8:8:8
	BGR24  Code = 0x33524742 // "BGR3" packed BGR 8:8:8
	MJPEG  Code = 0x47504a4d // "MJPG" motion JPEG
	H264   Code = 0x34363248 // "H264" H.264 byte stream
)

// ErrMalformed indicates a string that is not a 4-character FourCC.
var ErrMalformed = errors.New("malformed FourCC code")

// New packs four characters into a Code.
func New(a, b, c, d byte) Code {
	return Code(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Parse converts a 4-character string such as "YU12" into a Code.
func Parse(s string) (Code, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return New(s[0], s[1], s[2], s[3]), nil
}

// String returns the four characters of the code, substituting '.' for
// bytes outside the printable ASCII range.
func (c Code) String() string {
	b := [4]byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
	for i, ch := range b {
		if ch < 0x20 || ch > 0x7e {
			b[i] = '.'
		}
	}
	return string(b[:])
}

// SizeImage returns the byte size of one frame of the given dimensions,
// or ok=false for compressed or unrecognized formats whose frame size is
// not a function of width and height.
func (c Code) SizeImage(width, height uint32) (size uint32, ok bool) {
	switch c {
	case YUV420, YVU420, NV12:
		return width * height * 3 / 2, true
	case YUYV:
		return width * height * 2, true
	case Grey:
		return width * height, true
	case RGB24, BGR24:
		return width * height * 3, true
	default:
		return 0, false
	}
}
