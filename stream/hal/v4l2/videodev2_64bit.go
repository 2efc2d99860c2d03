//go:build linux && (amd64 || arm64)

package v4l2

import "unsafe"

// Compile-time struct size assertions.
// These fail at compile time if struct layout doesn't match the kernel
// ABI for 64-bit Linux.
// Pattern: [0]struct{} = [actual - expected]struct{} fails if actual != expected.
var (
	_ [0]struct{} = [unsafe.Sizeof(v4l2Capability{}) - 104]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2PixFormat{}) - 48]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Format{}) - 208]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2RequestBuffers{}) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Timecode{}) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Timeval{}) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Buffer{}) - 88]struct{}{}

	// The timestamp must land on the kernel's 8-byte-aligned offset, not
	// directly after the field word.
	_ [0]struct{} = [unsafe.Offsetof(v4l2Buffer{}.timestamp) - 24]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(v4l2Buffer{}.m) - 64]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(v4l2Format{}.pix) - 8]struct{}{}
)

// v4l2Capability has size 104 bytes.
// This must match the kernel's struct v4l2_capability layout.
type v4l2Capability struct {
	driver       [16]byte  // offset 0
	card         [32]byte  // offset 16
	busInfo      [32]byte  // offset 48
	version      uint32    // offset 80
	capabilities uint32    // offset 84
	deviceCaps   uint32    // offset 88
	reserved     [3]uint32 // offset 92
}

// v4l2PixFormat has size 48 bytes.
// This must match the kernel's struct v4l2_pix_format layout.
type v4l2PixFormat struct {
	width        uint32 // offset 0
	height       uint32 // offset 4
	pixelformat  uint32 // offset 8
	field        uint32 // offset 12
	bytesperline uint32 // offset 16
	sizeimage    uint32 // offset 20
	colorspace   uint32 // offset 24
	priv         uint32 // offset 28
	flags        uint32 // offset 32
	ycbcrEnc     uint32 // offset 36
	quantization uint32 // offset 40
	xferFunc     uint32 // offset 44
}

// v4l2Format has size 208 bytes.
// The kernel declares the fmt union with 8-byte alignment (some members
// hold pointers), so pix sits at offset 8 and the union pads out to 200.
type v4l2Format struct {
	typ uint32        // offset 0
	_   [4]byte       // padding for the 8-byte-aligned union
	pix v4l2PixFormat // offset 8 (union with pix_mp, win, vbi, ...)
	_   [152]byte     // padding for the larger union members
}

// v4l2RequestBuffers has size 20 bytes.
// This must match the kernel's struct v4l2_requestbuffers layout.
type v4l2RequestBuffers struct {
	count        uint32  // offset 0
	typ          uint32  // offset 4
	memory       uint32  // offset 8
	capabilities uint32  // offset 12
	flags        uint8   // offset 16
	reserved     [3]byte // offset 17
}

// v4l2Timeval matches the kernel's struct timeval on 64-bit Linux.
type v4l2Timeval struct {
	sec  int64
	usec int64
}

// v4l2Timecode has size 16 bytes.
type v4l2Timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

// v4l2Buffer has size 88 bytes.
// This must match the kernel's struct v4l2_buffer layout. The m field is
// a union of offset, userptr, planes pointer, and fd; for MMAP buffers
// the driver stores the mapping offset in its low 32 bits.
type v4l2Buffer struct {
	index     uint32       // offset 0
	typ       uint32       // offset 4
	bytesused uint32       // offset 8
	flags     uint32       // offset 12
	field     uint32       // offset 16
	_         [4]byte      // padding for the 8-byte-aligned timeval
	timestamp v4l2Timeval  // offset 24
	timecode  v4l2Timecode // offset 40
	sequence  uint32       // offset 56
	memory    uint32       // offset 60
	m         uint64       // offset 64 (union: offset, userptr, planes, fd)
	length    uint32       // offset 72
	reserved2 uint32       // offset 76
	requestFD int32        // offset 80 (union with reserved)
	_         [4]byte      // tail padding to the 8-byte struct alignment
}

// mmapOffset returns the MMAP mapping offset stored in the m union.
func (b *v4l2Buffer) mmapOffset() uint32 {
	return uint32(b.m)
}
