//go:build linux && (amd64 || arm64)

package v4l2

import "unsafe"

// ioctl encoding for 64-bit Linux (amd64 and arm64 share the layout).
// The ioctl number encoding uses the following bit layout:
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-29: argument size (size)
//	bits 30-31: direction (dir)

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14
	iocDirBits  = 2

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

// ioc constructs an ioctl number from direction, type, number, and size.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

// ior constructs a read ioctl number.
func ior(typ, nr, size uintptr) uintptr {
	return ioc(iocRead, typ, nr, size)
}

// iow constructs a write ioctl number.
func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

// iowr constructs a read/write ioctl number.
func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// video ioctl type character.
const videoType = 'V'

// video ioctl command numbers.
const (
	ioctlQuerycap  = 0
	ioctlGetFmt    = 4
	ioctlSetFmt    = 5
	ioctlReqbufs   = 8
	ioctlQuerybuf  = 9
	ioctlQbuf      = 15
	ioctlDqbuf     = 17
	ioctlStreamOn  = 18
	ioctlStreamOff = 19
)

// sizeofInt is the argument size of the stream on/off ioctls.
const sizeofInt = 4

// Video ioctl numbers for 64-bit Linux.
// These are computed from the kernel _IOC macros using the Go struct
// sizes, so a struct layout mistake shows up as a bad ioctl number in
// the constants tests rather than as a silent EINVAL at runtime.
var (
	vidiocQuerycap  = ior(videoType, ioctlQuerycap, unsafe.Sizeof(v4l2Capability{}))
	vidiocGetFmt    = iowr(videoType, ioctlGetFmt, unsafe.Sizeof(v4l2Format{}))
	vidiocSetFmt    = iowr(videoType, ioctlSetFmt, unsafe.Sizeof(v4l2Format{}))
	vidiocReqbufs   = iowr(videoType, ioctlReqbufs, unsafe.Sizeof(v4l2RequestBuffers{}))
	vidiocQuerybuf  = iowr(videoType, ioctlQuerybuf, unsafe.Sizeof(v4l2Buffer{}))
	vidiocQbuf      = iowr(videoType, ioctlQbuf, unsafe.Sizeof(v4l2Buffer{}))
	vidiocDqbuf     = iowr(videoType, ioctlDqbuf, unsafe.Sizeof(v4l2Buffer{}))
	vidiocStreamOn  = iow(videoType, ioctlStreamOn, sizeofInt)
	vidiocStreamOff = iow(videoType, ioctlStreamOff, sizeofInt)
)
