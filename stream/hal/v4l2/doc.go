// Package v4l2 provides a video HAL implementation for Linux using the
// V4L2 streaming API.
//
// This HAL drives a single queue of a video device node (/dev/video*)
// with memory-mapped streaming I/O: buffers are allocated by the driver
// via VIDIOC_REQBUFS, mapped into the process via VIDIOC_QUERYBUF and
// mmap, and exchanged with the driver via VIDIOC_QBUF and VIDIOC_DQBUF.
// It is designed for pure Go with no cgo dependencies.
//
// # Requirements
//
// To use this HAL, the user running the application must have read/write
// access to the device nodes in /dev/video*. This typically requires
// either:
//   - Running as root
//   - Membership in the video group (the common udev default)
//
// Exercising both directions of one device requires a loopback driver
// such as v4l2loopback, which pairs an output opener with a capture
// opener on the same node.
//
// # Architecture
//
// The device descriptor stays in blocking mode. VIDIOC_DQBUF therefore
// sleeps in the driver until a buffer completes, which is the single
// blocking point the ownership layer above relies on. All other ioctls
// complete immediately.
//
// The ioctl request numbers are not hardcoded: they are computed from
// the kernel's _IOC macro layout and the Go struct sizes, and the
// constants tests pin them to the known 64-bit values. A struct layout
// mistake fails the build or the tests instead of surfacing as EINVAL
// at runtime.
//
// # Supported Features
//
//   - Capture and output queues, one per HAL instance
//   - Format negotiation via VIDIOC_G_FMT and VIDIOC_S_FMT
//   - Driver-allocated MMAP streaming buffers
//   - Driver identity via VIDIOC_QUERYCAP
//
// # Limitations
//
//   - Single-planar queues only (no VIDEO_CAPTURE_MPLANE)
//   - MMAP streaming only (no USERPTR, DMABUF, or read/write I/O)
//   - 64-bit Linux only (amd64 and arm64)
package v4l2
