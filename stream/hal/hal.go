package hal

import (
	"context"
	"time"

	"github.com/ardnew/vidq/pkg/fourcc"
)

// Direction fixes which way frames flow through a device handle.
type Direction uint8

// Transfer directions.
const (
	DirectionOutput  Direction = iota // Application fills buffers for the driver to drain
	DirectionCapture                  // Driver fills buffers for the application to read
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case DirectionOutput:
		return "output"
	case DirectionCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// Config describes the device a backend should open.
// The direction is fixed for the lifetime of the handle.
type Config struct {
	Path      string    // Device identifier (e.g. /dev/video0)
	Direction Direction // Transfer direction
}

// Format describes a frame format for negotiation.
type Format struct {
	Width       uint32      // Frame width in pixels
	Height      uint32      // Frame height in pixels
	PixelFormat fourcc.Code // FourCC pixel format
}

// SizeImage returns the byte size of one frame in this format, or
// ok=false when the size is not a function of the dimensions.
func (f Format) SizeImage() (size uint32, ok bool) {
	return f.PixelFormat.SizeImage(f.Width, f.Height)
}

// Metadata is the per-transfer buffer metadata exchanged with the driver.
// The submitting side populates BytesUsed and Field for output buffers;
// the driver populates all fields on completion.
type Metadata struct {
	BytesUsed uint32        // Payload bytes in the buffer
	Field     uint32        // Interlacing field flag (0 = any/progressive)
	Sequence  uint32        // Driver frame sequence counter
	Timestamp time.Duration // Driver completion timestamp
}

// Region is one buffer's memory shared between application and driver.
type Region struct {
	Data   []byte // Mapped memory, length fixed for the buffer's lifetime
	Offset int64  // Backend mapping cookie (mmap offset for V4L2)
}

// Length returns the region size in bytes.
func (r Region) Length() int {
	return len(r.Data)
}

// VideoHAL is the contract between the buffer-ownership core and a
// streaming video backend. One handle serves exactly one endpoint
// direction; a bidirectional link uses two handles.
//
// Submit and WaitCompleted are the enqueue/dequeue transport. The backend
// guarantees that exactly the granted number of buffers exist, that each
// WaitCompleted returns one previously submitted and not yet returned
// index, and nothing about completion order beyond what the transport
// happens to produce.
type VideoHAL interface {
	// Open opens the device described by cfg.
	// The context can be used to cancel setup; it does not govern
	// later transfer calls.
	Open(ctx context.Context, cfg Config) error

	// NegotiateFormat applies the requested frame format and returns
	// the format the driver actually selected, which may differ.
	NegotiateFormat(f Format) (Format, error)

	// RequestBuffers asks the driver for count buffers and returns the
	// granted count. Callers must size their pool by the granted
	// count, not the request.
	RequestBuffers(count int) (int, error)

	// MapBuffer establishes the shared memory region for one buffer
	// index. It must succeed for every granted index or the pool is
	// invalid.
	MapBuffer(index int) (Region, error)

	// Submit hands a buffer to the driver.
	// The application must not touch the region until WaitCompleted
	// returns the same index.
	Submit(index int, meta Metadata) error

	// WaitCompleted blocks until the driver reports a completed buffer
	// and returns its index and completion metadata. There is no
	// timeout or cancellation; misbehavior hangs visibly.
	WaitCompleted() (int, Metadata, error)

	// StreamOn starts the driver's transfer engine.
	StreamOn() error

	// StreamOff stops the driver's transfer engine.
	StreamOff() error

	// Close releases the handle, unmapping every region returned by
	// MapBuffer. The regions must not be used afterwards.
	Close() error
}
