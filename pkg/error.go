package pkg

import "errors"

// Buffer ownership protocol errors.
var (
	// ErrProtocolViolation indicates an ownership transition was attempted
	// against its precondition (enqueue of a driver-owned buffer, or a
	// completion reported for an application-owned buffer).
	ErrProtocolViolation = errors.New("buffer ownership protocol violation")

	// ErrBufferIndex indicates a buffer index outside the pool.
	ErrBufferIndex = errors.New("buffer index out of range")

	// ErrPoolTooSmall indicates the driver granted fewer buffers than the
	// minimum pool size.
	ErrPoolTooSmall = errors.New("buffer pool too small")

	// ErrNoBuffersQueued indicates streaming was started with an empty
	// driver queue on an output endpoint.
	ErrNoBuffersQueued = errors.New("no buffers queued")

	// ErrWrongDirection indicates an operation bound to the opposite
	// endpoint direction.
	ErrWrongDirection = errors.New("wrong endpoint direction")
)

// Device lifecycle errors.
var (
	// ErrNotOpen indicates the device has not been opened.
	ErrNotOpen = errors.New("device not open")

	// ErrAlreadyOpen indicates the device is already open.
	ErrAlreadyOpen = errors.New("device already open")

	// ErrClosed indicates the device has been closed.
	ErrClosed = errors.New("device closed")

	// ErrAlreadyStreaming indicates the transfer engine is already started.
	ErrAlreadyStreaming = errors.New("already streaming")

	// ErrNotStreaming indicates the transfer engine is not started.
	ErrNotStreaming = errors.New("not streaming")

	// ErrNotMapped indicates a buffer region has not been mapped.
	ErrNotMapped = errors.New("buffer not mapped")

	// ErrBusy indicates the resource is busy.
	ErrBusy = errors.New("resource busy")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)
