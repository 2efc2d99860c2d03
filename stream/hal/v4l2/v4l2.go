//go:build linux && (amd64 || arm64)

package v4l2

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/pkg/fourcc"
	"github.com/ardnew/vidq/stream/hal"
)

// =============================================================================
// VideoHAL Implementation
// =============================================================================

// HAL implements hal.VideoHAL over a V4L2 device node using blocking
// I/O and memory-mapped streaming buffers.
type HAL struct {
	mu sync.Mutex

	fd   int
	path string
	dir  hal.Direction

	// bufType selects the capture or output queue of the node
	bufType uint32

	open      bool
	streaming bool

	capability Capability
	format     hal.Format

	// regions holds the mmap'd buffer slices, indexed by driver index
	regions []hal.Region
}

// New creates an unopened V4L2 HAL.
func New() *HAL {
	return &HAL{fd: -1}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Open opens the device node named by cfg.Path for the configured
// direction. The descriptor is left in blocking mode so a dequeue with
// no completed buffer blocks in the driver.
func (h *HAL) Open(ctx context.Context, cfg hal.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open {
		return pkg.ErrAlreadyOpen
	}

	fd, err := unix.Open(cfg.Path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Path, err)
	}

	var raw v4l2Capability
	if err := ioctlRaw(fd, vidiocQuerycap, unsafe.Pointer(&raw)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("querycap %s: %w", cfg.Path, err)
	}
	capability := Capability{
		Driver:     cstring(raw.driver[:]),
		Card:       cstring(raw.card[:]),
		BusInfo:    cstring(raw.busInfo[:]),
		Version:    raw.version,
		Caps:       raw.capabilities,
		DeviceCaps: raw.deviceCaps,
	}

	if !capability.Streaming() {
		unix.Close(fd)
		return fmt.Errorf("device %s lacks streaming I/O: %w", cfg.Path, pkg.ErrInvalidParameter)
	}
	switch cfg.Direction {
	case hal.DirectionOutput:
		if !capability.VideoOutput() {
			unix.Close(fd)
			return fmt.Errorf("device %s has no output queue: %w", cfg.Path, pkg.ErrWrongDirection)
		}
		h.bufType = bufTypeVideoOutput
	case hal.DirectionCapture:
		if !capability.VideoCapture() {
			unix.Close(fd)
			return fmt.Errorf("device %s has no capture queue: %w", cfg.Path, pkg.ErrWrongDirection)
		}
		h.bufType = bufTypeVideoCapture
	default:
		unix.Close(fd)
		return fmt.Errorf("direction %d: %w", cfg.Direction, pkg.ErrInvalidParameter)
	}

	h.fd = fd
	h.path = cfg.Path
	h.dir = cfg.Direction
	h.capability = capability
	h.open = true

	pkg.LogInfo(pkg.ComponentHAL, "video device opened",
		"path", cfg.Path,
		"direction", cfg.Direction.String(),
		"driver", capability.Driver,
		"card", capability.Card,
		"version", capability.VersionString())
	return nil
}

// Capability returns the driver identity reported at Open.
func (h *HAL) Capability() (Capability, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return Capability{}, pkg.ErrNotOpen
	}
	return h.capability, nil
}

// Format returns the format most recently negotiated on this queue.
func (h *HAL) Format() (hal.Format, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return hal.Format{}, pkg.ErrNotOpen
	}
	return h.format, nil
}

// Close stops streaming if needed, unmaps all buffers, and closes the
// device node.
func (h *HAL) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return pkg.ErrNotOpen
	}

	if h.streaming {
		typ := int32(h.bufType)
		ioctlRaw(h.fd, vidiocStreamOff, unsafe.Pointer(&typ))
		h.streaming = false
	}
	h.unmapAll()

	err := unix.Close(h.fd)
	h.fd = -1
	h.open = false

	pkg.LogInfo(pkg.ComponentHAL, "video device closed", "path", h.path)
	if err != nil {
		return fmt.Errorf("close %s: %w", h.path, err)
	}
	return nil
}

// unmapAll releases every mmap'd region. Runs with h.mu held.
func (h *HAL) unmapAll() {
	for i, r := range h.regions {
		if r.Data != nil {
			unix.Munmap(r.Data)
			h.regions[i] = hal.Region{}
		}
	}
	h.regions = nil
}

// =============================================================================
// Format Negotiation
// =============================================================================

// NegotiateFormat reads the device's current format, patches in the
// requested dimensions and pixel format, and writes it back. The driver
// may adjust any field; the format actually in effect is returned.
func (h *HAL) NegotiateFormat(want hal.Format) (hal.Format, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return hal.Format{}, pkg.ErrNotOpen
	}

	var f v4l2Format
	f.typ = h.bufType
	if err := ioctlRaw(h.fd, vidiocGetFmt, unsafe.Pointer(&f)); err != nil {
		return hal.Format{}, fmt.Errorf("get format %s: %w", h.path, err)
	}

	f.pix.width = want.Width
	f.pix.height = want.Height
	f.pix.pixelformat = uint32(want.PixelFormat)
	// Ask for progressive frames when the driver reports no interlacing
	// preference.
	if f.pix.field == fieldAny {
		f.pix.field = fieldNone
	}
	if err := ioctlRaw(h.fd, vidiocSetFmt, unsafe.Pointer(&f)); err != nil {
		return hal.Format{}, fmt.Errorf("set format %s: %w", h.path, err)
	}

	got := hal.Format{
		Width:       f.pix.width,
		Height:      f.pix.height,
		PixelFormat: fourcc.Code(f.pix.pixelformat),
	}
	h.format = got

	pkg.LogDebug(pkg.ComponentHAL, "format negotiated",
		"path", h.path,
		"width", got.Width,
		"height", got.Height,
		"pixelformat", got.PixelFormat.String(),
		"sizeimage", f.pix.sizeimage)
	return got, nil
}

// =============================================================================
// Buffer Operations
// =============================================================================

// RequestBuffers asks the driver for count MMAP buffers on this queue
// and returns the count actually granted, which the driver may raise or
// lower.
func (h *HAL) RequestBuffers(count int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return 0, pkg.ErrNotOpen
	}
	if h.streaming {
		return 0, fmt.Errorf("request buffers while streaming: %w", pkg.ErrBusy)
	}
	if count <= 0 {
		return 0, fmt.Errorf("buffer count %d: %w", count, pkg.ErrInvalidParameter)
	}
	h.unmapAll()

	req := v4l2RequestBuffers{
		count:  uint32(count),
		typ:    h.bufType,
		memory: memoryMmap,
	}
	if err := ioctlRaw(h.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		return 0, fmt.Errorf("reqbufs %s: %w", h.path, err)
	}

	h.regions = make([]hal.Region, req.count)

	pkg.LogDebug(pkg.ComponentHAL, "buffers granted",
		"path", h.path,
		"requested", count,
		"granted", req.count)
	return int(req.count), nil
}

// MapBuffer queries the driver for the buffer's length and offset and
// maps it into the process. Mapping the same index again returns the
// existing region.
func (h *HAL) MapBuffer(index int) (hal.Region, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return hal.Region{}, pkg.ErrNotOpen
	}
	if index < 0 || index >= len(h.regions) {
		return hal.Region{}, fmt.Errorf("map buffer %d of %d: %w", index, len(h.regions), pkg.ErrBufferIndex)
	}
	if h.regions[index].Data != nil {
		return h.regions[index], nil
	}

	var b v4l2Buffer
	b.index = uint32(index)
	b.typ = h.bufType
	b.memory = memoryMmap
	if err := ioctlRaw(h.fd, vidiocQuerybuf, unsafe.Pointer(&b)); err != nil {
		return hal.Region{}, fmt.Errorf("querybuf %s index %d: %w", h.path, index, err)
	}

	offset := int64(b.mmapOffset())
	data, err := unix.Mmap(h.fd, offset, int(b.length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return hal.Region{}, fmt.Errorf("mmap %s index %d: %w", h.path, index, err)
	}

	h.regions[index] = hal.Region{Data: data, Offset: offset}

	pkg.LogDebug(pkg.ComponentHAL, "buffer mapped",
		"path", h.path,
		"index", index,
		"length", b.length,
		"offset", offset)
	return h.regions[index], nil
}

// Submit queues a buffer to the driver. For an output queue the caller
// provides the payload metadata; a capture queue ignores it.
func (h *HAL) Submit(index int, meta hal.Metadata) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return pkg.ErrNotOpen
	}
	if index < 0 || index >= len(h.regions) {
		return fmt.Errorf("submit buffer %d of %d: %w", index, len(h.regions), pkg.ErrBufferIndex)
	}
	if h.regions[index].Data == nil {
		return fmt.Errorf("submit buffer %d: %w", index, pkg.ErrNotMapped)
	}

	var b v4l2Buffer
	b.index = uint32(index)
	b.typ = h.bufType
	b.memory = memoryMmap
	b.bytesused = meta.BytesUsed
	b.field = meta.Field
	if err := ioctlRaw(h.fd, vidiocQbuf, unsafe.Pointer(&b)); err != nil {
		return fmt.Errorf("qbuf %s index %d: %w", h.path, index, err)
	}
	return nil
}

// WaitCompleted dequeues the next completed buffer, blocking in the
// driver until one is available. The device lock is released around the
// ioctl so state queries are not wedged behind a stalled stream.
func (h *HAL) WaitCompleted() (int, hal.Metadata, error) {
	h.mu.Lock()
	if !h.open {
		h.mu.Unlock()
		return 0, hal.Metadata{}, pkg.ErrNotOpen
	}
	fd := h.fd
	path := h.path
	typ := h.bufType
	h.mu.Unlock()

	var b v4l2Buffer
	b.typ = typ
	b.memory = memoryMmap
	if err := ioctlRaw(fd, vidiocDqbuf, unsafe.Pointer(&b)); err != nil {
		return 0, hal.Metadata{}, fmt.Errorf("dqbuf %s: %w", path, err)
	}

	meta := hal.Metadata{
		BytesUsed: b.bytesused,
		Field:     b.field,
		Sequence:  b.sequence,
		Timestamp: time.Duration(b.timestamp.sec)*time.Second +
			time.Duration(b.timestamp.usec)*time.Microsecond,
	}
	return int(b.index), meta, nil
}

// =============================================================================
// Streaming Control
// =============================================================================

// StreamOn starts the queue's transfer engine.
func (h *HAL) StreamOn() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return pkg.ErrNotOpen
	}
	if h.streaming {
		return pkg.ErrAlreadyStreaming
	}

	typ := int32(h.bufType)
	if err := ioctlRaw(h.fd, vidiocStreamOn, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("streamon %s: %w", h.path, err)
	}
	h.streaming = true

	pkg.LogInfo(pkg.ComponentHAL, "stream on", "path", h.path, "direction", h.dir.String())
	return nil
}

// StreamOff stops the queue's transfer engine. The driver reclaims all
// queued buffers, so every index is application-owned afterward.
func (h *HAL) StreamOff() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return pkg.ErrNotOpen
	}
	if !h.streaming {
		return pkg.ErrNotStreaming
	}

	typ := int32(h.bufType)
	if err := ioctlRaw(h.fd, vidiocStreamOff, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("streamoff %s: %w", h.path, err)
	}
	h.streaming = false

	pkg.LogInfo(pkg.ComponentHAL, "stream off", "path", h.path, "direction", h.dir.String())
	return nil
}

// =============================================================================
// Raw Syscall Wrappers
// =============================================================================

// ioctlRaw performs a raw ioctl, retrying when a signal interrupts the
// call before the driver completes it.
func ioctlRaw(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

// cstring returns the string before the first NUL in b.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Compile-time interface check
var _ hal.VideoHAL = (*HAL)(nil)
