package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/pkg/fourcc"
	"github.com/ardnew/vidq/stream/hal"
)

// MaxBuffers is the largest buffer count one side may request,
// matching the V4L2 per-queue frame limit.
const MaxBuffers = 32

// DefaultFormat is the link format before any negotiation.
var DefaultFormat = hal.Format{Width: 800, Height: 600, PixelFormat: fourcc.YUV420}

// pendingEntry is a submitted buffer waiting to be paired.
type pendingEntry struct {
	index int
	meta  hal.Metadata
}

// completion is a finished buffer waiting for WaitCompleted.
type completion struct {
	index int
	meta  hal.Metadata
}

// half holds the per-side state of a link.
type half struct {
	open      bool
	streaming bool
	path      string
	granted   int

	regions []hal.Region
	held    []bool // true while the driver side holds the index

	pending   *queue.Queue // of pendingEntry
	completed *queue.Queue // of completion
}

// reset prepares the half for a granted buffer count.
func (s *half) reset(count int) {
	s.granted = count
	s.regions = make([]hal.Region, count)
	s.held = make([]bool, count)
	s.pending = queue.New()
	s.completed = queue.New()
}

// Link is an in-memory loopback video device: frames submitted on the
// output side appear as completed capture buffers on the other side.
// Both sides share one frame format, the way a loopback driver carries
// the output format over to its capture opener.
type Link struct {
	mu   sync.Mutex
	cond *sync.Cond

	format    hal.Format
	frameSize int

	output  half
	capture half

	seq    uint32
	epoch  time.Time
	closed bool
}

// NewLink creates a loopback link with [DefaultFormat].
func NewLink() *Link {
	l := &Link{
		format: DefaultFormat,
		epoch:  time.Now(),
	}
	size, _ := l.format.SizeImage()
	l.frameSize = int(size)
	l.cond = sync.NewCond(&l.mu)
	l.output.pending = queue.New()
	l.output.completed = queue.New()
	l.capture.pending = queue.New()
	l.capture.completed = queue.New()
	return l
}

// Source returns the output-side handle of the link.
func (l *Link) Source() *HAL {
	return &HAL{link: l, dir: hal.DirectionOutput}
}

// Sink returns the capture-side handle of the link.
func (l *Link) Sink() *HAL {
	return &HAL{link: l, dir: hal.DirectionCapture}
}

// Format returns the link's current frame format.
func (l *Link) Format() hal.Format {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.format
}

// side returns the half for the given direction.
func (l *Link) side(dir hal.Direction) *half {
	if dir == hal.DirectionOutput {
		return &l.output
	}
	return &l.capture
}

// pump pairs pending output buffers with pending capture buffers while
// both sides are streaming, copying the frame and completing both ends.
// Runs with l.mu held; called from Submit and StreamOn so the pairing is
// synchronous and a single-threaded caller never races it.
func (l *Link) pump() {
	if !l.output.streaming || !l.capture.streaming {
		return
	}
	for l.output.pending.Length() > 0 && l.capture.pending.Length() > 0 {
		out := l.output.pending.Remove().(pendingEntry)
		in := l.capture.pending.Remove().(pendingEntry)

		src := l.output.regions[out.index].Data
		dst := l.capture.regions[in.index].Data
		frame := len(src)
		if out.meta.BytesUsed > 0 && int(out.meta.BytesUsed) < frame {
			frame = int(out.meta.BytesUsed)
		}
		n := copy(dst, src[:frame])

		l.seq++
		ts := time.Since(l.epoch)
		l.output.completed.Add(completion{
			index: out.index,
			meta:  hal.Metadata{BytesUsed: uint32(n), Sequence: l.seq, Timestamp: ts},
		})
		l.capture.completed.Add(completion{
			index: in.index,
			meta:  hal.Metadata{BytesUsed: uint32(n), Sequence: l.seq, Timestamp: ts},
		})

		pkg.LogDebug(pkg.ComponentHAL, "frame transferred",
			"sequence", l.seq,
			"output", out.index,
			"capture", in.index,
			"bytes", n)
	}
	l.cond.Broadcast()
}

// HAL is one side of a loopback [Link], implementing [hal.VideoHAL].
// Obtain handles from [Link.Source] and [Link.Sink].
type HAL struct {
	link *Link
	dir  hal.Direction
}

// Open opens this side of the link. The configured direction must match
// the side the handle was created for.
func (h *HAL) Open(ctx context.Context, cfg hal.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.Direction != h.dir {
		return fmt.Errorf("open %s as %s: %w", h.dir, cfg.Direction, pkg.ErrWrongDirection)
	}

	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return pkg.ErrClosed
	}
	s := l.side(h.dir)
	if s.open {
		return pkg.ErrAlreadyOpen
	}
	s.open = true
	s.path = cfg.Path

	pkg.LogInfo(pkg.ComponentHAL, "loopback side opened",
		"direction", h.dir.String(),
		"path", cfg.Path)
	return nil
}

// NegotiateFormat sets the link format for both sides and returns it.
// Fails once either side has mapped buffers, since their regions are
// sized for the previous format.
func (h *HAL) NegotiateFormat(f hal.Format) (hal.Format, error) {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return hal.Format{}, pkg.ErrNotOpen
	}
	size, ok := f.SizeImage()
	if !ok {
		return hal.Format{}, fmt.Errorf("pixel format %s: %w", f.PixelFormat, pkg.ErrInvalidParameter)
	}
	if mapped(&l.output) || mapped(&l.capture) {
		return hal.Format{}, fmt.Errorf("format change with mapped buffers: %w", pkg.ErrBusy)
	}

	l.format = f
	l.frameSize = int(size)

	pkg.LogDebug(pkg.ComponentHAL, "format negotiated",
		"direction", h.dir.String(),
		"width", f.Width,
		"height", f.Height,
		"pixelformat", f.PixelFormat.String(),
		"framesize", l.frameSize)
	return f, nil
}

// mapped reports whether any region on the half has been mapped.
func mapped(s *half) bool {
	for _, r := range s.regions {
		if r.Data != nil {
			return true
		}
	}
	return false
}

// RequestBuffers grants up to [MaxBuffers] buffers for this side.
// A repeat request while not streaming replaces the side's buffer set.
func (h *HAL) RequestBuffers(count int) (int, error) {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return 0, pkg.ErrNotOpen
	}
	if s.streaming {
		return 0, fmt.Errorf("request buffers while streaming: %w", pkg.ErrBusy)
	}
	if count <= 0 {
		return 0, fmt.Errorf("buffer count %d: %w", count, pkg.ErrInvalidParameter)
	}
	if count > MaxBuffers {
		count = MaxBuffers
	}
	s.reset(count)

	pkg.LogDebug(pkg.ComponentHAL, "buffers granted",
		"direction", h.dir.String(),
		"count", count)
	return count, nil
}

// MapBuffer allocates the shared region for one buffer index.
func (h *HAL) MapBuffer(index int) (hal.Region, error) {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return hal.Region{}, pkg.ErrNotOpen
	}
	if index < 0 || index >= s.granted {
		return hal.Region{}, fmt.Errorf("map buffer %d of %d: %w", index, s.granted, pkg.ErrBufferIndex)
	}
	if s.regions[index].Data == nil {
		s.regions[index] = hal.Region{
			Data:   make([]byte, l.frameSize),
			Offset: int64(index * l.frameSize),
		}
	}
	return s.regions[index], nil
}

// Submit hands a buffer to the link. Submitting an index the link
// already holds reports the double queue as an error, the way a real
// driver rejects a repeated QBUF.
func (h *HAL) Submit(index int, meta hal.Metadata) error {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return pkg.ErrNotOpen
	}
	if index < 0 || index >= s.granted {
		return fmt.Errorf("submit buffer %d of %d: %w", index, s.granted, pkg.ErrBufferIndex)
	}
	if s.regions[index].Data == nil {
		return fmt.Errorf("submit buffer %d: %w", index, pkg.ErrNotMapped)
	}
	if s.held[index] {
		return fmt.Errorf("submit buffer %d twice: %w", index, pkg.ErrInvalidParameter)
	}
	s.held[index] = true
	s.pending.Add(pendingEntry{index: index, meta: meta})

	pkg.LogDebug(pkg.ComponentHAL, "buffer submitted",
		"direction", h.dir.String(),
		"index", index,
		"bytesused", meta.BytesUsed)

	l.pump()
	return nil
}

// WaitCompleted blocks until the link completes a buffer on this side
// and returns its index and completion metadata.
func (h *HAL) WaitCompleted() (int, hal.Metadata, error) {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return 0, hal.Metadata{}, pkg.ErrNotOpen
	}
	if s.granted == 0 {
		return 0, hal.Metadata{}, fmt.Errorf("dequeue with no buffers granted: %w", pkg.ErrInvalidParameter)
	}
	for s.completed.Length() == 0 {
		if l.closed {
			return 0, hal.Metadata{}, pkg.ErrClosed
		}
		l.cond.Wait()
	}
	c := s.completed.Remove().(completion)
	if c.index >= 0 && c.index < len(s.held) {
		s.held[c.index] = false
	}

	pkg.LogDebug(pkg.ComponentHAL, "buffer completed",
		"direction", h.dir.String(),
		"index", c.index,
		"sequence", c.meta.Sequence)
	return c.index, c.meta, nil
}

// StreamOn starts this side's transfer engine. Frames flow once both
// sides are streaming.
func (h *HAL) StreamOn() error {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return pkg.ErrNotOpen
	}
	if s.streaming {
		return pkg.ErrAlreadyStreaming
	}
	s.streaming = true

	pkg.LogInfo(pkg.ComponentHAL, "stream on", "direction", h.dir.String())

	l.pump()
	return nil
}

// StreamOff stops this side's transfer engine and discards its queues.
func (h *HAL) StreamOff() error {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return pkg.ErrNotOpen
	}
	if !s.streaming {
		return pkg.ErrNotStreaming
	}
	s.streaming = false
	s.pending = queue.New()
	s.completed = queue.New()
	for i := range s.held {
		s.held[i] = false
	}

	pkg.LogInfo(pkg.ComponentHAL, "stream off", "direction", h.dir.String())
	return nil
}

// Close closes this side and wakes any blocked WaitCompleted on the
// link with [pkg.ErrClosed].
func (h *HAL) Close() error {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	if !s.open {
		return pkg.ErrNotOpen
	}
	s.open = false
	s.streaming = false
	s.regions = nil
	s.held = nil

	// The link dies with its first closed side.
	l.closed = true
	l.cond.Broadcast()

	pkg.LogInfo(pkg.ComponentHAL, "loopback side closed", "direction", h.dir.String())
	return nil
}

// InjectCompleted appends a completion for index on this side without a
// matching submit. Test support: lets callers observe how the ownership
// core reacts to a driver that reports a spurious index.
func (h *HAL) InjectCompleted(index int, meta hal.Metadata) {
	l := h.link
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.side(h.dir)
	s.completed.Add(completion{index: index, meta: meta})
	l.cond.Broadcast()
}

// Compile-time interface check
var _ hal.VideoHAL = (*HAL)(nil)
