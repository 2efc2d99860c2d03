package stream

import (
	"context"
	"fmt"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/stream/hal"
)

// MinPoolSize is the smallest usable pool. With a single buffer the
// producer would reclaim its only buffer every cycle and the consumer
// could never hold a frame in hand without emptying the driver's queue.
const MinPoolSize = 2

// EndpointConfig carries the one-time setup parameters for an endpoint.
type EndpointConfig struct {
	// Path names the device; its meaning is backend-specific
	Path string

	// Direction fixes the endpoint's transfer direction for life
	Direction hal.Direction

	// Format is the desired frame format, negotiated on output
	// endpoints before buffers are allocated
	Format hal.Format

	// Buffers is the requested pool size. The driver may grant a
	// different count; the granted count becomes the pool size N.
	Buffers int
}

// Endpoint is one side of the streaming link: a device handle with a
// fixed transfer direction, the buffer pool mapped against it, and the
// ownership tracker guarding every buffer handoff.
type Endpoint struct {
	dev  hal.VideoHAL
	dir  hal.Direction
	path string

	format  hal.Format
	pool    *Pool
	tracker *Tracker
}

// Open performs the one-time endpoint setup against the backend: open
// the device, negotiate the format on output endpoints, request
// buffers, and map every granted index. All buffers start
// application-owned. A granted count below MinPoolSize fails setup.
func Open(ctx context.Context, dev hal.VideoHAL, cfg EndpointConfig) (*Endpoint, error) {
	if err := dev.Open(ctx, hal.Config{Path: cfg.Path, Direction: cfg.Direction}); err != nil {
		return nil, fmt.Errorf("open %s endpoint: %w", cfg.Direction, err)
	}

	format := cfg.Format
	if cfg.Direction == hal.DirectionOutput {
		negotiated, err := dev.NegotiateFormat(cfg.Format)
		if err != nil {
			dev.Close()
			return nil, fmt.Errorf("negotiate format: %w", err)
		}
		format = negotiated
	}

	granted, err := dev.RequestBuffers(cfg.Buffers)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("request %d buffers: %w", cfg.Buffers, err)
	}
	if granted < MinPoolSize {
		dev.Close()
		return nil, fmt.Errorf("driver granted %d buffers: %w", granted, pkg.ErrPoolTooSmall)
	}

	regions := make([]hal.Region, granted)
	for i := range regions {
		region, err := dev.MapBuffer(i)
		if err != nil {
			dev.Close()
			return nil, fmt.Errorf("map buffer %d: %w", i, err)
		}
		regions[i] = region
	}

	e := &Endpoint{
		dev:     dev,
		dir:     cfg.Direction,
		path:    cfg.Path,
		format:  format,
		pool:    NewPool(regions),
		tracker: NewTracker(granted),
	}

	pkg.LogInfo(pkg.ComponentEndpoint, "endpoint open",
		"direction", e.dir.String(),
		"path", e.path,
		"buffers", granted)
	return e, nil
}

// Direction returns the endpoint's fixed transfer direction.
func (e *Endpoint) Direction() hal.Direction {
	return e.dir
}

// Path returns the device name the endpoint was opened with.
func (e *Endpoint) Path() string {
	return e.path
}

// Format returns the frame format in effect on the endpoint.
func (e *Endpoint) Format() hal.Format {
	return e.format
}

// Pool returns the endpoint's buffer pool.
func (e *Endpoint) Pool() *Pool {
	return e.pool
}

// Tracker returns the endpoint's ownership tracker for inspection.
func (e *Endpoint) Tracker() *Tracker {
	return e.tracker
}

// Enqueue hands buffer i to the driver. On output endpoints the buffer
// metadata is stamped before submission (bytes-used covers the whole
// region, field flag cleared); capture endpoints submit empty metadata
// for the driver to fill on completion. After Enqueue returns the
// application must not touch the region until the index comes back from
// Dequeue.
func (e *Endpoint) Enqueue(i int) error {
	buf, err := e.pool.Buffer(i)
	if err != nil {
		return err
	}

	// The ownership transition comes first: a rejected enqueue must
	// leave the buffer's metadata exactly as the last dequeue set it.
	if err := e.tracker.MarkEnqueued(i); err != nil {
		return err
	}

	if e.dir == hal.DirectionOutput {
		buf.Meta = hal.Metadata{BytesUsed: uint32(buf.Region.Length())}
	} else {
		buf.Meta = hal.Metadata{}
	}

	if err := e.dev.Submit(i, buf.Meta); err != nil {
		return fmt.Errorf("submit %s buffer %d: %w", e.dir, i, err)
	}

	pkg.LogDebug(pkg.ComponentEndpoint, "buffer enqueued",
		"direction", e.dir.String(),
		"index", i,
		"owners", e.tracker.String())
	return nil
}

// Dequeue blocks until the driver completes a buffer and returns its
// index. The ownership transition uses the index reported by the
// driver, never a caller-supplied guess, so a double completion or a
// spurious index surfaces as a protocol violation instead of corrupted
// frame data. There is no timeout or cancellation; a driver that never
// completes leaves the caller visibly blocked.
func (e *Endpoint) Dequeue() (int, error) {
	idx, meta, err := e.dev.WaitCompleted()
	if err != nil {
		return 0, fmt.Errorf("wait %s completion: %w", e.dir, err)
	}

	if idx < 0 || idx >= e.pool.Len() {
		return 0, fmt.Errorf("driver completed unknown buffer %d of %d: %w",
			idx, e.pool.Len(), pkg.ErrProtocolViolation)
	}
	if err := e.tracker.MarkDequeued(idx); err != nil {
		return 0, err
	}
	e.pool.buffers[idx].Meta = meta

	pkg.LogDebug(pkg.ComponentEndpoint, "buffer dequeued",
		"direction", e.dir.String(),
		"index", idx,
		"sequence", meta.Sequence,
		"owners", e.tracker.String())
	return idx, nil
}

// StreamOn starts the driver's transfer engine for this endpoint.
// Output endpoints must have at least one buffer enqueued first so the
// engine does not race an empty queue.
func (e *Endpoint) StreamOn() error {
	if e.dir == hal.DirectionOutput {
		if _, driver := e.tracker.Counts(); driver == 0 {
			return fmt.Errorf("stream on %s with empty queue: %w", e.dir, pkg.ErrNoBuffersQueued)
		}
	}
	if err := e.dev.StreamOn(); err != nil {
		return fmt.Errorf("stream on %s: %w", e.dir, err)
	}

	pkg.LogInfo(pkg.ComponentEndpoint, "streaming started", "direction", e.dir.String())
	return nil
}

// StreamOff stops the driver's transfer engine.
func (e *Endpoint) StreamOff() error {
	if err := e.dev.StreamOff(); err != nil {
		return fmt.Errorf("stream off %s: %w", e.dir, err)
	}

	pkg.LogInfo(pkg.ComponentEndpoint, "streaming stopped", "direction", e.dir.String())
	return nil
}

// Close releases the endpoint. The backend stops streaming if needed,
// unmaps the pool regions, and closes the device handle.
func (e *Endpoint) Close() error {
	if err := e.dev.Close(); err != nil {
		return fmt.Errorf("close %s endpoint: %w", e.dir, err)
	}

	pkg.LogInfo(pkg.ComponentEndpoint, "endpoint closed",
		"direction", e.dir.String(),
		"path", e.path)
	return nil
}
