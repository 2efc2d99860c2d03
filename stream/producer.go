package stream

import (
	"fmt"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/stream/hal"
)

// FrameFn paints a frame into an application-owned region before the
// producer hands it to the driver. It receives the buffer index and the
// region bytes; it must not retain the slice past the call.
type FrameFn func(index int, data []byte)

// Producer recycles an output endpoint's buffers as fast as the driver
// drains them. It never allocates beyond the fixed pool and blocks in
// the reclaiming dequeue when production outpaces consumption, which
// makes it self-throttling with no separate flow-control channel.
type Producer struct {
	ep    *Endpoint
	frame FrameFn
}

// NewProducer creates a producer for an output-direction endpoint.
func NewProducer(ep *Endpoint) (*Producer, error) {
	if ep.Direction() != hal.DirectionOutput {
		return nil, fmt.Errorf("producer on %s endpoint: %w", ep.Direction(), pkg.ErrWrongDirection)
	}
	return &Producer{ep: ep}, nil
}

// WithFrameFn sets the frame painter called before each enqueue. With
// no painter the region is handed to the driver as-is.
func (p *Producer) WithFrameFn(fn FrameFn) *Producer {
	p.frame = fn
	return p
}

// Endpoint returns the endpoint the producer drives.
func (p *Producer) Endpoint() *Endpoint {
	return p.ep
}

// ProduceNext hands the next frame to the driver. It scans indices in
// ascending order for the first application-owned buffer; if the pool
// is exhausted it reclaims exactly one buffer by dequeuing, blocking
// until the driver completes one. The chosen buffer is painted, stamped,
// and enqueued.
func (p *Producer) ProduceNext() error {
	idx := -1
	for i := 0; i < p.ep.Pool().Len(); i++ {
		if p.ep.Tracker().OwnedByApplication(i) {
			idx = i
			break
		}
	}
	if idx < 0 {
		reclaimed, err := p.ep.Dequeue()
		if err != nil {
			return err
		}
		idx = reclaimed

		pkg.LogDebug(pkg.ComponentProducer, "buffer reclaimed", "index", idx)
	}

	if p.frame != nil {
		buf, err := p.ep.Pool().Buffer(idx)
		if err != nil {
			return err
		}
		p.frame(idx, buf.Region.Data)
	}
	return p.ep.Enqueue(idx)
}
