package stream

import (
	"fmt"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/stream/hal"
)

// Consumer keeps exactly one completed frame in hand for inspection
// while the remaining buffers cycle through the driver. The in-hand
// index is application-owned in the tracker but deliberately not yet
// re-enqueued; it always names the freshest completed frame.
type Consumer struct {
	ep     *Endpoint
	inHand int
	primed bool
}

// NewConsumer creates a consumer for a capture-direction endpoint.
func NewConsumer(ep *Endpoint) (*Consumer, error) {
	if ep.Direction() != hal.DirectionCapture {
		return nil, fmt.Errorf("consumer on %s endpoint: %w", ep.Direction(), pkg.ErrWrongDirection)
	}
	return &Consumer{ep: ep, inHand: -1}, nil
}

// Endpoint returns the endpoint the consumer drives.
func (c *Consumer) Endpoint() *Endpoint {
	return c.ep
}

// Prime performs the initial fill before streaming starts: every buffer
// except the highest index is enqueued, and the highest index is taken
// in hand. For the two-buffer reference scenario this queues buffer 0
// and holds buffer 1.
func (c *Consumer) Prime() error {
	if c.primed {
		return fmt.Errorf("consumer already primed: %w", pkg.ErrBusy)
	}

	n := c.ep.Pool().Len()
	for i := 0; i < n-1; i++ {
		if err := c.ep.Enqueue(i); err != nil {
			return err
		}
	}
	c.inHand = n - 1
	c.primed = true

	pkg.LogDebug(pkg.ComponentConsumer, "primed",
		"queued", n-1,
		"inhand", c.inHand)
	return nil
}

// ConsumeNext rotates the in-hand frame: it blocks for the next
// completed buffer, returns the previously held frame to the driver's
// queue, and takes the completed index in hand. Returns the new in-hand
// index.
func (c *Consumer) ConsumeNext() (int, error) {
	if !c.primed {
		return 0, fmt.Errorf("consumer not primed: %w", pkg.ErrNoBuffersQueued)
	}

	completed, err := c.ep.Dequeue()
	if err != nil {
		return 0, err
	}
	if err := c.ep.Enqueue(c.inHand); err != nil {
		return 0, err
	}
	c.inHand = completed

	pkg.LogDebug(pkg.ComponentConsumer, "frame rotated", "inhand", completed)
	return completed, nil
}

// InHand returns the index currently held for inspection, or -1 before
// the consumer is primed.
func (c *Consumer) InHand() int {
	return c.inHand
}

// Frame returns the in-hand buffer, whose region and completion
// metadata the application may inspect until the next ConsumeNext.
func (c *Consumer) Frame() (*Buffer, error) {
	if c.inHand < 0 {
		return nil, fmt.Errorf("no frame in hand: %w", pkg.ErrNoBuffersQueued)
	}
	return c.ep.Pool().Buffer(c.inHand)
}
