package stream

import (
	"fmt"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/stream/hal"
)

// Buffer is one fixed memory region shared with the driver.
type Buffer struct {
	// Index is stable for the endpoint's lifetime
	Index int

	// Region is the memory shared with the driver via the backend's
	// mapping
	Region hal.Region

	// Meta is the transfer metadata, populated by whichever party
	// currently owns the buffer
	Meta hal.Metadata
}

// Pool is an ordered, fixed-length collection of buffers belonging to
// one endpoint. It is created once at endpoint setup from the
// driver-granted count and never resized; the backend unmaps the
// regions when the endpoint closes.
type Pool struct {
	buffers []Buffer
}

// NewPool builds a pool over the mapped regions, one buffer per index.
func NewPool(regions []hal.Region) *Pool {
	buffers := make([]Buffer, len(regions))
	for i, r := range regions {
		buffers[i] = Buffer{Index: i, Region: r}
	}
	return &Pool{buffers: buffers}
}

// Len returns the pool size N.
func (p *Pool) Len() int {
	return len(p.buffers)
}

// Buffer returns the buffer at index i. The pointer stays valid for the
// pool's lifetime, so metadata updates stick.
func (p *Pool) Buffer(i int) (*Buffer, error) {
	if i < 0 || i >= len(p.buffers) {
		return nil, fmt.Errorf("buffer %d of %d: %w", i, len(p.buffers), pkg.ErrBufferIndex)
	}
	return &p.buffers[i], nil
}
