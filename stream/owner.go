package stream

import (
	"fmt"
	"strings"

	"github.com/ardnew/vidq/pkg"
)

// Owner identifies which party may touch a buffer's memory and metadata.
type Owner uint8

const (
	// OwnerApplication means the application may read and write the
	// buffer's region and metadata.
	OwnerApplication Owner = iota

	// OwnerDriver means the driver holds the buffer. The application
	// must not touch the region until a dequeue returns the index.
	OwnerDriver
)

// String returns a human-readable owner name.
func (o Owner) String() string {
	switch o {
	case OwnerApplication:
		return "application"
	case OwnerDriver:
		return "driver"
	default:
		return fmt.Sprintf("Owner(%d)", uint8(o))
	}
}

// Tracker records the owner of every buffer in a pool. At every
// observable instant each buffer has exactly one owner; the only
// mutation paths are MarkEnqueued and MarkDequeued, so every ownership
// transfer is auditable at a single choke point.
type Tracker struct {
	owners []Owner
}

// NewTracker creates a tracker for n buffers, all application-owned.
// Freshly mapped buffers belong to the application until first enqueued.
func NewTracker(n int) *Tracker {
	return &Tracker{owners: make([]Owner, n)}
}

// Len returns the number of tracked buffers.
func (t *Tracker) Len() int {
	return len(t.owners)
}

// OwnedByApplication reports whether buffer i is application-owned.
// Out-of-range indices are owned by nobody.
func (t *Tracker) OwnedByApplication(i int) bool {
	return i >= 0 && i < len(t.owners) && t.owners[i] == OwnerApplication
}

// OwnedByDriver reports whether buffer i is driver-owned.
func (t *Tracker) OwnedByDriver(i int) bool {
	return i >= 0 && i < len(t.owners) && t.owners[i] == OwnerDriver
}

// MarkEnqueued records the application handing buffer i to the driver.
// The buffer must currently be application-owned; enqueuing a buffer
// the driver already holds is a protocol violation.
func (t *Tracker) MarkEnqueued(i int) error {
	if i < 0 || i >= len(t.owners) {
		return fmt.Errorf("enqueue buffer %d of %d: %w", i, len(t.owners), pkg.ErrBufferIndex)
	}
	if t.owners[i] != OwnerApplication {
		return fmt.Errorf("enqueue buffer %d owned by %s: %w", i, t.owners[i], pkg.ErrProtocolViolation)
	}
	t.owners[i] = OwnerDriver
	return nil
}

// MarkDequeued records the driver returning buffer i to the application.
// The buffer must currently be driver-owned; a completion for a buffer
// the application already holds is a protocol violation.
func (t *Tracker) MarkDequeued(i int) error {
	if i < 0 || i >= len(t.owners) {
		return fmt.Errorf("dequeue buffer %d of %d: %w", i, len(t.owners), pkg.ErrBufferIndex)
	}
	if t.owners[i] != OwnerDriver {
		return fmt.Errorf("dequeue buffer %d owned by %s: %w", i, t.owners[i], pkg.ErrProtocolViolation)
	}
	t.owners[i] = OwnerApplication
	return nil
}

// Counts returns how many buffers each party owns. The sum equals Len
// whenever the tracker is consistent; the loop audits exactly that.
func (t *Tracker) Counts() (app, driver int) {
	for _, o := range t.owners {
		switch o {
		case OwnerApplication:
			app++
		case OwnerDriver:
			driver++
		}
	}
	return app, driver
}

// String renders one letter per buffer index, A for application-owned
// and D for driver-owned.
func (t *Tracker) String() string {
	var b strings.Builder
	for _, o := range t.owners {
		switch o {
		case OwnerApplication:
			b.WriteByte('A')
		case OwnerDriver:
			b.WriteByte('D')
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
