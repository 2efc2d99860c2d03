package stream

import (
	"fmt"

	"github.com/ardnew/vidq/pkg"
)

// Loop drives the consumer and producer policies for a bounded number
// of cycles. Each cycle makes consumer progress before producer
// progress, keeping buffer turnover on the two endpoints interleaved so
// neither side builds up an unbounded backlog.
type Loop struct {
	producer *Producer
	consumer *Consumer

	cycles int
	done   int
}

// NewLoop creates a loop that will run the given number of cycles.
func NewLoop(p *Producer, c *Consumer, cycles int) (*Loop, error) {
	if cycles < 1 {
		return nil, fmt.Errorf("cycle count %d: %w", cycles, pkg.ErrInvalidParameter)
	}
	return &Loop{producer: p, consumer: c, cycles: cycles}, nil
}

// Start queues the initial frames and turns both streams on: the
// producer enqueues its first buffer, the consumer primes its queue,
// then the source starts before the sink.
func (l *Loop) Start() error {
	if err := l.producer.ProduceNext(); err != nil {
		return fmt.Errorf("queue first frame: %w", err)
	}
	if err := l.consumer.Prime(); err != nil {
		return fmt.Errorf("prime consumer: %w", err)
	}
	if err := l.producer.ep.StreamOn(); err != nil {
		return err
	}
	if err := l.consumer.ep.StreamOn(); err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentLoop, "streaming loop started", "cycles", l.cycles)
	return nil
}

// Run executes the configured cycles, stopping at the first error. The
// conservation invariant is audited on both endpoints after every
// cycle.
func (l *Loop) Run() error {
	for i := 1; i <= l.cycles; i++ {
		if _, err := l.consumer.ConsumeNext(); err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
		if err := l.producer.ProduceNext(); err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
		if err := l.audit(); err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
		l.done = i

		pkg.LogDebug(pkg.ComponentLoop, "cycle complete",
			"cycle", i,
			"inhand", l.consumer.InHand())
	}

	pkg.LogInfo(pkg.ComponentLoop, "streaming loop finished", "cycles", l.done)
	return nil
}

// Stop turns both streams off, sink first.
func (l *Loop) Stop() error {
	if err := l.consumer.ep.StreamOff(); err != nil {
		return err
	}
	if err := l.producer.ep.StreamOff(); err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentLoop, "streaming loop stopped", "cycles", l.done)
	return nil
}

// Cycles reports how many cycles have completed.
func (l *Loop) Cycles() int {
	return l.done
}

// audit checks the conservation invariant on both endpoints: every
// buffer is owned by exactly one party, so the per-party counts must
// sum to the pool size.
func (l *Loop) audit() error {
	for _, ep := range []*Endpoint{l.consumer.ep, l.producer.ep} {
		app, driver := ep.Tracker().Counts()
		if app+driver != ep.Pool().Len() {
			return fmt.Errorf("%s endpoint accounts for %d+%d of %d buffers: %w",
				ep.Direction(), app, driver, ep.Pool().Len(), pkg.ErrProtocolViolation)
		}
	}
	return nil
}
