// Package loop implements an in-memory loopback HAL for streaming video
// pipelines.
//
// This HAL is primarily intended for testing and simulation purposes. It
// joins an output-side handle and a capture-side handle over one shared
// [Link], so the buffer ownership machinery in package stream can be
// exercised end to end without a kernel video device.
//
// # Architecture
//
// A [Link] carries the shared state of both sides:
//
//	Link
//	├── format                  # One frame format, shared by both sides
//	├── output (half)           # Producer side: pending and completed FIFOs
//	└── capture (half)          # Consumer side: pending and completed FIFOs
//
// Each side submits buffers into its pending FIFO. Once both sides are
// streaming, the link pairs the oldest pending output buffer with the
// oldest pending capture buffer, copies the frame payload between their
// regions, and appends a completion to each side's completed FIFO. The
// pairing runs synchronously under the link lock from Submit and
// StreamOn, so a single-threaded caller observes deterministic FIFO
// completion order.
//
// # Blocking Semantics
//
// WaitCompleted blocks on a condition variable until a completion is
// available for its side. There is no timeout: a link that never pairs a
// frame leaves the caller visibly blocked, matching how a blocking DQBUF
// behaves on a device that produces no data. Closing either side wakes
// all waiters with an error, since a loopback is useless with one end.
//
// # Fault Injection
//
// [HAL.InjectCompleted] appends a completion that no submit produced.
// Tests use it to present the ownership layer with a driver that returns
// an index the application never enqueued.
//
// # Usage
//
//	link := loop.NewLink()
//	src, snk := link.Source(), link.Sink()
//
//	src.Open(ctx, hal.Config{Path: "loop:out", Direction: hal.DirectionOutput})
//	snk.Open(ctx, hal.Config{Path: "loop:cap", Direction: hal.DirectionCapture})
//
//	want := hal.Format{Width: 800, Height: 600, PixelFormat: fourcc.YUV420}
//	got, _ := src.NegotiateFormat(want)
//
//	n, _ := src.RequestBuffers(2)
//	for i := 0; i < n; i++ {
//	    src.MapBuffer(i)
//	}
//
// The capture side performs the same setup with its own handle, then both
// call StreamOn and exchange frames through Submit and WaitCompleted.
package loop
