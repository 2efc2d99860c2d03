// Package stream implements the buffer ownership protocol for a
// bidirectional streaming video link.
//
// It is backend-agnostic and drives devices via the [hal.VideoHAL]
// interface defined in the [github.com/ardnew/vidq/stream/hal] package.
// The HAL exposes the one-time setup operations (open, format
// negotiation, buffer allocation and mapping) and the streaming
// transport (submit, wait, stream on/off), allowing the same protocol
// core to run against a real V4L2 device or an in-memory loopback link.
//
// # Architecture
//
// The package is organized around one invariant, buffer ownership:
//
//   - [Tracker] records which party owns each buffer and is the single
//     choke point for every ownership transition
//   - [Pool] is the fixed array of memory-mapped buffers for one endpoint
//   - [Endpoint] combines a device handle, a direction, a Pool, and a
//     Tracker, exposing the Enqueue and Dequeue primitives
//   - [Producer] recycles output buffers as fast as the driver drains them
//   - [Consumer] keeps exactly one completed frame in hand while the
//     rest cycle through the driver
//   - [Loop] alternates the two policies for a bounded number of cycles
//   - [Scenario] is the YAML-loadable run configuration
//
// # Ownership Protocol
//
// Every buffer is owned by exactly one party at every instant: the
// application (which may read and write the region) or the driver
// (which the application must not interfere with). [Endpoint.Enqueue]
// is the only application-to-driver transition and [Endpoint.Dequeue]
// the only driver-to-application transition. Both verify their
// precondition through the tracker and fail with
// [pkg.ErrProtocolViolation] when it does not hold: the protocol treats
// an ownership mismatch as a bug to expose loudly, never a condition to
// repair.
//
// # Blocking Model
//
// The core is single-threaded and synchronous. [Endpoint.Dequeue] is
// the sole blocking call; backpressure and pacing are realized there
// and nowhere else. There is deliberately no timeout or cancellation on
// that path.
//
// # Example
//
//	link := loop.NewLink()
//
//	src, _ := stream.Open(ctx, link.Source(), srcCfg)
//	snk, _ := stream.Open(ctx, link.Sink(), snkCfg)
//
//	producer, _ := stream.NewProducer(src)
//	consumer, _ := stream.NewConsumer(snk)
//
//	run, _ := stream.NewLoop(producer, consumer, 50)
//	run.Start()
//	run.Run()
//	run.Stop()
//
// An in-memory loopback backend for testing is available in
// [github.com/ardnew/vidq/stream/hal/loop]; the Linux V4L2 backend is
// [github.com/ardnew/vidq/stream/hal/v4l2].
package stream
