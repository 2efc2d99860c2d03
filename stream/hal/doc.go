// Package hal defines the hardware abstraction layer between the vidq
// buffer-ownership core and streaming video device backends.
//
// The core exercises the buffer ownership protocol; the HAL supplies the
// one-time setup calls (open, format negotiation, buffer allocation and
// mapping) and the enqueue/dequeue transport those state machines run on.
//
// # Design Principles
//
// The HAL is designed to be:
//
//   - Minimal: one-time setup plus the submit/wait transfer pair
//   - Direction-bound: one handle serves one endpoint direction
//   - Blocking: [VideoHAL.WaitCompleted] has no timeout or cancellation,
//     so a misbehaving driver hangs visibly instead of dropping frames
//
// # Interface Overview
//
// The [VideoHAL] interface defines the backend contract:
//
//   - Open / Close lifecycle with setup-time context cancellation
//   - NegotiateFormat, RequestBuffers, MapBuffer setup sequence
//   - Submit / WaitCompleted transfer transport
//   - StreamOn / StreamOff transfer engine control
//
// The backend promises that exactly the granted number of buffers exist
// and that every completion reports a previously submitted, not yet
// returned index. Completion order is transport-defined; callers must
// not assume submit order survives the driver.
//
// # Implementations
//
// Two backends ship with the module:
//
//   - [github.com/ardnew/vidq/stream/hal/loop]: an in-memory loopback
//     link for tests and examples
//   - [github.com/ardnew/vidq/stream/hal/v4l2]: the Linux V4L2 backend
//     for real /dev/video* nodes
package hal
