// Package prof provides profiling utilities for the streaming exerciser.
//
// This package wraps [runtime/pprof] with simplified APIs for on-demand
// profiling. It is conditionally compiled using the "profile" build tag:
//
//	go build -tags profile
//	go test -tags profile
//
// When built without the "profile" tag, all exported functions become no-ops,
// allowing profiling code to remain in place without overhead in normal runs.
//
// # HTTP Profiling
//
// When built with the "profile" tag, the package automatically serves the
// [net/http/pprof] handlers on localhost:6060, so a long exerciser run can
// be inspected live at http://localhost:6060/debug/pprof/
//
// # CPU Profiling
//
// CPU profiling streams samples over an interval and requires explicit
// start/stop, typically bracketing the cycle loop:
//
//	prof.StartCPU("cpu.prof")
//	defer prof.StopCPU()
//	// ... run the streaming loop ...
//
// Attempting to start CPU profiling while already active returns
// [ErrCPUProfileActive].
//
// # Snapshot Profiles
//
// Other profiles capture a point-in-time snapshot, usually taken after the
// loop finishes:
//
//	prof.Write(prof.ProfileHeap, "heap.prof")
//	prof.Write(prof.ProfileBlock, "block.prof")
//
// The block profile is the interesting one for this program: the streaming
// loop's only suspension point is the blocking dequeue, so blocked time
// concentrated anywhere else indicates an ownership bug. Block and mutex
// profiles require enabling at runtime before the run:
//
//	prof.SetBlockProfileRate(1)     // Enable block profiling
//	prof.SetMutexProfileFraction(1) // Enable mutex profiling
package prof
