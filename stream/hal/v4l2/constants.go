package v4l2

import "fmt"

// =============================================================================
// Buffer Queue Types
// =============================================================================

// Buffer queue types passed in the type field of format, request, and
// buffer structures. A capture queue delivers frames from the device,
// an output queue accepts frames for the device.
const (
	bufTypeVideoCapture = 1
	bufTypeVideoOutput  = 2
)

// =============================================================================
// Memory and Field Modes
// =============================================================================

// memoryMmap selects driver-allocated buffers mapped into the process.
// It is the only streaming I/O mode this package implements.
const memoryMmap = 1

// Interlacing modes for the format and buffer field members. Format
// negotiation asks for progressive frames when the driver reports no
// preference.
const (
	fieldAny  = 0
	fieldNone = 1
)

// =============================================================================
// Capability Flags
// =============================================================================

// Capability flags reported by VIDIOC_QUERYCAP.
const (
	capVideoCapture = 0x00000001
	capVideoOutput  = 0x00000002
	capReadWrite    = 0x01000000
	capStreaming    = 0x04000000
	capDeviceCaps   = 0x80000000
)

// =============================================================================
// Driver Identity
// =============================================================================

// Capability identifies the driver behind a video device node, as
// reported by VIDIOC_QUERYCAP.
type Capability struct {
	Driver     string
	Card       string
	BusInfo    string
	Version    uint32
	Caps       uint32
	DeviceCaps uint32
}

// caps returns the capability word that applies to the opened node.
// Drivers that set capDeviceCaps report per-node capabilities in
// DeviceCaps; older drivers only fill the device-wide Caps word.
func (c Capability) caps() uint32 {
	if c.Caps&capDeviceCaps != 0 {
		return c.DeviceCaps
	}
	return c.Caps
}

// Streaming reports whether the node supports streaming I/O.
func (c Capability) Streaming() bool {
	return c.caps()&capStreaming != 0
}

// VideoCapture reports whether the node has a capture queue.
func (c Capability) VideoCapture() bool {
	return c.caps()&capVideoCapture != 0
}

// VideoOutput reports whether the node has an output queue.
func (c Capability) VideoOutput() bool {
	return c.caps()&capVideoOutput != 0
}

// VersionString renders the KERNEL_VERSION-encoded driver version.
func (c Capability) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", c.Version>>16&0xff, c.Version>>8&0xff, c.Version&0xff)
}
