// Package fourcc identifies pixel formats by their FourCC codes.
//
// A FourCC is four ASCII characters packed little-endian into a uint32,
// the representation V4L2 uses for v4l2_pix_format.pixelformat. The
// package provides the packing, string parsing and rendering, and frame
// size arithmetic for the common uncompressed formats.
//
// # Usage
//
// Parse a code from configuration:
//
//	code, err := fourcc.Parse("YU12")
//
// Render one for a log line:
//
//	pkg.LogInfo(pkg.ComponentHAL, "format negotiated", "pixelformat", code)
//
// Compute the byte size of one frame for buffer allocation:
//
//	if n, ok := code.SizeImage(800, 600); ok {
//	    // n is 720000 for YU12
//	}
//
// [Code.SizeImage] reports ok=false for compressed formats such as
// [MJPEG] and [H264], whose frame size depends on content.
package fourcc
