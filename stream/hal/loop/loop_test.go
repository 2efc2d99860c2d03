package loop

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/pkg/fourcc"
	"github.com/ardnew/vidq/stream/hal"
)

// testFormat keeps frame allocations small in tests.
var testFormat = hal.Format{Width: 16, Height: 16, PixelFormat: fourcc.YUYV}

// newOpenPair opens both sides of a fresh link.
func newOpenPair(t *testing.T) (*HAL, *HAL) {
	t.Helper()
	link := NewLink()
	src, snk := link.Source(), link.Sink()

	ctx := context.Background()
	if err := src.Open(ctx, hal.Config{Path: "loop:out", Direction: hal.DirectionOutput}); err != nil {
		t.Fatalf("Open(output) error = %v", err)
	}
	if err := snk.Open(ctx, hal.Config{Path: "loop:cap", Direction: hal.DirectionCapture}); err != nil {
		t.Fatalf("Open(capture) error = %v", err)
	}
	return src, snk
}

// newStreamingPair opens both sides, negotiates testFormat, maps count
// buffers on each side, and turns both streams on.
func newStreamingPair(t *testing.T, count int) (*HAL, *HAL) {
	t.Helper()
	src, snk := newOpenPair(t)

	if _, err := src.NegotiateFormat(testFormat); err != nil {
		t.Fatalf("NegotiateFormat() error = %v", err)
	}
	for _, h := range []*HAL{src, snk} {
		n, err := h.RequestBuffers(count)
		if err != nil {
			t.Fatalf("RequestBuffers(%d) error = %v", count, err)
		}
		if n != count {
			t.Fatalf("RequestBuffers(%d) = %d, want %d", count, n, count)
		}
		for i := 0; i < n; i++ {
			if _, err := h.MapBuffer(i); err != nil {
				t.Fatalf("MapBuffer(%d) error = %v", i, err)
			}
		}
		if err := h.StreamOn(); err != nil {
			t.Fatalf("StreamOn() error = %v", err)
		}
	}
	return src, snk
}

func TestOpenDirectionMismatch(t *testing.T) {
	link := NewLink()
	src := link.Source()

	err := src.Open(context.Background(), hal.Config{Direction: hal.DirectionCapture})
	if !errors.Is(err, pkg.ErrWrongDirection) {
		t.Errorf("Open() error = %v, want %v", err, pkg.ErrWrongDirection)
	}
}

func TestOpenTwice(t *testing.T) {
	link := NewLink()
	src := link.Source()
	cfg := hal.Config{Direction: hal.DirectionOutput}

	ctx := context.Background()
	if err := src.Open(ctx, cfg); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := src.Open(ctx, cfg); !errors.Is(err, pkg.ErrAlreadyOpen) {
		t.Errorf("second Open() error = %v, want %v", err, pkg.ErrAlreadyOpen)
	}
}

func TestNegotiateFormat(t *testing.T) {
	src, snk := newOpenPair(t)

	got, err := src.NegotiateFormat(testFormat)
	if err != nil {
		t.Fatalf("NegotiateFormat() error = %v", err)
	}
	if got != testFormat {
		t.Errorf("NegotiateFormat() = %+v, want %+v", got, testFormat)
	}

	// Both sides share the link format.
	if f := snk.link.Format(); f != testFormat {
		t.Errorf("link format = %+v, want %+v", f, testFormat)
	}
}

func TestNegotiateFormatCompressed(t *testing.T) {
	src, _ := newOpenPair(t)

	// MJPEG has no computable frame size, so the link cannot back it
	// with fixed regions.
	_, err := src.NegotiateFormat(hal.Format{Width: 16, Height: 16, PixelFormat: fourcc.MJPEG})
	if !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("NegotiateFormat(MJPEG) error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestNegotiateFormatWhileMapped(t *testing.T) {
	src, _ := newOpenPair(t)

	if _, err := src.NegotiateFormat(testFormat); err != nil {
		t.Fatalf("NegotiateFormat() error = %v", err)
	}
	if _, err := src.RequestBuffers(1); err != nil {
		t.Fatalf("RequestBuffers() error = %v", err)
	}
	if _, err := src.MapBuffer(0); err != nil {
		t.Fatalf("MapBuffer() error = %v", err)
	}

	_, err := src.NegotiateFormat(testFormat)
	if !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("NegotiateFormat() with mapped buffers error = %v, want %v", err, pkg.ErrBusy)
	}
}

func TestRequestBuffers(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		want    int
		wantErr error
	}{
		{"two", 2, 2, nil},
		{"clamped", MaxBuffers + 10, MaxBuffers, nil},
		{"zero", 0, 0, pkg.ErrInvalidParameter},
		{"negative", -1, 0, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := newOpenPair(t)
			got, err := src.RequestBuffers(tt.count)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequestBuffers(%d) error = %v, want %v", tt.count, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RequestBuffers(%d) = %d, want %d", tt.count, got, tt.want)
			}
		})
	}
}

func TestRequestBuffersWhileStreaming(t *testing.T) {
	src, _ := newStreamingPair(t, 2)

	_, err := src.RequestBuffers(2)
	if !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("RequestBuffers() while streaming error = %v, want %v", err, pkg.ErrBusy)
	}
}

func TestMapBufferOutOfRange(t *testing.T) {
	src, _ := newOpenPair(t)

	if _, err := src.NegotiateFormat(testFormat); err != nil {
		t.Fatalf("NegotiateFormat() error = %v", err)
	}
	if _, err := src.RequestBuffers(2); err != nil {
		t.Fatalf("RequestBuffers() error = %v", err)
	}

	if _, err := src.MapBuffer(2); !errors.Is(err, pkg.ErrBufferIndex) {
		t.Errorf("MapBuffer(2) error = %v, want %v", err, pkg.ErrBufferIndex)
	}
	if _, err := src.MapBuffer(-1); !errors.Is(err, pkg.ErrBufferIndex) {
		t.Errorf("MapBuffer(-1) error = %v, want %v", err, pkg.ErrBufferIndex)
	}
}

func TestSubmitUnmapped(t *testing.T) {
	src, _ := newOpenPair(t)

	if _, err := src.NegotiateFormat(testFormat); err != nil {
		t.Fatalf("NegotiateFormat() error = %v", err)
	}
	if _, err := src.RequestBuffers(2); err != nil {
		t.Fatalf("RequestBuffers() error = %v", err)
	}

	err := src.Submit(0, hal.Metadata{})
	if !errors.Is(err, pkg.ErrNotMapped) {
		t.Errorf("Submit() error = %v, want %v", err, pkg.ErrNotMapped)
	}
}

func TestSubmitTwice(t *testing.T) {
	src, _ := newStreamingPair(t, 2)

	if err := src.Submit(0, hal.Metadata{}); err != nil {
		t.Fatalf("Submit(0) error = %v", err)
	}
	if err := src.Submit(0, hal.Metadata{}); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("second Submit(0) error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestPairingOrder(t *testing.T) {
	src, snk := newStreamingPair(t, 2)

	for i := 0; i < 2; i++ {
		if err := src.Submit(i, hal.Metadata{BytesUsed: 512}); err != nil {
			t.Fatalf("source Submit(%d) error = %v", i, err)
		}
		if err := snk.Submit(i, hal.Metadata{}); err != nil {
			t.Fatalf("sink Submit(%d) error = %v", i, err)
		}
	}

	// Completions come back oldest first on both sides, with a shared
	// rising sequence number.
	for i := 0; i < 2; i++ {
		idx, meta, err := snk.WaitCompleted()
		if err != nil {
			t.Fatalf("sink WaitCompleted() error = %v", err)
		}
		if idx != i {
			t.Errorf("sink WaitCompleted() index = %d, want %d", idx, i)
		}
		if meta.Sequence != uint32(i+1) {
			t.Errorf("sink WaitCompleted() sequence = %d, want %d", meta.Sequence, i+1)
		}

		idx, meta, err = src.WaitCompleted()
		if err != nil {
			t.Fatalf("source WaitCompleted() error = %v", err)
		}
		if idx != i {
			t.Errorf("source WaitCompleted() index = %d, want %d", idx, i)
		}
		if meta.Sequence != uint32(i+1) {
			t.Errorf("source WaitCompleted() sequence = %d, want %d", meta.Sequence, i+1)
		}
	}
}

func TestFrameCopy(t *testing.T) {
	src, snk := newStreamingPair(t, 1)

	out, err := src.MapBuffer(0)
	if err != nil {
		t.Fatalf("MapBuffer() error = %v", err)
	}
	for i := range out.Data {
		out.Data[i] = byte(i)
	}

	if err := snk.Submit(0, hal.Metadata{}); err != nil {
		t.Fatalf("sink Submit() error = %v", err)
	}
	if err := src.Submit(0, hal.Metadata{BytesUsed: uint32(len(out.Data))}); err != nil {
		t.Fatalf("source Submit() error = %v", err)
	}

	idx, meta, err := snk.WaitCompleted()
	if err != nil {
		t.Fatalf("WaitCompleted() error = %v", err)
	}
	if idx != 0 {
		t.Fatalf("WaitCompleted() index = %d, want 0", idx)
	}
	if meta.BytesUsed != uint32(len(out.Data)) {
		t.Errorf("WaitCompleted() bytesused = %d, want %d", meta.BytesUsed, len(out.Data))
	}

	in, err := snk.MapBuffer(0)
	if err != nil {
		t.Fatalf("MapBuffer() error = %v", err)
	}
	if !bytes.Equal(in.Data, out.Data) {
		t.Error("capture region does not match submitted frame")
	}
}

func TestPairingGatedOnBothStreaming(t *testing.T) {
	src, snk := newOpenPair(t)

	if _, err := src.NegotiateFormat(testFormat); err != nil {
		t.Fatalf("NegotiateFormat() error = %v", err)
	}
	for _, h := range []*HAL{src, snk} {
		if _, err := h.RequestBuffers(1); err != nil {
			t.Fatalf("RequestBuffers() error = %v", err)
		}
		if _, err := h.MapBuffer(0); err != nil {
			t.Fatalf("MapBuffer() error = %v", err)
		}
	}

	// Only the source streams; submissions on both sides must not pair.
	if err := src.StreamOn(); err != nil {
		t.Fatalf("StreamOn() error = %v", err)
	}
	if err := src.Submit(0, hal.Metadata{}); err != nil {
		t.Fatalf("source Submit() error = %v", err)
	}
	if err := snk.Submit(0, hal.Metadata{}); err != nil {
		t.Fatalf("sink Submit() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		snk.WaitCompleted()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitCompleted() returned before sink StreamOn()")
	case <-time.After(20 * time.Millisecond):
	}

	if err := snk.StreamOn(); err != nil {
		t.Fatalf("sink StreamOn() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitCompleted() did not return after sink StreamOn()")
	}
}

func TestCloseWakesWaiter(t *testing.T) {
	src, snk := newStreamingPair(t, 1)

	errc := make(chan error, 1)
	go func() {
		_, _, err := snk.WaitCompleted()
		errc <- err
	}()

	// Give the waiter time to block before tearing down the link.
	time.Sleep(20 * time.Millisecond)
	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, pkg.ErrClosed) {
			t.Errorf("WaitCompleted() error = %v, want %v", err, pkg.ErrClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitCompleted() did not return after Close()")
	}
}

func TestWaitCompletedNoBuffers(t *testing.T) {
	src, _ := newOpenPair(t)

	_, _, err := src.WaitCompleted()
	if !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("WaitCompleted() error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestStreamOffResetsHeld(t *testing.T) {
	src, _ := newStreamingPair(t, 1)

	if err := src.Submit(0, hal.Metadata{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := src.StreamOff(); err != nil {
		t.Fatalf("StreamOff() error = %v", err)
	}
	if err := src.StreamOn(); err != nil {
		t.Fatalf("StreamOn() error = %v", err)
	}

	// StreamOff dropped the pending entry and released the index.
	if err := src.Submit(0, hal.Metadata{}); err != nil {
		t.Errorf("Submit() after StreamOff error = %v", err)
	}
}

func TestStreamOnOffStateErrors(t *testing.T) {
	src, _ := newStreamingPair(t, 1)

	if err := src.StreamOn(); !errors.Is(err, pkg.ErrAlreadyStreaming) {
		t.Errorf("StreamOn() while streaming error = %v, want %v", err, pkg.ErrAlreadyStreaming)
	}
	if err := src.StreamOff(); err != nil {
		t.Fatalf("StreamOff() error = %v", err)
	}
	if err := src.StreamOff(); !errors.Is(err, pkg.ErrNotStreaming) {
		t.Errorf("StreamOff() while stopped error = %v, want %v", err, pkg.ErrNotStreaming)
	}
}

func TestInjectCompleted(t *testing.T) {
	_, snk := newStreamingPair(t, 2)

	snk.InjectCompleted(7, hal.Metadata{Sequence: 99})

	idx, meta, err := snk.WaitCompleted()
	if err != nil {
		t.Fatalf("WaitCompleted() error = %v", err)
	}
	if idx != 7 {
		t.Errorf("WaitCompleted() index = %d, want 7", idx)
	}
	if meta.Sequence != 99 {
		t.Errorf("WaitCompleted() sequence = %d, want 99", meta.Sequence)
	}
}

func TestNotOpenErrors(t *testing.T) {
	link := NewLink()
	src := link.Source()

	if _, err := src.NegotiateFormat(testFormat); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("NegotiateFormat() error = %v, want %v", err, pkg.ErrNotOpen)
	}
	if _, err := src.RequestBuffers(1); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("RequestBuffers() error = %v, want %v", err, pkg.ErrNotOpen)
	}
	if _, err := src.MapBuffer(0); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("MapBuffer() error = %v, want %v", err, pkg.ErrNotOpen)
	}
	if err := src.Submit(0, hal.Metadata{}); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("Submit() error = %v, want %v", err, pkg.ErrNotOpen)
	}
	if _, _, err := src.WaitCompleted(); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("WaitCompleted() error = %v, want %v", err, pkg.ErrNotOpen)
	}
	if err := src.StreamOn(); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("StreamOn() error = %v, want %v", err, pkg.ErrNotOpen)
	}
	if err := src.Close(); !errors.Is(err, pkg.ErrNotOpen) {
		t.Errorf("Close() error = %v, want %v", err, pkg.ErrNotOpen)
	}
}

func TestOpenAfterLinkClosed(t *testing.T) {
	src, snk := newOpenPair(t)

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := snk.Close(); err != nil {
		t.Fatalf("sink Close() error = %v", err)
	}

	err := src.Open(context.Background(), hal.Config{Direction: hal.DirectionOutput})
	if !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("Open() after Close() error = %v, want %v", err, pkg.ErrClosed)
	}
}
