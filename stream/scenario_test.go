package stream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/pkg/fourcc"
	"github.com/ardnew/vidq/stream/hal"
)

func TestDefaultScenario(t *testing.T) {
	s := DefaultScenario()
	if err := s.Validate(); err != nil {
		t.Fatalf("DefaultScenario().Validate() error = %v", err)
	}
	if s.Buffers != 2 || s.Cycles != 50 {
		t.Errorf("DefaultScenario() = %d buffers, %d cycles, want 2, 50", s.Buffers, s.Cycles)
	}
	code, err := s.PixelFormat()
	if err != nil {
		t.Fatalf("PixelFormat() error = %v", err)
	}
	if code != fourcc.YUV420 {
		t.Errorf("PixelFormat() = %s, want %s", code, fourcc.YUV420)
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	conf := []byte("source: /dev/video4\nwidth: 640\nheight: 480\ncycles: 5\n")
	if err := os.WriteFile(path, conf, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario() error = %v", err)
	}

	// Named fields override, the rest keep defaults.
	if s.Source != "/dev/video4" || s.Width != 640 || s.Height != 480 || s.Cycles != 5 {
		t.Errorf("LoadScenario() = %+v, want overridden source, size, cycles", s)
	}
	if s.Sink != "/dev/video0" || s.Format != "YU12" || s.Buffers != 2 {
		t.Errorf("LoadScenario() = %+v, want default sink, format, buffers", s)
	}
}

func TestLoadScenarioMissing(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadScenario() on missing file error = nil")
	}
}

func TestLoadScenarioInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte("buffers: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); !errors.Is(err, pkg.ErrPoolTooSmall) {
		t.Errorf("LoadScenario() error = %v, want %v", err, pkg.ErrPoolTooSmall)
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   error
	}{
		{"no source", func(s *Scenario) { s.Source = "" }, pkg.ErrInvalidParameter},
		{"no sink", func(s *Scenario) { s.Sink = "" }, pkg.ErrInvalidParameter},
		{"zero width", func(s *Scenario) { s.Width = 0 }, pkg.ErrInvalidParameter},
		{"zero height", func(s *Scenario) { s.Height = 0 }, pkg.ErrInvalidParameter},
		{"bad format", func(s *Scenario) { s.Format = "nope!" }, fourcc.ErrMalformed},
		{"one buffer", func(s *Scenario) { s.Buffers = 1 }, pkg.ErrPoolTooSmall},
		{"zero cycles", func(s *Scenario) { s.Cycles = 0 }, pkg.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScenario()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScenarioConfigs(t *testing.T) {
	s := DefaultScenario()

	src, err := s.SourceConfig()
	if err != nil {
		t.Fatalf("SourceConfig() error = %v", err)
	}
	if src.Direction != hal.DirectionOutput {
		t.Errorf("SourceConfig().Direction = %s, want %s", src.Direction, hal.DirectionOutput)
	}
	if src.Format.PixelFormat != fourcc.YUV420 || src.Format.Width != 800 || src.Format.Height != 600 {
		t.Errorf("SourceConfig().Format = %+v, want 800x600 YU12", src.Format)
	}

	snk, err := s.SinkConfig()
	if err != nil {
		t.Fatalf("SinkConfig() error = %v", err)
	}
	if snk.Direction != hal.DirectionCapture {
		t.Errorf("SinkConfig().Direction = %s, want %s", snk.Direction, hal.DirectionCapture)
	}
	if snk.Path != s.Sink || snk.Buffers != s.Buffers {
		t.Errorf("SinkConfig() = %+v, want path %s, %d buffers", snk, s.Sink, s.Buffers)
	}

	s.Format = "bad"
	if _, err := s.SourceConfig(); !errors.Is(err, fourcc.ErrMalformed) {
		t.Errorf("SourceConfig() with bad format error = %v, want %v", err, fourcc.ErrMalformed)
	}
}
