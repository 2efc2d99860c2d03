package stream

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/vidq/pkg"
	"github.com/ardnew/vidq/pkg/fourcc"
	"github.com/ardnew/vidq/stream/hal"
)

// Scenario configures one complete exerciser run: which device nodes to
// open, the frame format to negotiate, and how hard to drive the link.
type Scenario struct {
	// Source is the output-direction device path
	Source string `yaml:"source"`

	// Sink is the capture-direction device path
	Sink string `yaml:"sink"`

	// Width and Height are the negotiated frame dimensions
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`

	// Format is the FourCC pixel format code, e.g. "YU12"
	Format string `yaml:"format"`

	// Buffers is the pool size requested per endpoint
	Buffers int `yaml:"buffers"`

	// Cycles is the number of consume/produce rounds to run
	Cycles int `yaml:"cycles"`
}

// DefaultScenario mirrors the reference run: two buffers per endpoint
// and fifty cycles of 800x600 planar YUV 4:2:0 over one loopback node.
func DefaultScenario() Scenario {
	return Scenario{
		Source:  "/dev/video0",
		Sink:    "/dev/video0",
		Width:   800,
		Height:  600,
		Format:  "YU12",
		Buffers: 2,
		Cycles:  50,
	}
}

// LoadScenario reads a YAML scenario file. Omitted fields keep their
// DefaultScenario values; the result is validated before return.
func LoadScenario(path string) (Scenario, error) {
	s := DefaultScenario()

	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the scenario for values no run could accept.
func (s Scenario) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("source device required: %w", pkg.ErrInvalidParameter)
	}
	if s.Sink == "" {
		return fmt.Errorf("sink device required: %w", pkg.ErrInvalidParameter)
	}
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("frame size %dx%d: %w", s.Width, s.Height, pkg.ErrInvalidParameter)
	}
	if _, err := fourcc.Parse(s.Format); err != nil {
		return fmt.Errorf("format %q: %w", s.Format, err)
	}
	if s.Buffers < MinPoolSize {
		return fmt.Errorf("%d buffers per endpoint: %w", s.Buffers, pkg.ErrPoolTooSmall)
	}
	if s.Cycles < 1 {
		return fmt.Errorf("%d cycles: %w", s.Cycles, pkg.ErrInvalidParameter)
	}
	return nil
}

// PixelFormat returns the scenario's parsed FourCC code.
func (s Scenario) PixelFormat() (fourcc.Code, error) {
	return fourcc.Parse(s.Format)
}

// SourceConfig builds the output endpoint's setup parameters.
func (s Scenario) SourceConfig() (EndpointConfig, error) {
	code, err := fourcc.Parse(s.Format)
	if err != nil {
		return EndpointConfig{}, fmt.Errorf("format %q: %w", s.Format, err)
	}
	return EndpointConfig{
		Path:      s.Source,
		Direction: hal.DirectionOutput,
		Format:    hal.Format{Width: s.Width, Height: s.Height, PixelFormat: code},
		Buffers:   s.Buffers,
	}, nil
}

// SinkConfig builds the capture endpoint's setup parameters.
func (s Scenario) SinkConfig() (EndpointConfig, error) {
	code, err := fourcc.Parse(s.Format)
	if err != nil {
		return EndpointConfig{}, fmt.Errorf("format %q: %w", s.Format, err)
	}
	return EndpointConfig{
		Path:      s.Sink,
		Direction: hal.DirectionCapture,
		Format:    hal.Format{Width: s.Width, Height: s.Height, PixelFormat: code},
		Buffers:   s.Buffers,
	}, nil
}
