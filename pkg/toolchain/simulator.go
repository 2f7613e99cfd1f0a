package toolchain

import (
	"context"
	"time"
)

// Simulator executes a memory image and dumps the final machine state:
//
//	simulate <memory_image> -o <snapshot.json> [--config <section> <key> <value>]*
type Simulator struct {
	tool    *Tool
	timeout time.Duration
}

func NewSimulator(tool *Tool, timeout time.Duration) *Simulator {
	return &Simulator{tool: tool, timeout: timeout}
}

func (s *Simulator) Tool() *Tool {
	return s.tool
}

// ConfigFlag renders a single configuration override
func ConfigFlag(section, key, value string) []string {
	return []string{"--config", section, key, value}
}

func (s *Simulator) Simulate(ctx context.Context, image string, snapshot string, flags []string) (*Result, error) {
	args := append([]string{image, "-o", snapshot}, flags...)

	result, err := s.tool.Run(ctx, s.timeout, args...)
	if err != nil {
		return result, err
	}

	return result, expectOutput(result, snapshot)
}
