package toolchain

import (
	"context"
	"time"
)

// Assembler turns an assembly source into a loadable memory image:
//
//	assemble <source.s> -o <memory_image>
type Assembler struct {
	tool    *Tool
	timeout time.Duration
}

func NewAssembler(tool *Tool, timeout time.Duration) *Assembler {
	return &Assembler{tool: tool, timeout: timeout}
}

func (a *Assembler) Tool() *Tool {
	return a.tool
}

func (a *Assembler) Assemble(ctx context.Context, source string, image string) (*Result, error) {
	result, err := a.tool.Run(ctx, a.timeout, source, "-o", image)
	if err != nil {
		return result, err
	}

	return result, expectOutput(result, image)
}
