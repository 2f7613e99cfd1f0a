// Package refcache produces and memoizes the golden reference artifacts of
// generated suites.
//
// A suite is valid only when its cache marker is strictly newer than the
// suite generator definition, its source directory and the runner stamp, and
// every expected artifact exists. A marker is only committed after every
// source of the suite assembled and ran successfully.
package refcache

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/spf13/afero"
)

// Assembler produces a memory image from an assembly source
type Assembler interface {
	Assemble(ctx context.Context, source string, image string) (*toolchain.Result, error)
}

// Simulator runs a memory image and dumps its final state
type Simulator interface {
	Simulate(ctx context.Context, image string, snapshot string, flags []string) (*toolchain.Result, error)
}

// Options tune a Cache
type Options struct {
	// Maximum number of files processed concurrently (default runtime.NumCPU())
	Workers int

	// File whose modification time stands for the runner/comparator logic.
	// Usually the harness executable.
	RunnerStamp string

	// Flags passed to the golden simulator
	GoldenFlags []string

	Logger *slog.Logger
}

// Cache manages the reference tree of a layout
type Cache struct {
	fs        afero.Fs
	layout    layout.Layout
	assembler Assembler
	golden    Simulator
	options   Options
	logger    *slog.Logger
	now       func() time.Time
}

func New(fs afero.Fs, l layout.Layout, assembler Assembler, golden Simulator, options Options) *Cache {
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		fs:        fs,
		layout:    l,
		assembler: assembler,
		golden:    golden,
		options:   options,
		logger:    logger.With("component", "refcache"),
		now:       time.Now,
	}
}
