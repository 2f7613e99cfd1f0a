package toolchain

import "errors"

var (
	// The tool exited with a non-zero code or did not produce its output
	ErrToolFailure = errors.New("tool failure")
	// The tool did not finish within its time budget
	ErrTimeout      = errors.New("tool timeout")
	ErrToolNotFound = errors.New("tool not found")
)
