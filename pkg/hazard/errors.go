package hazard

import "errors"

var (
	// Filesystem failure while materializing a suite
	ErrGeneration        = errors.New("generation error")
	ErrInvalidDefinition = errors.New("invalid suite definition")
	ErrUnknownKind       = errors.New("unknown suite kind")
	// Two descriptors of a suite map to the same file
	ErrDuplicateProgram = errors.New("duplicate program")
	// A producer or consumer has no generation rule
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
)
