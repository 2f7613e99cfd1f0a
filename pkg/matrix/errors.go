package matrix

import "errors"

var (
	// Reference artifacts of a case are missing. Cells are skipped, not failed.
	ErrMissingPrerequisite  = errors.New("missing prerequisite")
	// Reference artifacts of a suite could not be brought up to date. Cells
	// are failed without running the simulator under test.
	ErrUntrustedReferences  = errors.New("untrusted reference artifacts")
	ErrUnknownConfiguration = errors.New("unknown configuration")
)
