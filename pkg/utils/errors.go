package utils

import (
	"fmt"
)

// Wraps a sentinel error with a formatted details message so that callers can
// still classify the result with errors.Is()
func MakeError(err error, detailsBody string, args ...any) error {
	return fmt.Errorf("%w: "+detailsBody, append([]any{err}, args...)...)
}
