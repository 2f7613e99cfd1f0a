package refcache

import "errors"

var (
	// Sources are older than their generator definition, or missing
	ErrStaleCorpus = errors.New("stale corpus")
	// Regeneration did not produce every artifact of the suite
	ErrIncomplete = errors.New("incomplete reference artifacts")
)
