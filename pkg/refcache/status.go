package refcache

import (
	"fmt"
	"os"
	"time"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/utils"
)

// Verdict of a suite cache check
type Verdict int

const (
	Valid Verdict = iota
	// No marker: never generated, or the last regeneration did not complete
	NoMarker
	// Marker not newer than one of its dependencies
	Stale
	// Marker present but artifacts missing
	Incomplete
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case NoMarker:
		return "no marker"
	case Stale:
		return "stale"
	case Incomplete:
		return "incomplete"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Status is the cache state of a suite
type Status struct {
	Suite   layout.Suite
	Verdict Verdict
	// Human readable explanation of a non valid verdict
	Reason string

	Definition  time.Time
	SourceDir   time.Time
	RunnerStamp time.Time
	// Zero if there is no marker
	Marker time.Time

	Sources int
	Missing []string
}

func (s Status) Valid() bool {
	return s.Verdict == Valid
}

func (c *Cache) modTime(path string) (time.Time, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// CheckCorpus fails with ErrStaleCorpus if the suite sources are missing or
// older than the suite generator definition
func (c *Cache) CheckCorpus(suite layout.Suite) error {
	definition, err := c.modTime(c.layout.DefinitionFile(suite.Name))
	if err != nil {
		return fmt.Errorf("suite '%v' has no generator definition: %w", suite.Name, err)
	}

	sourceDir := c.layout.SuiteSourceDir(suite.Dir)
	sources, err := c.modTime(sourceDir)
	if os.IsNotExist(err) {
		return utils.MakeError(ErrStaleCorpus, "suite '%v' sources not generated (%v missing)", suite.Name, sourceDir)
	} else if err != nil {
		return err
	}

	if sources.Before(definition) {
		return utils.MakeError(ErrStaleCorpus, "suite '%v' definition changed at %v but sources were generated at %v; regenerate the corpus first",
			suite.Name, definition.Format(time.RFC3339Nano), sources.Format(time.RFC3339Nano))
	}

	return nil
}

// Status computes the cache verdict of a suite from the definition, source
// directory, runner stamp and marker timestamps
func (c *Cache) Status(suite layout.Suite) (Status, error) {
	status := Status{Suite: suite}
	var err error

	if status.Definition, err = c.modTime(c.layout.DefinitionFile(suite.Name)); err != nil {
		return status, fmt.Errorf("suite '%v' has no generator definition: %w", suite.Name, err)
	}
	if status.SourceDir, err = c.modTime(c.layout.SuiteSourceDir(suite.Dir)); err != nil {
		if os.IsNotExist(err) {
			return status, utils.MakeError(ErrStaleCorpus, "suite '%v' sources not generated", suite.Name)
		}
		return status, err
	}
	if c.options.RunnerStamp != "" {
		if status.RunnerStamp, err = c.modTime(c.options.RunnerStamp); err != nil {
			return status, fmt.Errorf("failed to read runner stamp: %w", err)
		}
	}

	sources, err := Sources(c.fs, c.layout, suite)
	if err != nil {
		return status, err
	}
	status.Sources = len(sources)

	marker, err := c.modTime(c.layout.MarkerFile(suite.Dir))
	if os.IsNotExist(err) {
		status.Verdict = NoMarker
		status.Reason = "reference artifacts were never completely generated"
		return status, nil
	} else if err != nil {
		return status, err
	}
	status.Marker = marker

	dependencies := []struct {
		name string
		time time.Time
	}{
		{"generator definition", status.Definition},
		{"source directory", status.SourceDir},
		{"runner", status.RunnerStamp},
	}
	for _, dependency := range dependencies {
		if !marker.After(dependency.time) {
			status.Verdict = Stale
			status.Reason = fmt.Sprintf("%v changed after the artifacts were generated", dependency.name)
			return status, nil
		}
	}

	for _, source := range sources {
		for _, artifact := range c.Artifact(suite, source).Files() {
			if _, err := c.fs.Stat(artifact); err != nil {
				status.Missing = append(status.Missing, artifact)
			}
		}
	}

	switch {
	case len(sources) == 0:
		status.Verdict = Incomplete
		status.Reason = "suite has no sources"
	case len(status.Missing) > 0:
		status.Verdict = Incomplete
		status.Reason = fmt.Sprintf("%d artifacts missing", len(status.Missing))
	default:
		status.Verdict = Valid
	}

	return status, nil
}
