package refcache

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
)

// Stage of the reference pipeline a file failed in
type Stage string

const (
	StageAssemble Stage = "assemble"
	StageGolden   Stage = "golden"
)

// FileResult is the outcome of producing the artifacts of one source
type FileResult struct {
	Source  string
	Outcome toolchain.Outcome
	// Stage that failed, empty on success
	Stage  Stage
	Result *toolchain.Result
	Err    error
}

// Report summarizes an Ensure call
type Report struct {
	Suite layout.Suite
	// Artifacts were already valid, nothing ran
	Cached bool
	Files  []FileResult
}

// Count returns the number of files with the given outcome
func (r Report) Count(outcome toolchain.Outcome) int {
	count := 0

	for _, file := range r.Files {
		if file.Outcome == outcome {
			count++
		}
	}

	return count
}

// Ensure makes the reference artifacts of a suite valid, regenerating them if
// the cache is not valid or force is set. Corpus staleness is fatal and
// checked first. The suite marker is removed before regenerating and only
// written back if every source succeeded.
func (c *Cache) Ensure(ctx context.Context, suite layout.Suite, force bool) (Report, error) {
	report := Report{Suite: suite}
	logger := c.logger.With("suite", suite.Name)

	if err := c.CheckCorpus(suite); err != nil {
		return report, err
	}

	status, err := c.Status(suite)
	if err != nil {
		return report, err
	}
	if status.Valid() && !force {
		logger.Info("reference artifacts up to date", "sources", status.Sources)
		report.Cached = true
		return report, nil
	}

	logger.Info("regenerating reference artifacts", "reason", reason(status, force), "sources", status.Sources)

	markerFile := c.layout.MarkerFile(suite.Dir)
	if err := c.fs.Remove(markerFile); err != nil && !os.IsNotExist(err) {
		return report, fmt.Errorf("failed to invalidate cache marker: %w", err)
	}

	sources, err := Sources(c.fs, c.layout, suite)
	if err != nil {
		return report, err
	}
	if len(sources) == 0 {
		return report, utils.MakeError(ErrIncomplete, "suite '%v' has no sources", suite.Name)
	}

	if err := c.prepare(suite, sources); err != nil {
		return report, err
	}

	report.Files = c.run(ctx, suite, sources)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("reference generation of suite '%v' interrupted: %w", suite.Name, err)
	}

	var failures error
	for _, file := range report.Files {
		if file.Err != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %s %w", file.Source, file.Stage, file.Err))
		}
	}
	if failures != nil {
		failed := len(multierr.Errors(failures))
		logger.Warn("reference generation incomplete, cache marker withheld", "failed", failed, "sources", len(sources))
		return report, multierr.Append(
			utils.MakeError(ErrIncomplete, "suite '%v': %d of %d sources failed", suite.Name, failed, len(sources)),
			failures,
		)
	}

	now := c.now()
	marker := Marker{Suite: suite.Name, GeneratedAt: now, Artifacts: len(sources)}
	if err := writeMarker(c.fs, markerFile, marker); err != nil {
		return report, fmt.Errorf("failed to commit cache marker: %w", err)
	}

	logger.Info("reference artifacts committed", "artifacts", len(sources))
	return report, nil
}

func reason(status Status, force bool) string {
	if force {
		return "forced"
	}
	return status.Reason
}

// prepare creates every artifact directory and removes outputs of previous
// runs before any tool is started
func (c *Cache) prepare(suite layout.Suite, sources []string) error {
	for _, source := range sources {
		if err := c.fs.MkdirAll(c.layout.ArtifactDir(suite.Dir, source), 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}

		for _, artifact := range c.Artifact(suite, source).Files() {
			if err := c.fs.Remove(artifact); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove previous artifact: %w", err)
			}
		}
	}

	return nil
}

// run produces the artifacts of every source on a bounded pool
func (c *Cache) run(ctx context.Context, suite layout.Suite, sources []string) []FileResult {
	p := pool.NewWithResults[FileResult]().WithMaxGoroutines(c.options.Workers)

	for _, source := range sources {
		source := source
		p.Go(func() FileResult {
			return c.produce(ctx, suite, source)
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Source < results[j].Source })
	return results
}

func (c *Cache) produce(ctx context.Context, suite layout.Suite, source string) FileResult {
	file := FileResult{Source: source}

	if err := ctx.Err(); err != nil {
		file.Outcome = toolchain.OutcomeToolFailure
		file.Err = err
		return file
	}

	artifact := c.Artifact(suite, source)
	start := time.Now()

	file.Result, file.Err = c.assembler.Assemble(ctx, c.layout.SourceFile(suite, source), artifact.MemoryImage)
	if file.Err != nil {
		file.Stage = StageAssemble
	} else {
		file.Result, file.Err = c.golden.Simulate(ctx, artifact.MemoryImage, artifact.Golden, c.options.GoldenFlags)
		if file.Err != nil {
			file.Stage = StageGolden
		}
	}

	switch {
	case file.Err == nil:
		file.Outcome = toolchain.OutcomeSuccess
	case file.Result != nil:
		file.Outcome = file.Result.Outcome
	default:
		file.Outcome = toolchain.OutcomeToolFailure
	}

	c.logger.Debug("reference artifact", "suite", suite.Name, "source", source, "outcome", file.Outcome, "stage", file.Stage, "duration", time.Since(start))
	return file
}
