package matrix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/refcache"
	"github.com/Manu343726/hazardbench/pkg/snapshot"
	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/rs/xid"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// Simulator runs the device under test
type Simulator interface {
	Simulate(ctx context.Context, image string, snapshot string, flags []string) (*toolchain.Result, error)
}

// References keeps the reference artifacts of a suite up to date
type References interface {
	Ensure(ctx context.Context, suite layout.Suite, force bool) (refcache.Report, error)
}

// Runner executes the verification matrix
type Runner struct {
	fs         afero.Fs
	layout     layout.Layout
	dut        Simulator
	references References
	workers    int
	logger     *slog.Logger
}

func NewRunner(fs afero.Fs, l layout.Layout, dut Simulator, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		fs:      fs,
		layout:  l,
		dut:     dut,
		workers: workers,
		logger:  logger.With("component", "matrix"),
	}
}

// WithReferences makes Run ensure the reference artifacts of every suite
// before running its cases
func (r *Runner) WithReferences(references References) *Runner {
	r.references = references
	return r
}

// ensureReferences returns the suites whose reference artifacts could not be
// made valid. A stale corpus aborts the run.
func (r *Runner) ensureReferences(ctx context.Context, cases []Case, logger *slog.Logger) (map[string]error, error) {
	untrusted := map[string]error{}
	if r.references == nil {
		return untrusted, nil
	}

	suites := lo.UniqBy(lo.Map(cases, func(c Case, _ int) layout.Suite { return c.Suite }), func(s layout.Suite) string { return s.Name })
	for _, suite := range suites {
		_, err := r.references.Ensure(ctx, suite, false)
		switch {
		case err == nil:
		case errors.Is(err, refcache.ErrStaleCorpus) || ctx.Err() != nil:
			return nil, err
		default:
			logger.Warn("reference artifacts not valid, failing suite", "suite", suite.Name, "error", err)
			untrusted[suite.Name] = utils.MakeError(ErrUntrustedReferences, "suite '%v': %v", suite.Name, err)
		}
	}

	return untrusted, nil
}

// Run checks every case against every configuration. Cells are independent
// and run on a bounded pool; the report lists them by configuration, then
// case order.
func (r *Runner) Run(ctx context.Context, cases []Case, configs []Configuration) (Report, error) {
	report := Report{
		RunID:          xid.New().String(),
		Configurations: configs,
		Started:        time.Now(),
	}
	logger := r.logger.With("run", report.RunID)

	untrusted, err := r.ensureReferences(ctx, cases, logger)
	if err != nil {
		return report, err
	}

	cells := make([]Cell, 0, len(cases)*len(configs))
	for _, config := range configs {
		for _, c := range cases {
			cells = append(cells, Cell{Case: c, Configuration: config})
		}
	}

	// Output directories exist before any simulator writes into them
	for _, cell := range cells {
		dir := r.layout.RunDir(cell.Configuration.ID, cell.Suite.Name, cell.RelPath)
		if err := r.fs.MkdirAll(dir, 0755); err != nil {
			return report, fmt.Errorf("failed to create run directory: %w", err)
		}
	}

	logger.Info("running verification matrix", "cases", len(cases), "configurations", len(configs), "workers", r.workers)

	p := pool.NewWithResults[Cell]().WithMaxGoroutines(r.workers)
	for i := range cells {
		i := i
		p.Go(func() Cell {
			cell := cells[i]
			if err, ok := untrusted[cell.Suite.Name]; ok {
				cell.Status = StatusFailed
				cell.Err = err
			} else {
				r.runCell(ctx, &cell)
			}
			cell.index = i
			return cell
		})
	}

	report.Cells = p.Wait()
	report.sort()
	report.Duration = time.Since(report.Started)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("verification interrupted: %w", err)
	}

	counts := report.Counts()
	logger.Info("verification finished", "passed", counts[StatusPassed], "failed", counts[StatusFailed], "skipped", counts[StatusSkipped], "duration", report.Duration)
	return report, nil
}

func (r *Runner) exists(path string) bool {
	_, err := r.fs.Stat(path)
	return err == nil
}

func (r *Runner) load(path string) (*snapshot.State, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, err
	}

	state, err := snapshot.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return state, nil
}

func (r *Runner) runCell(ctx context.Context, cell *Cell) {
	start := time.Now()
	defer func() { cell.Duration = time.Since(start) }()

	image := r.layout.MemoryImage(cell.Suite.Dir, cell.RelPath)
	golden := r.layout.GoldenSnapshot(cell.Suite.Dir, cell.RelPath)
	output := r.layout.DUTSnapshot(cell.Configuration.ID, cell.Suite.Name, cell.RelPath)

	for _, prerequisite := range []string{image, golden} {
		if !r.exists(prerequisite) {
			cell.Status = StatusSkipped
			cell.Err = utils.MakeError(ErrMissingPrerequisite, "reference artifact not found: %s", prerequisite)
			return
		}
	}

	if err := ctx.Err(); err != nil {
		cell.Status = StatusFailed
		cell.Err = err
		return
	}

	if err := r.fs.Remove(output); err != nil && !os.IsNotExist(err) {
		cell.Status = StatusFailed
		cell.Err = err
		return
	}

	cell.Result, cell.Err = r.dut.Simulate(ctx, image, output, cell.Configuration.Flags())
	if cell.Err != nil {
		cell.Status = StatusFailed
		return
	}

	ref, err := r.load(golden)
	if err != nil {
		cell.Status = StatusFailed
		cell.Err = fmt.Errorf("invalid golden snapshot: %w", err)
		return
	}

	dut, err := r.load(output)
	if err != nil {
		cell.Status = StatusFailed
		cell.Err = fmt.Errorf("invalid simulator output: %w", err)
		return
	}

	result := snapshot.Compare(ref, dut)
	if !result.Match {
		cell.Status = StatusFailed
		cell.Diff = result.Diff.String()
		cell.Err = result.Err()
		return
	}

	cell.Status = StatusPassed
}
