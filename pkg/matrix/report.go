package matrix

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Status of a single (case, configuration) cell
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	// Reference artifacts were missing
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cell is the outcome of running one case under one configuration
type Cell struct {
	Case
	Configuration Configuration

	Status Status
	Err    error
	// Rendered state diff, empty unless the snapshots mismatched
	Diff     string
	Result   *toolchain.Result
	Duration time.Duration

	index int
}

func (c Cell) ID() string {
	return c.Configuration.ID + "/" + c.Case.ID()
}

// Mismatch returns whether the cell failed on a state comparison, as opposed
// to a simulator failure
func (c Cell) Mismatch() bool {
	return c.Diff != ""
}

// TimedOut returns whether the simulator under test exceeded its time limit
func (c Cell) TimedOut() bool {
	return errors.Is(c.Err, toolchain.ErrTimeout)
}

// Report collects the cells of a verification run
type Report struct {
	RunID          string
	Configurations []Configuration
	Started        time.Time
	Duration       time.Duration
	Cells          []Cell
}

func (r *Report) sort() {
	sort.SliceStable(r.Cells, func(i, j int) bool {
		return r.Cells[i].index < r.Cells[j].index
	})
}

// Counts returns the number of cells per status
func (r Report) Counts() map[Status]int {
	counts := map[Status]int{StatusPassed: 0, StatusFailed: 0, StatusSkipped: 0}
	for _, cell := range r.Cells {
		counts[cell.Status]++
	}
	return counts
}

func (r Report) Failures() []Cell {
	return lo.Filter(r.Cells, func(c Cell, _ int) bool { return c.Status == StatusFailed })
}

// Passed returns whether no cell failed. Skipped cells do not fail a run.
func (r Report) Passed() bool {
	return lo.NoneBy(r.Cells, func(c Cell) bool { return c.Status == StatusFailed })
}

// ByConfiguration groups cells by configuration ID
func (r Report) ByConfiguration() map[string][]Cell {
	return lo.GroupBy(r.Cells, func(c Cell) string { return c.Configuration.ID })
}

type cellSummary struct {
	Case     string `yaml:"case"`
	Status   Status `yaml:"status"`
	Error    string `yaml:"error,omitempty"`
	Command  string `yaml:"command,omitempty"`
	Timeout  bool   `yaml:"timeout,omitempty"`
	Duration string `yaml:"duration"`
}

type configurationSummary struct {
	Configuration Configuration `yaml:"configuration"`
	Passed        int           `yaml:"passed"`
	Failed        int           `yaml:"failed"`
	Skipped       int           `yaml:"skipped"`
	Failures      []cellSummary `yaml:"failures,omitempty"`
}

type reportSummary struct {
	RunID          string                 `yaml:"run_id"`
	Started        time.Time              `yaml:"started"`
	Duration       string                 `yaml:"duration"`
	Passed         int                    `yaml:"passed"`
	Failed         int                    `yaml:"failed"`
	Skipped        int                    `yaml:"skipped"`
	Configurations []configurationSummary `yaml:"configurations"`
}

func summarizeCell(c Cell) cellSummary {
	summary := cellSummary{
		Case:     c.Case.ID(),
		Status:   c.Status,
		Timeout:  c.TimedOut(),
		Duration: c.Duration.String(),
	}

	if c.Err != nil {
		summary.Error = c.Err.Error()
	}
	if c.Result != nil {
		summary.Command = c.Result.Command
	}

	return summary
}

func (r Report) summary() reportSummary {
	counts := r.Counts()
	groups := r.ByConfiguration()

	summary := reportSummary{
		RunID:    r.RunID,
		Started:  r.Started,
		Duration: r.Duration.String(),
		Passed:   counts[StatusPassed],
		Failed:   counts[StatusFailed],
		Skipped:  counts[StatusSkipped],
	}

	for _, config := range r.Configurations {
		cells := groups[config.ID]
		configCounts := Report{Cells: cells}.Counts()

		summary.Configurations = append(summary.Configurations, configurationSummary{
			Configuration: config,
			Passed:        configCounts[StatusPassed],
			Failed:        configCounts[StatusFailed],
			Skipped:       configCounts[StatusSkipped],
			Failures:      lo.Map(Report{Cells: cells}.Failures(), func(c Cell, _ int) cellSummary { return summarizeCell(c) }),
		})
	}

	return summary
}

// Save writes a YAML summary of the run, failures included, to path
func (r Report) Save(fs afero.Fs, path string) error {
	data, err := yaml.Marshal(r.summary())
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return afero.WriteFile(fs, path, data, 0644)
}

// Skipped reports whether err marks a cell as skipped
func Skipped(err error) bool {
	return errors.Is(err, ErrMissingPrerequisite)
}
