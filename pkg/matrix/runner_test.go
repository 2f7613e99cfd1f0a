package matrix_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/matrix"
	"github.com/Manu343726/hazardbench/pkg/refcache"
	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/Manu343726/hazardbench/pkg/utils"
)

const (
	goldenState   = `{"vm_state":{"program_counter":24,"instructions_retired":6},"registers":{"x0":0,"x1":5,"x3":10},"memory_dump":{}}`
	divergedState = `{"vm_state":{"program_counter":24,"instructions_retired":6},"registers":{"x0":0,"x1":5,"x3":7},"memory_dump":{}}`
)

// fakeDUT writes a snapshot depending on the name of the program directory
type fakeDUT struct {
	fs afero.Fs

	mu    sync.Mutex
	calls [][]string
}

func (d *fakeDUT) Simulate(ctx context.Context, image string, snapshot string, flags []string) (*toolchain.Result, error) {
	d.mu.Lock()
	d.calls = append(d.calls, append([]string{image, snapshot}, flags...))
	d.mu.Unlock()

	result := &toolchain.Result{Command: "rv5s_binary " + image}

	switch {
	case strings.Contains(image, "crash"):
		result.ExitCode = 139
		result.Stderr = "segmentation fault"
		result.Outcome = toolchain.OutcomeToolFailure
		return result, utils.MakeError(toolchain.ErrToolFailure, "'%v' exited with code %v: %v", result.Command, result.ExitCode, result.Stderr)
	case strings.Contains(image, "hang"):
		result.Outcome = toolchain.OutcomeTimeout
		return result, utils.MakeError(toolchain.ErrTimeout, "%s did not finish within 3s", result.Command)
	case strings.Contains(image, "silent"):
		return result, nil
	case strings.Contains(image, "diverge"):
		return result, afero.WriteFile(d.fs, snapshot, []byte(divergedState), 0644)
	default:
		return result, afero.WriteFile(d.fs, snapshot, []byte(goldenState), 0644)
	}
}

// brokenAssembler rejects every source
type brokenAssembler struct {
	calls atomic.Int32
}

func (a *brokenAssembler) Assemble(ctx context.Context, source string, image string) (*toolchain.Result, error) {
	a.calls.Add(1)
	result := &toolchain.Result{Command: "rv5s_assembler " + source, ExitCode: 1, Stderr: "syntax error", Outcome: toolchain.OutcomeToolFailure}
	return result, utils.MakeError(toolchain.ErrToolFailure, "%s: %s", result.Command, result.Stderr)
}

var _ = Describe("Runner", func() {
	var (
		fs      afero.Fs
		l       layout.Layout
		suite   layout.Suite
		dut     *fakeDUT
		configs []matrix.Configuration
	)

	addCase := func(rel string, withImage, withGolden bool) {
		Expect(afero.WriteFile(fs, l.SourceFile(suite, rel), []byte(".text\n"), 0644)).To(Succeed())
		Expect(fs.MkdirAll(l.ArtifactDir(suite.Dir, rel), 0755)).To(Succeed())

		if withImage {
			Expect(afero.WriteFile(fs, l.MemoryImage(suite.Dir, rel), []byte("image"), 0644)).To(Succeed())
		}
		if withGolden {
			Expect(afero.WriteFile(fs, l.GoldenSnapshot(suite.Dir, rel), []byte(goldenState), 0644)).To(Succeed())
		}
	}

	run := func() matrix.Report {
		cases, err := matrix.Discover(fs, l, []layout.Suite{suite}, nil)
		Expect(err).NotTo(HaveOccurred())

		report, err := matrix.NewRunner(fs, l, dut, 4, nil).Run(context.Background(), cases, configs)
		Expect(err).NotTo(HaveOccurred())
		return report
	}

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		l = layout.New("/work")
		suite = layout.Suite{Name: "multi_gapped", Dir: "multi_hazard/gapped"}
		dut = &fakeDUT{fs: fs}
		configs = matrix.DefaultConfigurations()[:2]
	})

	Describe("Discover", func() {
		It("should list cases sorted by path", func() {
			addCase("lw_add/x1.s", true, true)
			addCase("add_add/x1.s", true, true)

			cases, err := matrix.Discover(fs, l, []layout.Suite{suite}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(cases).To(HaveLen(2))
			Expect(cases[0].ID()).To(Equal("multi_gapped::add_add/x1.s"))
			Expect(cases[1].RelPath).To(Equal("lw_add/x1.s"))
		})

		It("should skip suites without sources", func() {
			cases, err := matrix.Discover(fs, l, []layout.Suite{{Name: "missing", Dir: "missing"}}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(cases).To(BeEmpty())
		})
	})

	It("should pass cases matching the golden snapshot under every configuration", func() {
		addCase("add_add/x1.s", true, true)
		addCase("lw_add/x1.s", true, true)

		report := run()

		Expect(report.RunID).NotTo(BeEmpty())
		Expect(report.Cells).To(HaveLen(4))
		Expect(report.Passed()).To(BeTrue())
		Expect(report.Counts()[matrix.StatusPassed]).To(Equal(4))
		Expect(dut.calls).To(HaveLen(4))
	})

	It("should order cells by configuration then case", func() {
		addCase("a/x1.s", true, true)
		addCase("b/x1.s", true, true)

		report := run()

		ids := make([]string, 0, len(report.Cells))
		for _, cell := range report.Cells {
			ids = append(ids, cell.ID())
		}

		Expect(ids).To(Equal([]string{
			"5Stage_Ideal/multi_gapped::a/x1.s",
			"5Stage_Ideal/multi_gapped::b/x1.s",
			"5Stage_Stall_static_not_taken/multi_gapped::a/x1.s",
			"5Stage_Stall_static_not_taken/multi_gapped::b/x1.s",
		}))
	})

	It("should write the simulator output into the run directory with the configuration flags", func() {
		addCase("add_add/x1.s", true, true)
		configs = configs[:1]

		run()

		Expect(dut.calls).To(HaveLen(1))
		Expect(dut.calls[0][1]).To(Equal(l.DUTSnapshot("5Stage_Ideal", "multi_gapped", "add_add/x1.s")))
		Expect(dut.calls[0][2:]).To(Equal(configs[0].Flags()))

		exists, err := afero.Exists(fs, l.DUTSnapshot("5Stage_Ideal", "multi_gapped", "add_add/x1.s"))
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("should skip cases without reference artifacts", func() {
		addCase("no_image/x1.s", false, true)
		addCase("no_golden/x1.s", true, false)

		report := run()

		Expect(report.Counts()[matrix.StatusSkipped]).To(Equal(4))
		Expect(report.Passed()).To(BeTrue())
		Expect(dut.calls).To(BeEmpty())
		for _, cell := range report.Cells {
			Expect(matrix.Skipped(cell.Err)).To(BeTrue())
		}
	})

	It("should fail with the diff on a state mismatch", func() {
		addCase("diverge/x1.s", true, true)
		configs = configs[:1]

		report := run()

		Expect(report.Passed()).To(BeFalse())
		failures := report.Failures()
		Expect(failures).To(HaveLen(1))
		Expect(failures[0].Mismatch()).To(BeTrue())
		Expect(failures[0].Diff).To(ContainSubstring("x3"))
		Expect(failures[0].Diff).To(HavePrefix("State mismatch:"))
	})

	It("should fail with the command and stderr when the simulator crashes", func() {
		addCase("crash/x1.s", true, true)
		configs = configs[:1]

		report := run()

		failures := report.Failures()
		Expect(failures).To(HaveLen(1))
		Expect(failures[0].Mismatch()).To(BeFalse())
		Expect(failures[0].Err).To(MatchError(toolchain.ErrToolFailure))
		Expect(failures[0].Err.Error()).To(ContainSubstring("segmentation fault"))
		Expect(failures[0].Err.Error()).To(ContainSubstring("139"))
	})

	It("should label simulator timeouts", func() {
		addCase("hang/x1.s", true, true)
		addCase("add_add/x1.s", true, true)
		configs = configs[:1]

		report := run()

		failures := report.Failures()
		Expect(failures).To(HaveLen(1))
		Expect(failures[0].TimedOut()).To(BeTrue())
		Expect(failures[0].RelPath).To(Equal("hang/x1.s"))
		Expect(report.Counts()[matrix.StatusPassed]).To(Equal(1))
	})

	It("should fail when the simulator produces no output", func() {
		addCase("silent/x1.s", true, true)
		configs = configs[:1]

		report := run()

		Expect(report.Failures()).To(HaveLen(1))
	})

	It("should not compare against a stale output from a previous run", func() {
		addCase("silent/x1.s", true, true)
		configs = configs[:1]
		output := l.DUTSnapshot(configs[0].ID, suite.Name, "silent/x1.s")
		Expect(fs.MkdirAll(l.RunDir(configs[0].ID, suite.Name, "silent/x1.s"), 0755)).To(Succeed())
		Expect(afero.WriteFile(fs, output, []byte(goldenState), 0644)).To(Succeed())

		report := run()

		Expect(report.Failures()).To(HaveLen(1))
	})

	It("should save a YAML summary listing failures", func() {
		addCase("add_add/x1.s", true, true)
		addCase("diverge/x1.s", true, true)

		report := run()
		Expect(report.Save(fs, "/work/runs/reports/run.yaml")).To(Succeed())

		data, err := afero.ReadFile(fs, "/work/runs/reports/run.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("run_id: " + report.RunID))
		Expect(string(data)).To(ContainSubstring("passed: 2"))
		Expect(string(data)).To(ContainSubstring("failed: 2"))
		Expect(string(data)).To(ContainSubstring("multi_gapped::diverge/x1.s"))
		Expect(string(data)).To(ContainSubstring("status: failed"))
	})

	Describe("with reference artifacts", func() {
		var (
			assembler *brokenAssembler
			base      time.Time
		)

		touch := func(path string, at time.Time) {
			Expect(fs.Chtimes(path, at, at)).To(Succeed())
		}

		runWithReferences := func() (matrix.Report, error) {
			cases, err := matrix.Discover(fs, l, []layout.Suite{suite}, nil)
			Expect(err).NotTo(HaveOccurred())

			cache := refcache.New(fs, l, assembler, dut, refcache.Options{Workers: 2})
			return matrix.NewRunner(fs, l, dut, 4, nil).WithReferences(cache).Run(context.Background(), cases, configs)
		}

		BeforeEach(func() {
			assembler = &brokenAssembler{}
			base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			configs = configs[:1]

			addCase("add_add/x1.s", true, true)
			Expect(afero.WriteFile(fs, l.DefinitionFile(suite.Name), []byte("name: multi_gapped\n"), 0644)).To(Succeed())
			Expect(afero.WriteFile(fs, l.MarkerFile(suite.Dir), []byte("suite: multi_gapped\n"), 0644)).To(Succeed())

			touch(l.DefinitionFile(suite.Name), base)
			touch(l.SuiteSourceDir(suite.Dir), base.Add(time.Minute))
			touch(l.MarkerFile(suite.Dir), base.Add(2*time.Minute))
		})

		It("should run suites whose cache is valid without rebuilding them", func() {
			report, err := runWithReferences()

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Passed()).To(BeTrue())
			Expect(report.Counts()[matrix.StatusPassed]).To(Equal(1))
			Expect(assembler.calls.Load()).To(BeZero())
		})

		It("should not compare against references older than the regenerated corpus", func() {
			Expect(afero.WriteFile(fs, l.SourceFile(suite, "add_add/x1.s"), []byte(".text\nadd x3, x1, x2\n"), 0644)).To(Succeed())
			touch(l.DefinitionFile(suite.Name), base.Add(3*time.Minute))
			touch(l.SuiteSourceDir(suite.Dir), base.Add(4*time.Minute))

			report, err := runWithReferences()

			Expect(err).NotTo(HaveOccurred())
			Expect(assembler.calls.Load()).To(BeNumerically(">", 0))
			Expect(dut.calls).To(BeEmpty())
			Expect(report.Passed()).To(BeFalse())
			Expect(report.Failures()).To(HaveLen(1))
			Expect(report.Failures()[0].Err).To(MatchError(matrix.ErrUntrustedReferences))

			exists, err := afero.Exists(fs, l.MarkerFile(suite.Dir))
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("should abort on a corpus older than its definition", func() {
			touch(l.DefinitionFile(suite.Name), base.Add(3*time.Minute))

			_, err := runWithReferences()

			Expect(err).To(MatchError(refcache.ErrStaleCorpus))
			Expect(assembler.calls.Load()).To(BeZero())
			Expect(dut.calls).To(BeEmpty())
		})
	})
})
