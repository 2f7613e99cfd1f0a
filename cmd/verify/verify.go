package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/Manu343726/hazardbench/pkg/matrix"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	colorHeader  = color.New(color.FgWhite, color.Bold, color.Underline)
	colorConfig  = color.New(color.FgCyan, color.Bold)
	colorPassed  = color.New(color.FgGreen)
	colorFailed  = color.New(color.FgRed, color.Bold)
	colorSkipped = color.New(color.FgYellow)
	colorHiBlack = color.New(color.FgHiBlack)
)

var (
	verifyMode   string
	verifySuites []string
	verifyQuiet  bool
)

// VerifyCmd runs the verification matrix
var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the simulator under test against the golden references",
	Long: `Runs every generated program on the simulator under test under every hazard
handling configuration and compares its final state with the golden reference.

Reference artifacts of every suite are brought up to date first, as with
'hazardbench reference build'. Verification aborts if the corpus is older than
its generator definitions, and the programs of a suite whose references could
not be rebuilt fail without running. A summary of the run is saved under runs/reports/<run id>.yaml.

The configuration set can be restricted with --mode or the SIM_MODE environment
variable. Exits with status 1 if any program fails.`,
	Run: runVerify,
}

func init() {
	VerifyCmd.Flags().StringVarP(&verifyMode, "mode", "m", "", "Run a single simulator configuration (overrides SIM_MODE)")
	VerifyCmd.Flags().StringSliceVarP(&verifySuites, "suite", "s", nil, "Restrict verification to these suites")
	VerifyCmd.Flags().BoolVarP(&verifyQuiet, "quiet", "q", false, "Only print the summary line")
}

func runVerify(cmd *cobra.Command, args []string) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	configs, err := settings.SimulatorConfigurations(verifyMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	fs := afero.NewOsFs()
	logger := slog.Default()
	l := settings.Layout()

	defs, err := config.Definitions(fs, l, verifySuites, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	suites := lo.Map(defs, func(def hazard.Definition, _ int) layout.Suite { return def.Suite() })
	cases, err := matrix.Discover(fs, l, suites, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no test programs found, run 'hazardbench corpus generate' first")
		logging.Exit(1)
	}

	dut, err := settings.DUT(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	cache, err := settings.Cache(fs, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := matrix.NewRunner(fs, l, dut, settings.Workers, logger).WithReferences(cache).Run(ctx, cases, configs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	if !verifyQuiet {
		printFailures(report)
		printConfigurations(report)
	}
	printSummary(report)

	reportFile := l.ReportFile(report.RunID)
	if err := report.Save(fs, reportFile); err != nil {
		logger.Warn("failed to save run report", "file", reportFile, "error", err)
	} else {
		colorHiBlack.Printf("report: %s\n", reportFile)
	}

	if !report.Passed() {
		logging.Exit(1)
	}
}

func indent(text string, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	return prefix + strings.Join(lines, "\n"+prefix)
}

func printFailures(report matrix.Report) {
	for _, cell := range report.Failures() {
		if cell.TimedOut() {
			colorFailed.Print("TIMEOUT ")
		} else {
			colorFailed.Print("FAIL ")
		}
		colorConfig.Printf("%s ", cell.Configuration.ID)
		fmt.Println(cell.Case.ID())

		if cell.Mismatch() {
			fmt.Println(indent(cell.Diff, "    "))
		} else {
			fmt.Println(indent(cell.Err.Error(), "    "))
		}
	}
}

func printConfigurations(report matrix.Report) {
	groups := report.ByConfiguration()

	colorHeader.Printf("%-36s %8s %8s %8s\n", "Configuration", "Passed", "Failed", "Skipped")

	for _, c := range report.Configurations {
		counts := matrix.Report{Cells: groups[c.ID]}.Counts()

		colorConfig.Printf("%-36s ", c.ID)
		colorPassed.Printf("%8d ", counts[matrix.StatusPassed])
		if counts[matrix.StatusFailed] > 0 {
			colorFailed.Printf("%8d ", counts[matrix.StatusFailed])
		} else {
			fmt.Printf("%8d ", 0)
		}
		colorSkipped.Printf("%8d\n", counts[matrix.StatusSkipped])
	}
}

func printSummary(report matrix.Report) {
	counts := report.Counts()

	if report.Passed() {
		colorPassed.Print("PASSED")
	} else {
		colorFailed.Print("FAILED")
	}

	fmt.Printf(" %d passed, %d failed, %d skipped in %s ", counts[matrix.StatusPassed], counts[matrix.StatusFailed], counts[matrix.StatusSkipped], report.Duration.Round(time.Millisecond))
	colorHiBlack.Printf("(run %s)\n", report.RunID)
}
