package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var generateCmd = &cobra.Command{
	Use:   "generate [suite...]",
	Short: "Generate the assembly sources of the given suites (default: all)",
	Long: `Regenerates the assembly sources of the given suites from their definitions.
Each suite directory is wiped and rewritten, together with a manifest describing
every program. Definitions of built-in suites are written first if missing.

Regenerating a suite invalidates its reference artifacts.`,
	Run: runGenerate,
}

func init() {
	CorpusCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	fs := afero.NewOsFs()
	logger := slog.Default()
	writer := hazard.NewWriter(fs, settings.Layout(), logger)

	defs, err := config.Definitions(fs, settings.Layout(), args, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	// Reference staleness is tracked against the definition files
	if _, err := writer.InitDefinitions(defs, false); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	summaries, err := generate(writer, defs, settings.Workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	printSummaries(summaries)
}

// generate writes suites concurrently, stopping at the first failure
func generate(writer *hazard.Writer, defs []hazard.Definition, workers int) ([]hazard.Summary, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	summaries := make([]hazard.Summary, len(defs))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			summary, err := writer.WriteSuite(def)
			summaries[i] = summary
			return err
		})
	}

	return summaries, g.Wait()
}

func printSummaries(summaries []hazard.Summary) {
	header := color.New(color.FgWhite, color.Bold, color.Underline)
	suite := color.New(color.FgCyan, color.Bold)
	count := color.New(color.FgGreen)

	header.Println("Generated suites")

	total := 0
	for _, summary := range summaries {
		suite.Printf("%-24s", summary.Suite)
		count.Printf(" %5d", summary.Files)
		fmt.Printf(" files  %s\n", summary.Dir)

		for _, category := range utils.SortedKeys(summary.Categories) {
			fmt.Printf("    %-32s %5d\n", category, summary.Categories[category])
		}

		total += summary.Files
	}

	fmt.Printf("%d files in %d suites\n", total, len(summaries))
}
