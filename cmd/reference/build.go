package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/Manu343726/hazardbench/pkg/refcache"
	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildForce bool

var buildCmd = &cobra.Command{
	Use:   "build [suite...]",
	Short: "Assemble every program and record its golden final state",
	Long: `Makes the reference artifacts of the given suites (default: all) valid.

For every generated program the assembler produces a memory image and the golden
simulator runs it to dump the expected final state. Suites whose cache is valid
are skipped unless --force is given.

A suite whose sources are older than its definition is rejected: regenerate the
corpus first. If any program fails the suite is left uncached so the next build
retries it.`,
	Run: runBuild,
}

func init() {
	ReferenceCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Regenerate artifacts even if the cache is valid")
}

func runBuild(cmd *cobra.Command, args []string) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	fs := afero.NewOsFs()
	logger := slog.Default()

	defs, err := config.Definitions(fs, settings.Layout(), args, logger)
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

	failed := false

	for _, def := range defs {
		report, err := cache.Ensure(ctx, def.Suite(), buildForce)
		printReport(report, err)

		if err != nil {
			failed = true
			if errors.Is(err, refcache.ErrStaleCorpus) || ctx.Err() != nil {
				break
			}
		}
	}

	if failed {
		logging.Exit(1)
	}
}

func printReport(report refcache.Report, err error) {
	colorSuite.Printf("%-24s ", report.Suite.Name)

	switch {
	case report.Cached:
		colorValid.Println("up to date")
		return
	case err == nil:
		colorValid.Printf("%d artifacts generated\n", report.Count(toolchain.OutcomeSuccess))
		return
	case len(report.Files) == 0:
		colorError.Println("failed")
		fmt.Fprintf(os.Stderr, "  %v\n", err)
		return
	}

	colorError.Printf("%d of %d failed", len(report.Files)-report.Count(toolchain.OutcomeSuccess), len(report.Files))
	if timeouts := report.Count(toolchain.OutcomeTimeout); timeouts > 0 {
		colorWarning.Printf(" (%d timeouts)", timeouts)
	}
	fmt.Println()

	for _, file := range report.Files {
		if file.Err == nil {
			continue
		}

		colorWarning.Printf("  %s ", file.Source)
		colorHiBlack.Printf("[%s, %s]\n", file.Stage, file.Outcome)
		fmt.Printf("    %v\n", file.Err)
	}
}
