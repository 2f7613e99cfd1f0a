package reference

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/Manu343726/hazardbench/pkg/refcache"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	colorHeader  = color.New(color.FgWhite, color.Bold, color.Underline)
	colorSuite   = color.New(color.FgCyan, color.Bold)
	colorValid   = color.New(color.FgGreen)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed, color.Bold)
	colorHiBlack = color.New(color.FgHiBlack)
)

var statusCmd = &cobra.Command{
	Use:   "status [suite...]",
	Short: "Show the cache state of the reference artifacts",
	Run:   runStatus,
}

func init() {
	ReferenceCmd.AddCommand(statusCmd)
}

func verdictColor(verdict refcache.Verdict) *color.Color {
	switch verdict {
	case refcache.Valid:
		return colorValid
	case refcache.Stale, refcache.Incomplete:
		return colorWarning
	default:
		return colorError
	}
}

func runStatus(cmd *cobra.Command, args []string) {
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

	// Status only inspects timestamps, no tool is needed
	cache := refcache.New(fs, settings.Layout(), nil, nil, refcache.Options{
		RunnerStamp: settings.RunnerStamp,
		Logger:      logger,
	})

	colorHeader.Printf("%-24s %-12s %8s  %-20s  %s\n", "Suite", "Status", "Sources", "Generated", "Reason")

	for _, def := range defs {
		colorSuite.Printf("%-24s ", def.Name)

		if err := cache.CheckCorpus(def.Suite()); err != nil {
			colorError.Printf("%-12s ", "stale corpus")
			fmt.Printf("%8s  %-20s  %v\n", "-", "-", err)
			continue
		}

		status, err := cache.Status(def.Suite())
		if err != nil {
			colorError.Printf("%-12s ", "error")
			fmt.Printf("%8s  %-20s  %v\n", "-", "-", err)
			continue
		}

		verdictColor(status.Verdict).Printf("%-12s ", status.Verdict)
		fmt.Printf("%8d  ", status.Sources)

		if status.Marker.IsZero() {
			colorHiBlack.Printf("%-20s  ", "never")
		} else {
			fmt.Printf("%-20s  ", status.Marker.Local().Format(time.DateTime))
		}

		fmt.Println(status.Reason)
	}
}
