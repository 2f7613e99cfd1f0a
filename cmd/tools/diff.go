package tools

import (
	"fmt"
	"os"

	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/Manu343726/hazardbench/pkg/snapshot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <reference.json> <dut.json>",
	Short: "Compare two final state snapshots",
	Long: `Compares the final state dumped by the simulator under test with a reference
snapshot, the same way 'hazardbench verify' does.

Program counter, retired instructions, the 32 integer registers and every memory
word present in either snapshot must match. Performance metrics are ignored.
Exits with status 1 on mismatch.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := snapshot.CompareFiles(args[0], args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			logging.Exit(2)
		}

		if result.Match {
			color.New(color.FgGreen).Println("States match")
			return
		}

		color.New(color.FgRed, color.Bold).Print(result.Diff.String())
		logging.Exit(1)
	},
}

func init() {
	ToolsCmd.AddCommand(diffCmd)
}
