package corpus

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [suite...]",
	Short: "Write the built-in suite definitions",
	Long: `Writes the definitions of the built-in suites to the definitions directory.
Every generator parameter (registers, immediates, instruction rosters, sentinels)
lives in these YAML files and can be edited before generating the corpus.

Existing definitions are kept unless --force is given.

Built-in suites:
  single_without_hazards  every instruction in isolation, no hazards
  single_hazards          one producer feeding one consumer back to back
  multi_2_instr           producer/consumer pairs, adjacent
  multi_gapped            producer/consumer pairs with a neutral gap
  double_dep              two producers feeding one consumer
  control_data            hazards crossing branches and jumps`,
	Run: runInit,
}

func init() {
	CorpusCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing definitions")
}

func runInit(cmd *cobra.Command, args []string) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	defs := hazard.DefaultDefinitions()
	if len(args) > 0 {
		defs = defs[:0]
		for _, name := range args {
			def, ok := hazard.DefaultDefinition(name)
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: '%s' is not a built-in suite\n", name)
				logging.Exit(1)
			}
			defs = append(defs, def)
		}
	}

	writer := hazard.NewWriter(afero.NewOsFs(), settings.Layout(), slog.Default())
	written, err := writer.InitDefinitions(defs, initForce)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}

	for _, file := range written {
		fmt.Println(file)
	}
	if len(written) < len(defs) {
		fmt.Fprintf(os.Stderr, "%d definitions already existed, use --force to overwrite them\n", len(defs)-len(written))
	}
}
