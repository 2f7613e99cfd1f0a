package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configsFlags bool

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "List the simulator configurations verified by default",
	Long: `Lists the simulator configurations, built-in and from the configuration file.
Any of the listed IDs can be passed to 'hazardbench verify --mode' or SIM_MODE.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := config.Load(viper.GetViper())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			logging.Exit(1)
		}

		configs, err := settings.SimulatorConfigurations("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			logging.Exit(1)
		}

		id := color.New(color.FgCyan, color.Bold)
		for _, c := range configs {
			id.Println(c.ID)
			if configsFlags {
				fmt.Printf("  %s\n", strings.Join(c.Flags(), " "))
			} else {
				fmt.Printf("  processor_type=%s data_hazard_mode=%s branch_stage=%s branch_predictor=%s\n",
					c.ProcessorType, orDefault(c.DataHazardMode), orDefault(c.BranchStage), orDefault(c.BranchPredictor))
			}
		}
	},
}

func orDefault(value string) string {
	if value == "" {
		return "(default)"
	}
	return value
}

func init() {
	ToolsCmd.AddCommand(configsCmd)
	configsCmd.Flags().BoolVar(&configsFlags, "flags", false, "Print the simulator command line flags of each configuration")
}
