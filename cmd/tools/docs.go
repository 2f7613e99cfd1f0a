package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/spf13/cobra"
)

const layoutDoc = `<root>/
  definitions/<suite>.yaml          suite generator definitions
  assembly/<suite dir>/<category>/<program>.s
  assembly/<suite dir>/manifest.yaml
  reference/<suite dir>/.cache_marker.yaml
  reference/<suite dir>/<category>/<program>.s/test.memimg
  reference/<suite dir>/<category>/<program>.s/golden.json
  runs/<configuration>/<suite>/<category>/<program>.s/dut.json
  runs/reports/<run id>.yaml`

const snapshotDoc = `Final state snapshots are JSON documents:

{
  "vm_state": {
    "program_counter": <int>,
    "instructions_retired": <int>,
    "cycle_s": <float>,          ignored
    "cpi": <float>,              ignored
    "ipc": <float>               ignored
  },
  "registers": {"x0": <int>, ..., "x31": <int>},
  "memory_dump": {"<address>": <int>, ...}
}

Integers may be signed, unsigned or quoted hexadecimal strings. A missing
field compares unequal to any present value.`

var supportedTopics = map[string]func() string{
	"layout":   func() string { return layoutDoc },
	"snapshot": func() string { return snapshotDoc },
}

func init() {
	for _, def := range hazard.DefaultDefinitions() {
		def := def
		supportedTopics["suite."+def.Name] = func() string {
			data, err := hazard.EncodeDefinition(def)
			if err != nil {
				return err.Error()
			}
			return string(data)
		}
	}

	docsCmd.Long = `Dumps the documentation of the specified hazardbench topic.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported topics:
` + strings.Join(utils.Map(utils.SortedKeys(supportedTopics), func(topic string) string { return "  " + topic }), "\n")
	docsCmd.ValidArgs = utils.SortedKeys(supportedTopics)

	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}

var docsCmd = &cobra.Command{
	Use:   "docs topic",
	Short: "Show hazardbench documentation",
	Args:  cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	Run: func(cmd *cobra.Command, args []string) {
		topic := args[0]
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			file, err := os.Create(outputFile)
			if err != nil {
				fmt.Println("Error creating file:", err)
				logging.Exit(1)
			}
			defer file.Close()
			fmt.Fprintln(file, supportedTopics[topic]())
		} else {
			fmt.Println(supportedTopics[topic]())
		}
	},
}
