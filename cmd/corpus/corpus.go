package corpus

import (
	"github.com/spf13/cobra"
)

// CorpusCmd groups the test program corpus commands
var CorpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage suite definitions and generate test programs",
}
