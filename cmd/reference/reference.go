package reference

import (
	"github.com/spf13/cobra"
)

// ReferenceCmd groups the reference artifact cache commands
var ReferenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Manage the golden reference artifacts",
	Long: `Reference artifacts are the assembled memory image and the golden final state
of every generated program. They are cached per suite and regenerated only when
the suite definition, its sources or the harness itself changed.`,
}
