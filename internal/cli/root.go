// Package cli implements the wmslite command line interface: one-shot
// reconciliation runs over local files, without a server or state store.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags.
var version = "dev"

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wmslite",
		Short: "Reconcile inventory and reception spreadsheets",
		Long: `wmslite merges an inventory export and a reception export into a
consolidated per-item view, annotates it with location types, and selects
the items below a quantity threshold into a relocation worklist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newConsolidateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("wmslite " + version)
		},
	}
}
