package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newVersionCmd()) })
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apack %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
		},
	}
}
