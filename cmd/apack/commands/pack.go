package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/packer"
	"github.com/apack-io/apack/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newPackCmd()) })
}

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Build public assets into the target directory",
		Long: `Evaluate every public asset in the manifest and copy its artifact into
the target directory.

Assets whose sources, inputs, and definitions are unchanged since the last
run are reused from the internal cache; everything else is rebuilt under a
fresh UUID-versioned filename. The cache manifest is persisted even when a
build fails, so completed work carries over to the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runPack(cmd)
		},
	}
	return cmd
}

func runPack(cmd *cobra.Command) error {
	root, pc, err := loadProject()
	if err != nil {
		return err
	}

	stats, err := packer.Pack(pc, newRegistry())
	if err != nil {
		// Best effort: the manifest may itself be unreadable.
		manifest, _ := assets.LoadManifest(pc.ManifestPath)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", ui.Red("pack failed:"), explainPackError(err, manifest))
		cmd.SilenceErrors = true
		return SilentExit(1)
	}

	fmt.Printf("%s %s\n", ui.Green("✓"), ui.Bold("pack complete"))
	fmt.Printf("  %s built, %s rebuilt, %s reused\n",
		ui.Cyan(fmt.Sprintf("%d", stats.Created)),
		ui.Yellow(fmt.Sprintf("%d", stats.Rebuilt)),
		ui.Dim(fmt.Sprintf("%d", stats.Reused)))
	fmt.Printf("  project: %s\n", ui.Dim(root))
	return nil
}
