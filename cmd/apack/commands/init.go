package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/config"
	"github.com/apack-io/apack/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newInitCmd()) })
}

func newInitCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an apack project in the current directory",
		Long: `Create apack.json in the current directory along with the source,
internal, and target directories and an empty asset manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runInit(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.SourceDir, "source", cfg.SourceDir, "Source directory for raw asset files")
	cmd.Flags().StringVar(&cfg.InternalDir, "internal", cfg.InternalDir, "Internal directory for cached artifacts")
	cmd.Flags().StringVar(&cfg.TargetDir, "target", cfg.TargetDir, "Target directory for public assets")
	cmd.Flags().StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "Asset manifest path")
	cmd.Flags().StringVar(&cfg.CacheManifest, "cache-manifest", cfg.CacheManifest, "Cache manifest path")

	return cmd
}

func runInit(cfg *config.ProjectConfig) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if err := config.InitAt(cwd, cfg); err != nil {
		return err
	}

	fmt.Printf("%s initialized apack project in %s\n", ui.Green("✓"), ui.Bold(cwd))
	fmt.Printf("  manifest: %s\n", ui.Cyan(cfg.Manifest))
	fmt.Printf("  source:   %s\n", ui.Cyan(cfg.SourceDir))
	fmt.Printf("  target:   %s\n", ui.Cyan(cfg.TargetDir))
	return nil
}
