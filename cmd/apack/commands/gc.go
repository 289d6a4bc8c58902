package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newGCCmd()) })
}

func newGCCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Prune orphaned artifacts from the internal directory",
		Long: `Delete internal artifacts that no cache manifest entry references.

Every rebuild mints a fresh UUID-versioned filename. A rebuild removes the
artifact it replaces, but files that no entry references can still pile up,
such as the output of a build that failed after writing it, or everything
built before the cache manifest was deleted. gc diffs the cache manifest
against the directory listing and removes the leftovers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runGC(dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deleted without deleting")

	return cmd
}

func runGC(dryRun bool) error {
	_, pc, err := loadProject()
	if err != nil {
		return err
	}

	cacheManifest, err := cache.Load(pc.CacheManifestPath)
	if err != nil {
		return err
	}

	referenced := make(map[string]struct{}, len(cacheManifest.Map))
	for _, entry := range cacheManifest.Map {
		referenced[filepath.FromSlash(entry.Path)] = struct{}{}
	}

	var orphans []string
	err = filepath.WalkDir(pc.Dirs.InternalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(pc.Dirs.InternalDir, path)
		if err != nil {
			return err
		}
		if _, ok := referenced[rel]; !ok {
			orphans = append(orphans, rel)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("Internal directory does not exist - nothing to collect.")
			return nil
		}
		return fmt.Errorf("failed to scan internal directory: %w", err)
	}

	if len(orphans) == 0 {
		fmt.Printf("%s no orphaned artifacts\n", ui.Green("✓"))
		return nil
	}

	for _, rel := range orphans {
		if dryRun {
			fmt.Printf("%s %s\n", ui.Yellow("would delete"), rel)
			continue
		}
		if err := os.Remove(filepath.Join(pc.Dirs.InternalDir, rel)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", rel, err)
		}
		fmt.Printf("%s %s\n", ui.Red("deleted"), rel)
	}

	if dryRun {
		fmt.Printf("\n%d orphaned artifacts (dry run)\n", len(orphans))
	} else {
		fmt.Printf("\n%s deleted %d orphaned artifacts\n", ui.Green("✓"), len(orphans))
	}
	return nil
}
