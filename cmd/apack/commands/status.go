package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newStatusCmd()) })
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which assets are up to date, stale, or unbuilt",
		Long: `Report the freshness of every asset in the manifest without building
anything.

An asset is stale when its definition changed, its cached artifact is
missing, its source file was edited, or any of its inputs is stale. The
next pack run will rebuild exactly the stale and unbuilt assets reachable
from the public set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runStatus()
		},
	}
	return cmd
}

// staleness is a read-only approximation of the engine's freshness test: it
// never rebuilds, so a stale input marks every dependent stale rather than
// re-running the change propagation exactly.
type staleness struct {
	manifest *assets.Manifest
	cache    *cache.Manifest
	dirs     cache.Dirs
	memo     map[string]string // name -> reason, "" = fresh
}

func (s *staleness) reason(name string) string {
	if r, ok := s.memo[name]; ok {
		return r
	}
	// Mark in-progress entries fresh; the manifest is assumed acyclic, so
	// this only guards against pathological inputs.
	s.memo[name] = ""
	r := s.compute(name)
	s.memo[name] = r
	return r
}

func (s *staleness) compute(name string) string {
	entry, ok := s.cache.GetEntry(name)
	if !ok {
		return "unbuilt"
	}
	data, ok := s.manifest.Lookup(name)
	if !ok {
		return "removed from manifest"
	}
	if !data.Equal(entry.Data) {
		return "definition changed"
	}
	if _, err := os.Stat(filepath.Join(s.dirs.InternalDir, filepath.FromSlash(entry.Path))); err != nil {
		return "artifact missing"
	}
	if data.Source.IsFile() {
		srcPath := filepath.Join(s.dirs.SourceDir, filepath.FromSlash(data.Source.File))
		h, err := cache.HashFile(srcPath)
		if err != nil {
			return "source missing"
		}
		if entry.FileHash == nil || h != *entry.FileHash {
			return "source edited"
		}
		return ""
	}
	for _, input := range data.Source.Filtered.InputNames {
		if s.reason(input) != "" {
			return fmt.Sprintf("input %s stale", input)
		}
	}
	return ""
}

func runStatus() error {
	_, pc, err := loadProject()
	if err != nil {
		return err
	}

	manifest, err := assets.LoadManifest(pc.ManifestPath)
	if err != nil {
		return err
	}
	cacheManifest, err := cache.Load(pc.CacheManifestPath)
	if err != nil {
		return err
	}

	public := make(map[string]bool, len(manifest.PublicAssets))
	for _, name := range manifest.PublicAssets {
		public[name] = true
	}

	s := &staleness{
		manifest: manifest,
		cache:    cacheManifest,
		dirs:     pc.Dirs,
		memo:     make(map[string]string),
	}

	fresh, stale := 0, 0
	for _, name := range sortedAssetNames(manifest) {
		marker := " "
		if public[name] {
			marker = ui.Cyan("●")
		}

		reason := s.reason(name)
		if reason == "" {
			fresh++
			fmt.Printf("%s %s %s\n", marker, ui.Green("✓"), name)
			continue
		}
		stale++
		fmt.Printf("%s %s %s %s\n", marker, ui.Yellow("~"), name, ui.Dim("("+reason+")"))
	}

	fmt.Println()
	if stale == 0 {
		fmt.Printf("%s all %d assets up to date\n", ui.Green("✓"), fresh)
	} else {
		fmt.Printf("%s %d stale, %d up to date - run %s to rebuild\n",
			ui.Yellow("~"), stale, fresh, ui.Bold("apack pack"))
	}
	return nil
}
