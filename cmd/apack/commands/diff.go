package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newDiffCmd()) })
}

func newDiffCmd() *cobra.Command {
	var namesOnly bool

	cmd := &cobra.Command{
		Use:   "diff [asset...]",
		Short: "Show pending edits to raw source assets",
		Long: `Show line-by-line differences between the source files of File-backed
assets and the artifacts cached from the last build.

Without arguments, every File-backed asset with pending edits is shown.
Filtered assets have no single source to compare and are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runDiff(args, namesOnly)
		},
	}

	cmd.Flags().BoolVar(&namesOnly, "names-only", false, "List changed assets without content diffs")

	return cmd
}

func runDiff(names []string, namesOnly bool) error {
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

	if len(names) == 0 {
		names = sortedAssetNames(manifest)
	}

	changed := 0
	for _, name := range names {
		data, ok := manifest.Lookup(name)
		if !ok {
			return fmt.Errorf("asset %q is not defined in the manifest", name)
		}
		if !data.Source.IsFile() {
			continue
		}

		entry, ok := cacheManifest.GetEntry(name)
		if !ok {
			fmt.Printf("%s %s\n", ui.Yellow("?"), name+" "+ui.Dim("(never built)"))
			continue
		}

		srcBytes, err := os.ReadFile(filepath.Join(pc.Dirs.SourceDir, filepath.FromSlash(data.Source.File)))
		if err != nil {
			fmt.Printf("%s %s %s\n", ui.Red("!"), name, ui.Dim("(source unreadable)"))
			continue
		}
		cachedBytes, err := os.ReadFile(filepath.Join(pc.Dirs.InternalDir, filepath.FromSlash(entry.Path)))
		if err != nil {
			fmt.Printf("%s %s %s\n", ui.Yellow("~"), name, ui.Dim("(cached artifact missing)"))
			changed++
			continue
		}

		if string(srcBytes) == string(cachedBytes) {
			continue
		}
		changed++

		if namesOnly {
			fmt.Printf("%s %s\n", ui.Yellow("~"), name)
			continue
		}

		fmt.Printf("%s %s %s\n", ui.Bold("==="), ui.Bold(name), ui.Dim("("+data.Source.File+")"))
		printLineDiff(string(cachedBytes), string(srcBytes))
		fmt.Println()
	}

	if changed == 0 {
		fmt.Printf("%s no pending source edits\n", ui.Green("✓"))
	}
	return nil
}

// printLineDiff renders a line-based diff from the cached bytes to the
// current source bytes.
func printLineDiff(oldText, newText string) {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	for _, d := range diffs {
		for _, line := range splitDiffLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Println(ui.Green("+" + line))
			case diffmatchpatch.DiffDelete:
				fmt.Println(ui.Red("-" + line))
			case diffmatchpatch.DiffEqual:
				fmt.Println(ui.Dim(" " + line))
			}
		}
	}
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
