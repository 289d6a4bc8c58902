package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/config"
	"github.com/apack-io/apack/internal/filter"
	"github.com/apack-io/apack/internal/packer"
)

const testManifest = `{
  "assets": {
    "a": {"extension": "txt", "source": {"File": "a.txt"}},
    "b": {"extension": "txt", "source": {"File": "b.txt"}},
    "out": {
      "output_base_path": "out_text",
      "extension": "txt",
      "source": {"Filtered": {
        "filter_name": "Concat",
        "input_names": ["a", "b"],
        "options": {"additional_text": {"String": "!"}}
      }}
    }
  },
  "public_assets": ["out"]
}`

// setupProject initializes a project in a temp dir, chdirs into it, and
// seeds the sample manifest and sources.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	if err := config.InitAt(dir, config.Default()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets.json"), []byte(testManifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	for name, content := range map[string]string{"a.txt": "alpha", "b.txt": "beta"} {
		if err := os.WriteFile(filepath.Join(dir, "assets", name), []byte(content), 0644); err != nil {
			t.Fatalf("write source: %v", err)
		}
	}
	return dir
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestPackCommandBuildsTarget(t *testing.T) {
	dir := setupProject(t)

	if err := runCommand(t, "pack"); err != nil {
		t.Fatalf("pack: %v", err)
	}

	cacheManifest, err := cache.Load(filepath.Join(dir, ".apack", "cache.json"))
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	entry, ok := cacheManifest.GetEntry("out")
	if !ok {
		t.Fatalf("out entry missing")
	}

	data, err := os.ReadFile(filepath.Join(dir, "static", filepath.FromSlash(entry.Path)))
	if err != nil {
		t.Fatalf("published artifact missing: %v", err)
	}
	if string(data) != "alphabeta!" {
		t.Fatalf("published bytes = %q", data)
	}
}

func TestGCRemovesOrphans(t *testing.T) {
	dir := setupProject(t)
	if err := runCommand(t, "pack"); err != nil {
		t.Fatalf("pack: %v", err)
	}

	internal := filepath.Join(dir, ".apack", "internal")
	stray := filepath.Join(internal, "stray-artifact.txt")
	if err := os.WriteFile(stray, []byte("orphan"), 0644); err != nil {
		t.Fatalf("write stray: %v", err)
	}

	if err := runCommand(t, "gc"); err != nil {
		t.Fatalf("gc: %v", err)
	}

	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Fatalf("orphan not deleted")
	}

	// Referenced artifacts survive.
	cacheManifest, _ := cache.Load(filepath.Join(dir, ".apack", "cache.json"))
	entry, _ := cacheManifest.GetEntry("out")
	if _, err := os.Stat(filepath.Join(internal, filepath.FromSlash(entry.Path))); err != nil {
		t.Fatalf("referenced artifact deleted: %v", err)
	}
}

func TestGCDryRunKeepsOrphans(t *testing.T) {
	dir := setupProject(t)
	if err := runCommand(t, "pack"); err != nil {
		t.Fatalf("pack: %v", err)
	}

	stray := filepath.Join(dir, ".apack", "internal", "stray-artifact.txt")
	os.WriteFile(stray, []byte("orphan"), 0644)

	if err := runCommand(t, "gc", "--dry-run"); err != nil {
		t.Fatalf("gc --dry-run: %v", err)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("dry run deleted the orphan")
	}
}

func TestStalenessClassification(t *testing.T) {
	dir := setupProject(t)

	pc := config.Default().PackerConfig(dir)
	if _, err := packer.Pack(pc, filter.NewRegistry(filter.Builtins())); err != nil {
		t.Fatalf("pack: %v", err)
	}

	manifest, _ := assets.LoadManifest(pc.ManifestPath)
	cacheManifest, _ := cache.Load(pc.CacheManifestPath)
	s := &staleness{
		manifest: manifest,
		cache:    cacheManifest,
		dirs:     pc.Dirs,
		memo:     map[string]string{},
	}

	for _, name := range []string{"a", "b", "out"} {
		if r := s.reason(name); r != "" {
			t.Fatalf("%s should be fresh, got %q", name, r)
		}
	}

	// Edit a source: a becomes stale and the staleness propagates to out.
	os.WriteFile(filepath.Join(dir, "assets", "a.txt"), []byte("gamma"), 0644)
	s2 := &staleness{manifest: manifest, cache: cacheManifest, dirs: pc.Dirs, memo: map[string]string{}}
	if r := s2.reason("a"); r != "source edited" {
		t.Fatalf("a reason = %q", r)
	}
	if r := s2.reason("out"); !strings.Contains(r, "input") {
		t.Fatalf("out reason = %q", r)
	}
	if r := s2.reason("b"); r != "" {
		t.Fatalf("b should stay fresh, got %q", r)
	}
}

func TestExplainPackErrorSuggests(t *testing.T) {
	manifest := &assets.Manifest{Assets: map[string]assets.Data{
		"styles": {Extension: "css", Source: assets.Source{File: "styles.css"}},
	}}

	msg := explainPackError(assets.NewNotFoundError("style"), manifest)
	if !strings.Contains(msg, "styles") {
		t.Fatalf("expected suggestion in %q", msg)
	}

	msg = explainPackError(filter.NewRegistry(nil).Invoke("Conct", nil, "", nil), manifest)
	if !strings.Contains(msg, "Concat") {
		t.Fatalf("expected filter suggestion in %q", msg)
	}
}
