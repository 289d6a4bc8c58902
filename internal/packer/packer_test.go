package packer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/filter"
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

type fixture struct {
	cfg      Config
	registry *filter.Registry
}

func setup(t *testing.T, manifestJSON string) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := Config{
		ManifestPath:      filepath.Join(root, "assets.json"),
		CacheManifestPath: filepath.Join(root, "cache.json"),
		Dirs: cache.Dirs{
			SourceDir:   filepath.Join(root, "source"),
			InternalDir: filepath.Join(root, "internal"),
			TargetDir:   filepath.Join(root, "target"),
		},
	}
	for _, d := range []string{cfg.Dirs.SourceDir, cfg.Dirs.InternalDir, cfg.Dirs.TargetDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(cfg.ManifestPath, []byte(manifestJSON), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return &fixture{cfg: cfg, registry: filter.NewRegistry(filter.Builtins())}
}

func (f *fixture) writeSource(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.cfg.Dirs.SourceDir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
}

func (f *fixture) entry(t *testing.T, name string) cache.Entry {
	t.Helper()
	m, err := cache.Load(f.cfg.CacheManifestPath)
	if err != nil {
		t.Fatalf("load cache manifest: %v", err)
	}
	e, ok := m.GetEntry(name)
	if !ok {
		t.Fatalf("entry %s missing from cache manifest", name)
	}
	return e
}

func (f *fixture) targetBytes(t *testing.T, e cache.Entry) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.cfg.Dirs.TargetDir, filepath.FromSlash(e.Path)))
	if err != nil {
		t.Fatalf("read target artifact: %v", err)
	}
	return string(data)
}

// Scenario A: basic build, then a source edit flows through to a fresh
// UUID-versioned output and the old files are gone.
func TestPackBuildAndSourceEdit(t *testing.T) {
	f := setup(t, testManifest)
	f.writeSource(t, "a.txt", "alpha")
	f.writeSource(t, "b.txt", "beta")

	if _, err := Pack(f.cfg, f.registry); err != nil {
		t.Fatalf("first pack: %v", err)
	}
	out1 := f.entry(t, "out")
	if !strings.HasPrefix(out1.Path, "out_text/out-") {
		t.Fatalf("unexpected output path: %s", out1.Path)
	}
	if f.targetBytes(t, out1) != "alphabeta!" {
		t.Fatalf("first output = %q", f.targetBytes(t, out1))
	}

	f.writeSource(t, "a.txt", "gamma")
	if _, err := Pack(f.cfg, f.registry); err != nil {
		t.Fatalf("second pack: %v", err)
	}
	out2 := f.entry(t, "out")
	if out2.Path == out1.Path {
		t.Fatalf("rebuild must mint a new path")
	}
	if f.targetBytes(t, out2) != "gammabeta!" {
		t.Fatalf("second output = %q", f.targetBytes(t, out2))
	}

	for _, dir := range []string{f.cfg.Dirs.TargetDir, f.cfg.Dirs.InternalDir} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(out1.Path))); !os.IsNotExist(err) {
			t.Fatalf("old artifact still present under %s", dir)
		}
	}
}

// Two identical consecutive runs reuse everything.
func TestPackSecondRunReusesEverything(t *testing.T) {
	f := setup(t, testManifest)
	f.writeSource(t, "a.txt", "alpha")
	f.writeSource(t, "b.txt", "beta")

	if _, err := Pack(f.cfg, f.registry); err != nil {
		t.Fatalf("first pack: %v", err)
	}
	out1 := f.entry(t, "out")

	stats, err := Pack(f.cfg, f.registry)
	if err != nil {
		t.Fatalf("second pack: %v", err)
	}
	if stats.Created != 0 || stats.Rebuilt != 0 {
		t.Fatalf("second run rebuilt something: %+v", stats)
	}
	out2 := f.entry(t, "out")
	if out2.Path != out1.Path {
		t.Fatalf("paths changed without edits")
	}
	if f.targetBytes(t, out2) != "alphabeta!" {
		t.Fatalf("output bytes changed without edits")
	}
}

// Scenario B: internal directory wiped, cache manifest preserved. Outputs
// are rebuilt under new UUIDs but byte-equivalent.
func TestPackRebuildsAfterInternalWipe(t *testing.T) {
	f := setup(t, testManifest)
	f.writeSource(t, "a.txt", "alpha")
	f.writeSource(t, "b.txt", "beta")

	if _, err := Pack(f.cfg, f.registry); err != nil {
		t.Fatalf("first pack: %v", err)
	}
	out1 := f.entry(t, "out")

	if err := os.RemoveAll(f.cfg.Dirs.InternalDir); err != nil {
		t.Fatalf("wipe internal: %v", err)
	}

	if _, err := Pack(f.cfg, f.registry); err != nil {
		t.Fatalf("second pack: %v", err)
	}
	out2 := f.entry(t, "out")
	if out2.Path == out1.Path {
		t.Fatalf("lost intermediates must force new paths")
	}
	if f.targetBytes(t, out2) != "alphabeta!" {
		t.Fatalf("rebuilt output differs: %q", f.targetBytes(t, out2))
	}
}

// Scenario C: a filtered input that is not defined in the manifest.
func TestPackMissingAsset(t *testing.T) {
	manifest := `{
  "assets": {
    "out": {"extension": "txt", "source": {"Filtered": {
      "filter_name": "Concat", "input_names": ["c"], "options": {}
    }}}
  },
  "public_assets": ["out"]
}`
	f := setup(t, manifest)

	_, err := Pack(f.cfg, f.registry)
	var nf *assets.NotFoundError
	if !errors.As(err, &nf) || nf.Name != "c" {
		t.Fatalf("expected NotFoundError for c, got %v", err)
	}
}

// Scenario D: unknown filter name.
func TestPackUnknownFilter(t *testing.T) {
	manifest := `{
  "assets": {
    "a": {"extension": "txt", "source": {"File": "a.txt"}},
    "out": {"extension": "txt", "source": {"Filtered": {
      "filter_name": "Nope", "input_names": ["a"], "options": {}
    }}}
  },
  "public_assets": ["out"]
}`
	f := setup(t, manifest)
	f.writeSource(t, "a.txt", "alpha")

	_, err := Pack(f.cfg, f.registry)
	var nf *filter.NotFoundError
	if !errors.As(err, &nf) || nf.Name != "Nope" {
		t.Fatalf("expected filter NotFoundError, got %v", err)
	}
}

// Scenario E: escaping output_base_path fails and writes nothing outside the
// engine's roots.
func TestPackPathEscape(t *testing.T) {
	manifest := `{
  "assets": {
    "a": {"output_base_path": "../evil", "extension": "txt", "source": {"File": "a.txt"}}
  },
  "public_assets": ["a"]
}`
	f := setup(t, manifest)
	f.writeSource(t, "a.txt", "alpha")

	_, err := Pack(f.cfg, f.registry)
	var pe *assets.PathError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PathError, got %v", err)
	}

	root := filepath.Dir(f.cfg.Dirs.InternalDir)
	if _, statErr := os.Stat(filepath.Join(root, "evil")); !os.IsNotExist(statErr) {
		t.Fatalf("escape directory was created")
	}
}

// Partial successes survive a failing run: the cache manifest is persisted
// with the entries committed before the failure.
func TestPackPersistsCacheOnFailure(t *testing.T) {
	manifest := `{
  "assets": {
    "a": {"extension": "txt", "source": {"File": "a.txt"}},
    "out": {"extension": "txt", "source": {"Filtered": {
      "filter_name": "Nope", "input_names": ["a"], "options": {}
    }}}
  },
  "public_assets": ["out"]
}`
	f := setup(t, manifest)
	f.writeSource(t, "a.txt", "alpha")

	if _, err := Pack(f.cfg, f.registry); err == nil {
		t.Fatalf("expected pack to fail")
	}

	m, err := cache.Load(f.cfg.CacheManifestPath)
	if err != nil {
		t.Fatalf("cache manifest not persisted: %v", err)
	}
	if _, ok := m.GetEntry("a"); !ok {
		t.Fatalf("committed input entry lost on failure")
	}
	if _, ok := m.GetEntry("out"); ok {
		t.Fatalf("failed entry must not be persisted")
	}
}

func TestPackMalformedManifest(t *testing.T) {
	f := setup(t, "{not json")

	_, err := Pack(f.cfg, f.registry)
	var fe *assets.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}
