package cache

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/filter"
	"github.com/apack-io/apack/internal/pathutil"
)

// Dirs holds the three directory roots the engine works under: raw inputs
// are read from SourceDir, UUID-named artifacts for every built asset live
// under InternalDir (the cache body, persisted between runs), and public
// artifacts are copied into TargetDir.
type Dirs struct {
	SourceDir   string
	InternalDir string
	TargetDir   string
}

// Stats counts what happened during a run.
type Stats struct {
	Created int // entries built for the first time
	Rebuilt int // stale entries rebuilt
	Reused  int // entries found fresh
}

// Evaluator drives one pack run: it resolves asset names against the cache,
// rebuilds stale entries, and publishes public assets. All evaluation is
// synchronous on the calling goroutine; the directories are assumed to be
// owned exclusively by the evaluator for the duration of the run.
type Evaluator struct {
	Dirs    Dirs
	Assets  *assets.Manifest
	Filters *filter.Registry
	Cache   *Manifest
	Stats   Stats
}

// Process resolves name against the cache. A cached entry is freshness
// checked and rebuilt if stale; an unknown name is built from scratch. The
// returned flag reports whether this call produced a new artifact — it feeds
// the freshness check of downstream filtered assets and is not a property of
// the cache itself.
//
// On success the cache map reflects the post-call state and all transitive
// dependencies have been processed. On failure nothing is installed for
// name, but entries installed for dependencies before the failure remain.
func (ev *Evaluator) Process(name string) (Entry, bool, error) {
	// The map value is a detached snapshot: update recurses back into
	// Process, which may grow the map while we hold the entry.
	if entry, ok := ev.Cache.Map[name]; ok {
		rebuilt, err := ev.update(entry)
		if err != nil {
			return Entry{}, false, err
		}
		if rebuilt != nil {
			ev.Cache.Map[name] = *rebuilt
			ev.Stats.Rebuilt++
			return *rebuilt, true, nil
		}
		ev.Stats.Reused++
		return entry, false, nil
	}

	entry, err := ev.create(name)
	if err != nil {
		return Entry{}, false, err
	}
	ev.Cache.Map[name] = entry
	ev.Stats.Created++
	return entry, true, nil
}

// ProcessPublicAssets evaluates every public asset in declaration order and
// copies its artifact into the target directory. The copy runs even for
// fresh entries: the target directory may have been cleared independently of
// the cache, and re-copying is the cheap way to heal that.
func (ev *Evaluator) ProcessPublicAssets() error {
	for _, name := range ev.Assets.PublicAssets {
		entry, _, err := ev.Process(name)
		if err != nil {
			return err
		}

		// Second defense: the entry may predate the current manifest and
		// carry a path the create-time check never saw.
		if !pathutil.IsSafe(entry.Path) {
			return assets.NewPathError(entry.Path)
		}

		src := filepath.Join(ev.Dirs.InternalDir, filepath.FromSlash(entry.Path))
		dst := filepath.Join(ev.Dirs.TargetDir, filepath.FromSlash(entry.Path))
		logrus.Debugf("publishing %s to %s", src, dst)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.WithStack(err)
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// create builds a fresh entry for name: allocate a UUID-versioned output
// path, materialize the artifact under the internal directory, and — for
// File sources — hash the committed bytes.
func (ev *Evaluator) create(name string) (Entry, error) {
	data, ok := ev.Assets.Lookup(name)
	if !ok {
		return Entry{}, assets.NewNotFoundError(name)
	}

	filename := name + "-" + uuid.New().String()
	if data.Extension != "" {
		filename += "." + data.Extension
	}
	relPath := filename
	if data.OutputBasePath != "" {
		relPath = data.OutputBasePath + "/" + filename
	}
	if !pathutil.IsSafe(relPath) {
		return Entry{}, assets.NewPathError(relPath)
	}

	outPath := filepath.Join(ev.Dirs.InternalDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return Entry{}, errors.WithStack(err)
	}

	var fileHash *Hash
	if data.Source.IsFile() {
		srcPath := filepath.Join(ev.Dirs.SourceDir, filepath.FromSlash(data.Source.File))
		logrus.Debugf("copying %s to %s", srcPath, outPath)
		if err := copyFile(srcPath, outPath); err != nil {
			return Entry{}, err
		}
		// Hash the destination, not the source: this witnesses the exact
		// bytes committed to the cache.
		h, err := HashFile(outPath)
		if err != nil {
			return Entry{}, err
		}
		fileHash = &h
	} else {
		filtered := data.Source.Filtered
		inputPaths := make([]string, 0, len(filtered.InputNames))
		for _, inputName := range filtered.InputNames {
			// Each input is fully processed (and its cache entry committed)
			// before the filter runs.
			inputEntry, _, err := ev.Process(inputName)
			if err != nil {
				return Entry{}, err
			}
			inputPaths = append(inputPaths, filepath.Join(ev.Dirs.InternalDir, filepath.FromSlash(inputEntry.Path)))
		}

		if err := ev.Filters.Invoke(filtered.FilterName, inputPaths, outPath, filtered.Options); err != nil {
			return Entry{}, err
		}
	}

	return Entry{Name: name, Data: data, Path: relPath, FileHash: fileHash}, nil
}

// update decides whether self is still fresh. It returns nil if the cached
// artifact can be kept, or the replacement entry if a rebuild was needed.
// self is a detached copy; the cache map is only touched through the
// recursive Process calls on inputs.
func (ev *Evaluator) update(self Entry) (*Entry, error) {
	newData, ok := ev.Assets.Lookup(self.Name)
	if !ok {
		return nil, assets.NewNotFoundError(self.Name)
	}

	fullPath := filepath.Join(ev.Dirs.InternalDir, filepath.FromSlash(self.Path))

	needUpdate, err := ev.needUpdate(self, newData, fullPath)
	if err != nil {
		return nil, err
	}
	if !needUpdate {
		return nil, nil
	}

	logrus.Debugf("rebuilding %s", self.Name)

	// The rebuild picks a fresh UUID path, so the old artifacts would become
	// orphans; remove them from both roots now.
	if fileExists(fullPath) {
		if err := os.Remove(fullPath); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	targetPath := filepath.Join(ev.Dirs.TargetDir, filepath.FromSlash(self.Path))
	if fileExists(targetPath) {
		if err := os.Remove(targetPath); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	entry, err := ev.create(self.Name)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// needUpdate is the freshness test: the definition changed, the artifact is
// gone, the source file's bytes no longer match the recorded hash, or — for
// filtered assets — any input reports changed. Input evaluation
// short-circuits on the first change, but the cache side effects of inputs
// processed before that point are committed regardless; inputs past the
// first change are picked up by the subsequent create.
func (ev *Evaluator) needUpdate(self Entry, newData assets.Data, fullPath string) (bool, error) {
	if !newData.Equal(self.Data) {
		return true, nil
	}
	if !fileExists(fullPath) {
		return true, nil
	}

	if self.Data.Source.IsFile() {
		srcPath := filepath.Join(ev.Dirs.SourceDir, filepath.FromSlash(self.Data.Source.File))
		h, err := HashFile(srcPath)
		if err != nil {
			return false, err
		}
		if self.FileHash == nil {
			return true, nil
		}
		return h != *self.FileHash, nil
	}

	for _, inputName := range self.Data.Source.Filtered.InputNames {
		_, changed, err := ev.Process(inputName)
		if err != nil {
			return false, err
		}
		if changed {
			return true, nil
		}
	}
	return false, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies src to dst bytewise, overwriting dst if present.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(dst, data, 0644))
}
