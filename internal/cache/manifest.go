// Package cache implements the incremental build engine: the persistent
// cache manifest that records what was built on previous runs, and the
// recursive evaluator that decides per asset whether the cached artifact is
// still fresh or must be rebuilt.
package cache

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/apack-io/apack/internal/assets"
)

// Entry is one row of the persistent cache: the asset it describes, the
// definition that produced it, the relative path of the materialized
// artifact under the internal directory, and — for File sources — the Blake3
// digest of the committed bytes.
//
// Path embeds a freshly minted v4 UUID in its file stem, so every rebuild
// yields a distinct path and old URLs never alias new content.
type Entry struct {
	Name     string      `json:"name"`
	Data     assets.Data `json:"data"`
	Path     string      `json:"path"`
	FileHash *Hash       `json:"file_hash,omitempty"`
}

// Manifest is the V1 cache state: a name-to-entry map. It is the only
// mutable state the engine maintains across a run. Entries are replaced,
// never deleted; an entry whose on-disk artifact has gone missing is simply
// treated as stale on the next run.
type Manifest struct {
	Map map[string]Entry `json:"map"`
}

// NewManifest returns an empty cache manifest.
func NewManifest() *Manifest {
	return &Manifest{Map: make(map[string]Entry)}
}

// GetEntry returns the cached entry for name.
func (m *Manifest) GetEntry(name string) (Entry, bool) {
	e, ok := m.Map[name]
	return e, ok
}

// Versioned is the persisted envelope around the cache manifest. V1 is
// currently the only variant; the tag reserves the format for evolution, and
// unknown tags fail to load rather than silently defaulting.
type Versioned struct {
	V1 *Manifest
}

func (v Versioned) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*Manifest{"V1": v.V1})
}

func (v *Versioned) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return errors.Errorf("cache manifest must have exactly one version tag, got %d", len(raw))
	}
	for tag, payload := range raw {
		if tag != "V1" {
			return errors.Errorf("unknown cache manifest version %q", tag)
		}
		var m Manifest
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		v.V1 = &m
	}
	return nil
}

// Load reads a cache manifest file. A missing file yields an empty manifest;
// a malformed or unknown-version file is an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, errors.WithStack(err)
	}
	var v Versioned
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, assets.NewFormatError(path, err)
	}
	if v.V1.Map == nil {
		v.V1.Map = make(map[string]Entry)
	}
	return v.V1, nil
}

// Save writes the cache manifest under the versioned envelope.
func Save(path string, m *Manifest) error {
	data, err := json.Marshal(Versioned{V1: m})
	if err != nil {
		return assets.NewFormatError(path, err)
	}
	return errors.WithStack(os.WriteFile(path, data, 0644))
}
