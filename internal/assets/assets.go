// Package assets defines the user-authored asset manifest: named assets that
// are either raw files from the source directory or the output of a named
// filter over other assets.
package assets

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/apack-io/apack/internal/filter"
)

// Filtered describes an asset computed by a filter. Input assets are passed
// to the filter positionally, in declaration order.
type Filtered struct {
	FilterName string                   `json:"filter_name"`
	InputNames []string                 `json:"input_names"`
	Options    map[string]filter.Option `json:"options"`
}

// Equal reports structural equality.
func (f *Filtered) Equal(other *Filtered) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.FilterName != other.FilterName {
		return false
	}
	if len(f.InputNames) != len(other.InputNames) {
		return false
	}
	for i := range f.InputNames {
		if f.InputNames[i] != other.InputNames[i] {
			return false
		}
	}
	return filter.OptionsEqual(f.Options, other.Options)
}

// Source is the origin of an asset's bytes: exactly one of File (a relative
// path under the source directory) or Filtered is set.
//
// The JSON form is externally tagged: {"File": "css/site.css"} or
// {"Filtered": {...}}.
type Source struct {
	File     string
	Filtered *Filtered
}

// IsFile reports whether the source is a raw file.
func (s Source) IsFile() bool { return s.Filtered == nil }

// Equal reports structural equality.
func (s Source) Equal(other Source) bool {
	if s.IsFile() != other.IsFile() {
		return false
	}
	if s.IsFile() {
		return s.File == other.File
	}
	return s.Filtered.Equal(other.Filtered)
}

func (s Source) MarshalJSON() ([]byte, error) {
	if s.Filtered != nil {
		return json.Marshal(map[string]*Filtered{"Filtered": s.Filtered})
	}
	return json.Marshal(map[string]string{"File": s.File})
}

func (s *Source) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return errors.Errorf("asset source must have exactly one variant, got %d", len(raw))
	}
	for tag, payload := range raw {
		switch tag {
		case "File":
			var p string
			if err := json.Unmarshal(payload, &p); err != nil {
				return err
			}
			*s = Source{File: p}
		case "Filtered":
			var f Filtered
			if err := json.Unmarshal(payload, &f); err != nil {
				return err
			}
			*s = Source{Filtered: &f}
		default:
			return errors.Errorf("unknown asset source variant %q", tag)
		}
	}
	return nil
}

// Data is the manifest's definition of one asset. Structural equality over
// all three fields is the change-detection key for filtered assets.
type Data struct {
	// OutputBasePath is an optional relative subdirectory under the internal
	// and target roots. Must stay inside the root after dot resolution.
	OutputBasePath string `json:"output_base_path,omitempty"`
	// Extension stamped on the generated file.
	Extension string `json:"extension"`
	Source    Source `json:"source"`
}

// Equal reports structural equality.
func (d Data) Equal(other Data) bool {
	return d.OutputBasePath == other.OutputBasePath &&
		d.Extension == other.Extension &&
		d.Source.Equal(other.Source)
}

// Manifest is the user-authored description of all assets. Only the names in
// PublicAssets are published to the target directory; everything else exists
// solely as intermediates.
type Manifest struct {
	Assets       map[string]Data `json:"assets"`
	PublicAssets []string        `json:"public_assets"`
}

// Lookup returns the definition for name.
func (m *Manifest) Lookup(name string) (Data, bool) {
	d, ok := m.Assets[name]
	return d, ok
}

// Names returns all asset names in unspecified order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Assets))
	for name := range m.Assets {
		names = append(names, name)
	}
	return names
}

// LoadManifest reads and decodes an asset manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, NewFormatError(path, err)
	}
	return &m, nil
}

// SaveManifest encodes and writes an asset manifest file.
func SaveManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return NewFormatError(path, err)
	}
	return errors.WithStack(os.WriteFile(path, data, 0644))
}
