// Package config reads and writes the project configuration file
// (apack.json) and locates the project root from any working directory
// inside it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/packer"
)

// ConfigFileName is the project marker file at the project root.
const ConfigFileName = "apack.json"

// ProjectConfig is the on-disk project configuration. All paths are relative
// to the project root (absolute paths are taken as-is).
type ProjectConfig struct {
	SourceDir     string `json:"source_dir"`
	InternalDir   string `json:"internal_dir"`
	TargetDir     string `json:"target_dir"`
	Manifest      string `json:"manifest"`
	CacheManifest string `json:"cache_manifest"`
}

// Default returns the configuration written by `apack init`.
func Default() *ProjectConfig {
	return &ProjectConfig{
		SourceDir:     "assets",
		InternalDir:   ".apack/internal",
		TargetDir:     "static",
		Manifest:      "assets.json",
		CacheManifest: ".apack/cache.json",
	}
}

// FindProjectRoot walks up from the current directory looking for apack.json.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(cwd)
}

// FindProjectRootFrom walks up from start looking for apack.json.
func FindProjectRootFrom(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in an apack project (no %s found)", ConfigFileName)
		}
		dir = parent
	}
}

// Load reads the project configuration for the current directory's project.
// It returns the project root alongside the parsed config.
func Load() (string, *ProjectConfig, error) {
	root, err := FindProjectRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := LoadAt(root)
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// LoadAt reads the project configuration from a specific project root.
func LoadAt(root string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SaveAt writes the project configuration to a specific project root.
func SaveAt(root string, cfg *ProjectConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// InitAt creates a new project at root: the config file, the source,
// internal, and target directories, and an empty asset manifest if none
// exists.
func InitAt(root string, cfg *ProjectConfig) error {
	configPath := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("already initialized: %s exists", configPath)
	}

	if err := SaveAt(root, cfg); err != nil {
		return err
	}

	for _, dir := range []string{cfg.SourceDir, cfg.InternalDir, cfg.TargetDir} {
		if err := os.MkdirAll(resolve(root, dir), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	manifestPath := resolve(root, cfg.Manifest)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		empty := []byte("{\n  \"assets\": {},\n  \"public_assets\": []\n}\n")
		if err := os.WriteFile(manifestPath, empty, 0644); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}
	return nil
}

// PackerConfig resolves the configured paths against root into the engine's
// configuration.
func (c *ProjectConfig) PackerConfig(root string) packer.Config {
	return packer.Config{
		ManifestPath:      resolve(root, c.Manifest),
		CacheManifestPath: resolve(root, c.CacheManifest),
		Dirs: cache.Dirs{
			SourceDir:   resolve(root, c.SourceDir),
			InternalDir: resolve(root, c.InternalDir),
			TargetDir:   resolve(root, c.TargetDir),
		},
	}
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
