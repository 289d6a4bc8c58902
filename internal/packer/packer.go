// Package packer ties the layers together: it loads the asset manifest and
// the persisted cache manifest, evaluates every public asset, and writes the
// cache manifest back.
package packer

import (
	"github.com/sirupsen/logrus"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/cache"
	"github.com/apack-io/apack/internal/filter"
)

// Config locates the manifests and the three directory roots for one pack
// run. There are no other tunables.
type Config struct {
	ManifestPath      string
	CacheManifestPath string
	Dirs              cache.Dirs
}

// Pack processes the manifest's public assets, reusing cached artifacts
// where inputs are unchanged, and persists the updated cache manifest.
//
// The cache manifest is written back even when processing fails: entries
// committed before the failure are still valid and save work on the next
// run. Stats describe what the run did up to the point of return.
func Pack(cfg Config, registry *filter.Registry) (cache.Stats, error) {
	manifest, err := assets.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return cache.Stats{}, err
	}

	cacheManifest, err := cache.Load(cfg.CacheManifestPath)
	if err != nil {
		return cache.Stats{}, err
	}

	ev := &cache.Evaluator{
		Dirs:    cfg.Dirs,
		Assets:  manifest,
		Filters: registry,
		Cache:   cacheManifest,
	}

	logrus.Debug("processing assets")
	processErr := ev.ProcessPublicAssets()
	if processErr == nil {
		logrus.Debug("assets were processed")
	}

	if err := cache.Save(cfg.CacheManifestPath, cacheManifest); err != nil {
		return ev.Stats, err
	}
	return ev.Stats, processErr
}
