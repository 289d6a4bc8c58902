package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/apack-io/apack/internal/assets"
	"github.com/apack-io/apack/internal/config"
	"github.com/apack-io/apack/internal/filter"
	"github.com/apack-io/apack/internal/packer"
	"github.com/apack-io/apack/internal/ui"
)

// loadProject locates the project root and resolves the engine configuration.
func loadProject() (string, packer.Config, error) {
	root, cfg, err := config.Load()
	if err != nil {
		return "", packer.Config{}, err
	}
	return root, cfg.PackerConfig(root), nil
}

// newRegistry returns the filter registry used by the CLI: the builtin
// filters shipped with apack.
func newRegistry() *filter.Registry {
	return filter.NewRegistry(filter.Builtins())
}

// sortedAssetNames returns the manifest's asset names in sorted order.
func sortedAssetNames(m *assets.Manifest) []string {
	names := m.Names()
	sort.Strings(names)
	return names
}

// explainPackError renders engine errors with extra CLI context, including
// fuzzy "did you mean" suggestions for misspelled asset names.
func explainPackError(err error, m *assets.Manifest) string {
	var notFound *assets.NotFoundError
	if errors.As(err, &notFound) && m != nil {
		msg := fmt.Sprintf("asset %q is not defined in the manifest", notFound.Name)
		if suggestions := suggestNames(notFound.Name, m.Names()); len(suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", ui.Cyan(suggestions[0]))
		}
		return msg
	}

	var filterNotFound *filter.NotFoundError
	if errors.As(err, &filterNotFound) {
		msg := fmt.Sprintf("filter %q is not registered", filterNotFound.Name)
		if suggestions := suggestNames(filterNotFound.Name, newRegistry().Names()); len(suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", ui.Cyan(suggestions[0]))
		}
		return msg
	}

	var pathErr *assets.PathError
	if errors.As(err, &pathErr) {
		return fmt.Sprintf("output path %q escapes the asset directories", pathErr.Path)
	}

	return err.Error()
}

// suggestNames returns up to three fuzzy matches for a misspelled name.
func suggestNames(name string, candidates []string) []string {
	matches := fuzzy.Find(name, candidates)
	var out []string
	for i, match := range matches {
		if i == 3 {
			break
		}
		out = append(out, match.Str)
	}
	return out
}
