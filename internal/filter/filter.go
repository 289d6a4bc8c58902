// Package filter defines the filter capability consumed by the pack engine:
// a named transformation from one or more input files to a single output
// file, dispatched through an immutable registry.
package filter

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Filter processes input files into a single output file. Implementations
// are provided by the host; the engine only ever calls them through a
// Registry. A filter is responsible for creating the output file (including
// parent directories if it writes somewhere unusual — the engine has already
// created the output path's parent).
type Filter interface {
	Process(inputPaths []string, outputPath string, options map[string]Option) error
}

// NotFoundError indicates a filter name with no registered implementation.
// It is distinguishable from errors returned by a filter itself.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("filter not registered: %s", e.Name)
}

// Error wraps an error returned by a filter implementation, tagging it with
// the filter's name. The underlying error is available via Unwrap.
type Error struct {
	Filter string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("filter %s: %v", e.Filter, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Registry maps filter names to implementations. It is built once and never
// mutated; it neither creates nor deletes files and never inspects option
// contents.
type Registry struct {
	filters map[string]Filter
}

// NewRegistry builds a registry from a name-to-filter map. The map is copied.
func NewRegistry(filters map[string]Filter) *Registry {
	m := make(map[string]Filter, len(filters))
	for name, f := range filters {
		m[name] = f
	}
	return &Registry{filters: m}
}

// Names returns the registered filter names in unspecified order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	return names
}

// Invoke dispatches to the named filter. An unregistered name yields a
// NotFoundError; a failure inside the filter is returned as an Error wrapping
// the filter's own error.
func (r *Registry) Invoke(name string, inputPaths []string, outputPath string, options map[string]Option) error {
	logrus.Debugf("processing %v to %s with filter %s", inputPaths, outputPath, name)

	f, ok := r.filters[name]
	if !ok {
		return errors.WithStack(&NotFoundError{Name: name})
	}
	if err := f.Process(inputPaths, outputPath, options); err != nil {
		return errors.WithStack(&Error{Filter: name, Err: err})
	}
	return nil
}
