package assets

import (
	"fmt"

	"github.com/pkg/errors"
)

// The engine's error kinds are plain error types matched with errors.As.
// Constructors wrap them with a captured stack so a failure deep in the
// recursive evaluation can be traced with %+v. Filesystem failures are
// wrapped in place with errors.WithStack; filter errors live in the filter
// package.

// NotFoundError indicates an asset name referenced by a filtered input or a
// public-assets entry that is absent from the manifest.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset not found in manifest: %s", e.Name)
}

// NewNotFoundError returns a stack-carrying NotFoundError.
func NewNotFoundError(name string) error {
	return errors.WithStack(&NotFoundError{Name: name})
}

// PathError indicates an output path that is rooted or escapes its root
// after lexical dot-segment resolution.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("unsafe asset path: %s", e.Path)
}

// NewPathError returns a stack-carrying PathError.
func NewPathError(path string) error {
	return errors.WithStack(&PathError{Path: path})
}

// FormatError indicates a malformed manifest or cache manifest.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed manifest %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NewFormatError returns a stack-carrying FormatError.
func NewFormatError(path string, err error) error {
	return errors.WithStack(&FormatError{Path: path, Err: err})
}
