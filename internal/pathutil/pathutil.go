// Package pathutil validates manifest-supplied relative paths.
//
// The engine joins manifest paths under its internal and target roots, so a
// path that resolves above its root would let a manifest write outside the
// directories the engine owns. Normalization is purely lexical; the
// filesystem is never consulted.
package pathutil

import (
	"path"
	"path/filepath"
	"strings"
)

// Normalize resolves "." and ".." segments lexically and converts the result
// to forward slashes. It does not touch the filesystem.
func Normalize(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// IsSafe reports whether p is a relative path that stays inside its root
// after lexical dot-segment resolution. A rooted path, a bare "..", and any
// path whose normalized form begins with ".." are all unsafe. Note that a
// path like "x/../.." normalizes to ".." and is rejected even though no
// individual segment escapes on its own.
func IsSafe(p string) bool {
	if filepath.IsAbs(p) || strings.HasPrefix(filepath.ToSlash(p), "/") {
		return false
	}
	norm := Normalize(p)
	if norm == ".." || strings.HasPrefix(norm, "../") {
		return false
	}
	return true
}
