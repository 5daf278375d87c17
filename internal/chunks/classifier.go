// Package chunks decides which logical output chunk a bundled module belongs
// to.
//
// Third-party code is grouped per package under a vendor group label, e.g.
// node_modules/@babel/runtime/helpers lands in "vendors.babel/runtime". The
// scope marker is removed everywhere in the name so it stays safe for file
// names and URLs. As a consequence a scoped package "@foo" and an unscoped
// package "foo" share the chunk "vendors.foo"; callers rely on that and it is
// kept as is.
package chunks

import (
	"fmt"
	"strings"
)

const (
	// Marker is the directory segment that holds installed dependencies.
	Marker = "node_modules"
	// ScopeMarker prefixes namespaced package names.
	ScopeMarker = "@"
	// DefaultVendorGroup labels third-party chunks.
	DefaultVendorGroup = "vendors"
	// CommonGroup labels application code shared by two or more entry points.
	CommonGroup = "common"
)

// IsVendor reports whether path lies within a dependency directory. It is the
// test a module must pass before Name may be called.
func IsVendor(path string) bool {
	segments := splitPath(path)
	for i, s := range segments {
		if s == Marker && i < len(segments)-1 {
			return true
		}
	}
	return false
}

// PackageName extracts the package that owns contextPath: the segment after
// the last node_modules directory, or two segments for a scoped package. A
// scope directory with nothing below it is returned as is.
func PackageName(contextPath string) (string, error) {
	segments := splitPath(contextPath)

	last := -1
	for i, s := range segments {
		if s == Marker {
			last = i
		}
	}
	if last < 0 || last == len(segments)-1 {
		return "", fmt.Errorf("%w: %q", ErrNotVendorModule, contextPath)
	}

	name := segments[last+1]
	if strings.HasPrefix(name, ScopeMarker) && last+2 < len(segments) {
		name += "/" + segments[last+2]
	}
	return name, nil
}

// Name returns the chunk name "<group>.<package>" for a module whose directory
// is contextPath, with every scope marker stripped from the package name.
func Name(contextPath, group string) (string, error) {
	if group == "" {
		return "", ErrEmptyGroup
	}

	pkg, err := PackageName(contextPath)
	if err != nil {
		return "", err
	}

	return group + "." + strings.ReplaceAll(pkg, ScopeMarker, ""), nil
}

// splitPath splits on both separators; bundlers report POSIX paths while
// Windows module contexts use backslashes. Empty segments are dropped.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
