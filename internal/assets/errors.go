package assets

import (
	"errors"
	"strings"
)

var (
	// ErrNoEntryPoints indicates no file matched the configured entry points
	ErrNoEntryPoints = errors.New("no entry points found")
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrUnknownMode indicates a mode other than production or development
	ErrUnknownMode = errors.New("unknown build mode")
	// ErrNotBuilt indicates metadata was requested before a successful build
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryPointNotFound indicates an entry point missing from the metafile
	ErrEntryPointNotFound = errors.New("entrypoint not found in metadata")
)

// BuildError carries the formatted esbuild messages of a failed build.
type BuildError struct {
	Messages []string
}

func (e *BuildError) Error() string {
	return ErrBuildFailed.Error() + ":\n" + strings.Join(e.Messages, "\n")
}

func (e *BuildError) Unwrap() error {
	return ErrBuildFailed
}
