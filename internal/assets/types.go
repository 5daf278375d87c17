package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"maps"
	"path/filepath"
	"sync"

	"github.com/wolfeidau/webbuild/internal/chunks"
)

// Pipeline manages the asset build process and script loading
type Pipeline struct {
	config    Config
	funcs     template.FuncMap
	metadata  *chunks.Metafile
	// output directory relative to the root, as metafile paths are
	outPrefix string
	mu        sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) *Pipeline {
	return NewWithFuncs(config, nil)
}

// NewWithFuncs creates a new asset pipeline whose HTML template may call the
// given custom functions
func NewWithFuncs(config Config, customFuncs template.FuncMap) *Pipeline {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)

	return &Pipeline{
		config: config,
		funcs:  funcs,
	}
}

// path resolves a configured path against the project root
func (p *Pipeline) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.config.Root, rel)
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
