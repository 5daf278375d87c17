// Package envproject turns environment variables into global replacement
// symbols for the bundler's define step.
//
// Only keys carrying the REACT_ENV_ prefix are exposed to browser code. Each
// retained key becomes a process.env.<KEY> expression whose replacement is the
// JSON string encoding of the value, so substitution always produces a quoted
// string literal rather than a bare identifier.
package envproject

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// Prefix marks environment keys that are safe to expose to browser code.
	Prefix = "REACT_ENV_"
	// Namespace is prepended to each retained key to form the replaced expression.
	Namespace = "process.env."
)

// ReplacementMap maps a source expression such as process.env.REACT_ENV_API to
// the JSON literal that replaces it.
type ReplacementMap map[string]string

// Keys returns the replaced expressions in sorted order.
func (r ReplacementMap) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}

// Values decodes the literals back to raw values keyed by environment
// variable name. Entries outside the process.env namespace are skipped.
func (r ReplacementMap) Values() map[string]string {
	values := make(map[string]string, len(r))
	for expr, literal := range r {
		key, ok := strings.CutPrefix(expr, Namespace)
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal([]byte(literal), &value); err != nil {
			continue
		}
		values[key] = value
	}
	return values
}

// Observer receives the projected map for diagnostics.
type Observer func(ReplacementMap)

// Projector filters an environment and reports the result to an Observer.
type Projector struct {
	Observer Observer
}

// New returns a Projector that reports through the global zerolog logger.
func New() *Projector {
	return &Projector{Observer: LogObserver}
}

// Project filters env and notifies the observer, if any.
func (p *Projector) Project(env map[string]string) ReplacementMap {
	defines := Project(env)
	if p != nil && p.Observer != nil {
		p.Observer(defines)
	}
	return defines
}

// Project returns a replacement for every key of env starting with Prefix.
// Other keys are dropped without notice. A nil env yields an empty map.
func Project(env map[string]string) ReplacementMap {
	defines := make(ReplacementMap)
	for key, value := range env {
		if !strings.HasPrefix(key, Prefix) {
			continue
		}
		defines[Namespace+key] = quote(value)
	}
	return defines
}

// LogObserver logs the projected expressions. Values are left out since they
// frequently hold API keys.
func LogObserver(defines ReplacementMap) {
	log.Info().
		Int("count", len(defines)).
		Strs("defines", defines.Keys()).
		Msg("Projected environment")
}

func quote(value string) string {
	// json.Marshal of a string cannot fail
	data, _ := json.Marshal(value)
	return string(data)
}
