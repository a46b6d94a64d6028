package shape

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/geom"
)

// Params holds named scalar parameters for a generator.
type Params map[string]float64

// ParamSpec describes one generator parameter.
type ParamSpec struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Default float64  `json:"default"`
	Doc     string   `json:"doc,omitempty"`
}

// Generator produces an outline from named parameters.
type Generator interface {
	// Kind is the name scenes use to refer to the generator.
	Kind() string
	// Params lists the accepted parameters in positional order.
	Params() []ParamSpec
	// Generate builds the outline. Missing parameters take their defaults.
	Generate(p Params) (geom.Outline, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Generator{
		KindRhombus: rhombusGenerator{},
	}
)

// Register adds g to the registry, replacing any generator of the same kind.
func Register(g Generator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(g.Kind())] = g
}

// Lookup returns the generator registered under kind (case-insensitive).
func Lookup(kind string) (Generator, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if g, ok := registry[strings.ToLower(kind)]; ok {
		return g, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidShape, "unknown shape kind %q (known: %s)", kind, strings.Join(kindsLocked(), ", "))
}

// Kinds returns the registered kinds in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return kindsLocked()
}

func kindsLocked() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Generate looks up kind and generates an outline from p.
func Generate(kind string, p Params) (geom.Outline, error) {
	g, err := Lookup(kind)
	if err != nil {
		return geom.Outline{}, err
	}
	return g.Generate(p)
}

// Positional maps positional arguments onto the generator's parameter
// names, the way rhombus(10, 20) binds w and l.
func Positional(g Generator, args ...float64) (Params, error) {
	specs := g.Params()
	if len(args) > len(specs) {
		return nil, errors.New(errors.ErrCodeInvalidShape, "%s takes at most %d arguments, got %d", g.Kind(), len(specs), len(args))
	}
	p := make(Params, len(args))
	for i, a := range args {
		p[specs[i].Name] = a
	}
	return p, nil
}

// resolve fills defaults, folds aliases onto canonical names and rejects
// unknown or non-finite parameters.
func (p Params) resolve(specs []ParamSpec) (map[string]float64, error) {
	out := make(map[string]float64, len(specs))
	known := make(map[string]string)
	for _, s := range specs {
		out[s.Name] = s.Default
		known[s.Name] = s.Name
		for _, a := range s.Aliases {
			known[a] = s.Name
		}
	}

	// Sorted so the same bad input always reports the same key.
	given := make(map[string]string, len(p))
	for _, k := range slices.Sorted(maps.Keys(p)) {
		name, ok := known[strings.ToLower(k)]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidShape, "unknown parameter %q", k)
		}
		if prev, dup := given[name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidShape, "parameters %q and %q both set %s", prev, k, name)
		}
		given[name] = k
		if err := errors.ValidateFinite(k, p[k]); err != nil {
			return nil, err
		}
		out[name] = p[k]
	}
	return out, nil
}

// CanonicalName maps a parameter name or alias of g onto its canonical
// name. Unknown names are returned unchanged.
func CanonicalName(g Generator, name string) string {
	lower := strings.ToLower(name)
	for _, spec := range g.Params() {
		if spec.Name == lower || slices.Contains(spec.Aliases, lower) {
			return spec.Name
		}
	}
	return name
}

// Fold returns a copy of p with every key rewritten to its canonical name
// for g. When two keys name the same parameter, later keys in sorted order
// win; callers merging overrides fold first so the override replaces the
// original value.
func (p Params) Fold(g Generator) Params {
	out := make(Params, len(p))
	for _, k := range slices.Sorted(maps.Keys(p)) {
		out[CanonicalName(g, k)] = p[k]
	}
	return out
}
