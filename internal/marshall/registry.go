package marshall

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/mapping"
)

// Registry resolves mapping nodes to converters.
//
// Composite, collection and raw nodes dispatch by kind; scalar nodes
// dispatch by their converter reference, or by value type when none is set.
// A node's converter reference always wins over the kind table.
type Registry struct {
	mu     sync.RWMutex
	named  map[string]Converter
	values map[string]ValueConverter
	kinds  map[mapping.Kind]Converter
}

// NewRegistry returns a registry with the built-in converters registered.
func NewRegistry() *Registry {
	r := &Registry{
		named:  make(map[string]Converter),
		values: make(map[string]ValueConverter),
		kinds: map[mapping.Kind]Converter{
			mapping.KindComposite:  compositeConverter{},
			mapping.KindCollection: collectionConverter{},
			mapping.KindRaw:        rawConverter{},
		},
	}
	for name, vc := range builtinValues() {
		r.RegisterValue(name, vc)
	}
	return r
}

// Register adds a converter under name, replacing any previous one.
func (r *Registry) Register(name string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = c
}

// RegisterValue adds a scalar value converter under name.
func (r *Registry) RegisterValue(name string, vc ValueConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] = vc
	r.named[name] = &scalarConverter{value: vc}
}

// RegisterKind replaces the default converter of a node kind.
func (r *Registry) RegisterKind(kind mapping.Kind, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = c
}

// Configure registers a parameterized scalar converter from a settings group.
// The "type" entry names the value converter to derive from; every other
// entry becomes a default parameter that node parameters override.
func (r *Registry) Configure(name string, group map[string]string) error {
	base, ok := group["type"]
	if !ok || base == "" {
		return scerrors.ConfigurationError(name, fmt.Sprintf("converter group %q has no type", name), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	vc, ok := r.values[base]
	if !ok {
		return scerrors.UnknownConverterError(name, base)
	}
	defaults := maps.Clone(group)
	delete(defaults, "type")
	r.named[name] = &scalarConverter{value: vc, defaults: defaults}
	return nil
}

// ConfigureGroups calls Configure for every group, in name order.
func (r *Registry) ConfigureGroups(groups map[string]map[string]string) error {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.Configure(name, groups[name]); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered converter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the converter responsible for node.
func (r *Registry) Resolve(node *mapping.Node) (Converter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref := node.ConverterRef(); ref != "" {
		if c, ok := r.named[ref]; ok {
			return c, nil
		}
		return nil, scerrors.UnknownConverterError(node.Path(), ref)
	}

	if node.Kind() == mapping.KindScalar {
		name := string(node.ValueType())
		if c, ok := r.named[name]; ok {
			return c, nil
		}
		return nil, scerrors.UnknownConverterError(node.Path(), name)
	}

	if c, ok := r.kinds[node.Kind()]; ok {
		return c, nil
	}
	return nil, scerrors.UnknownConverterError(node.Path(), node.Kind().String())
}
