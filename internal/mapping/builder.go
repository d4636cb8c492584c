package mapping

import (
	"fmt"
	"maps"
	"slices"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/resource"
)

// Builder produces one validated Node.
//
// Builders are values: every configuration method returns a modified copy
// and never touches the receiver, so a partially configured builder can be
// reused as a template without two mappings sharing state.
type Builder interface {
	build(naming NamingStrategy) (*Node, error)
	inherit(path string) Builder
}

// Build validates b and returns the immutable root node.
func Build(b Builder) (*Node, error) {
	return BuildWith(b, DefaultNaming{})
}

// BuildWith is Build with a custom naming strategy.
func BuildWith(b Builder, naming NamingStrategy) (*Node, error) {
	if b == nil {
		return nil, scerrors.ConfigurationError("", "nil mapping builder", nil)
	}
	return b.build(naming)
}

func withParam(params map[string]string, key, value string) map[string]string {
	out := maps.Clone(params)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[key] = value
	return out
}

func checkPath(naming NamingStrategy, path string) error {
	if path == "" {
		return scerrors.ConfigurationError(path, "mapping path must not be empty", nil)
	}
	if naming.IsInternal(path) {
		return scerrors.ConfigurationError(path, "mapping path uses the reserved internal prefix", nil)
	}
	return nil
}

// PropertyBuilder configures a scalar property.
type PropertyBuilder struct {
	n Node
}

// Property starts a stored, tokenized string property whose path equals its name.
func Property(name string) PropertyBuilder {
	return PropertyBuilder{n: Node{
		kind:      KindScalar,
		name:      name,
		path:      name,
		valueType: TypeString,
		store:     true,
		index:     IndexTokenized,
		boost:     1,
	}}
}

// ID starts an identifier property: stored and queryable as an exact value.
func ID(name string) PropertyBuilder {
	b := Property(name)
	b.n.identifier = true
	b.n.index = IndexUnTokenized
	return b
}

// Element starts an unnamed scalar used as a collection element.
// Its path defaults to the path of the enclosing collection.
func Element(t ValueType) PropertyBuilder {
	b := Property("")
	b.n.valueType = t
	return b
}

func (b PropertyBuilder) Path(path string) PropertyBuilder {
	b.n.path = path
	return b
}

func (b PropertyBuilder) Type(t ValueType) PropertyBuilder {
	b.n.valueType = t
	return b
}

func (b PropertyBuilder) Store(store bool) PropertyBuilder {
	b.n.store = store
	return b
}

func (b PropertyBuilder) Index(mode IndexMode) PropertyBuilder {
	b.n.index = mode
	return b
}

func (b PropertyBuilder) TermVector(tv resource.TermVector) PropertyBuilder {
	b.n.termVector = tv
	return b
}

func (b PropertyBuilder) Boost(boost float32) PropertyBuilder {
	b.n.boost = boost
	return b
}

// Format sets the "format" converter parameter (a time layout or fmt verb).
func (b PropertyBuilder) Format(format string) PropertyBuilder {
	b.n.params = withParam(b.n.params, "format", format)
	return b
}

func (b PropertyBuilder) Converter(name string) PropertyBuilder {
	b.n.converterRef = name
	return b
}

func (b PropertyBuilder) Param(key, value string) PropertyBuilder {
	b.n.params = withParam(b.n.params, key, value)
	return b
}

// NullValue sets the placeholder written when the value is null,
// so that existence can still be queried.
func (b PropertyBuilder) NullValue(placeholder string) PropertyBuilder {
	b.n.nullValue = placeholder
	b.n.hasNull = true
	return b
}

func (b PropertyBuilder) inherit(path string) Builder {
	if b.n.path == "" {
		b.n.path = path
	}
	if b.n.name == "" {
		b.n.name = path
	}
	return b
}

func (b PropertyBuilder) build(naming NamingStrategy) (*Node, error) {
	n := b.n
	if err := checkPath(naming, n.path); err != nil {
		return nil, err
	}
	if n.converterRef == "" && n.valueType == "" {
		return nil, scerrors.ConfigurationError(n.path, "property needs a value type or a converter", nil)
	}
	if n.boost < 0 {
		return nil, scerrors.ConfigurationError(n.path, "boost must not be negative", nil)
	}
	if n.identifier && (!n.store || n.index != IndexUnTokenized) {
		return nil, scerrors.ConfigurationError(n.path, "identifier must be stored and un_tokenized", nil)
	}
	if n.identifier && n.hasNull {
		return nil, scerrors.ConfigurationError(n.path, "identifier cannot declare a null value", nil)
	}
	n.params = maps.Clone(n.params)
	return &n, nil
}

// CompositeBuilder configures a class or component mapping.
type CompositeBuilder struct {
	n        Node
	children []Builder
}

// Class starts a root mapping for the entity type alias.
func Class(alias string) CompositeBuilder {
	return CompositeBuilder{n: Node{kind: KindComposite, name: alias, path: alias, alias: alias}}
}

// Component starts a nested composite read from the field name.
func Component(name string) CompositeBuilder {
	return CompositeBuilder{n: Node{kind: KindComposite, name: name, path: name}}
}

// Add appends child mappings in declared order.
func (b CompositeBuilder) Add(children ...Builder) CompositeBuilder {
	b.children = append(slices.Clone(b.children), children...)
	return b
}

func (b CompositeBuilder) Path(path string) CompositeBuilder {
	b.n.path = path
	return b
}

func (b CompositeBuilder) Converter(name string) CompositeBuilder {
	b.n.converterRef = name
	return b
}

func (b CompositeBuilder) inherit(path string) Builder {
	if b.n.path == "" {
		b.n.path = path
	}
	return b
}

func (b CompositeBuilder) build(naming NamingStrategy) (*Node, error) {
	n := b.n
	if n.path == "" {
		return nil, scerrors.ConfigurationError(n.path, "mapping path must not be empty", nil)
	}
	if len(b.children) == 0 {
		return nil, scerrors.ConfigurationError(n.path, "composite mapping has no children", nil)
	}

	n.children = make([]*Node, 0, len(b.children))
	seen := make(map[string]struct{}, len(b.children))
	ids := 0
	for _, cb := range b.children {
		child, err := BuildWith(cb, naming)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[child.path]; dup {
			return nil, scerrors.ConfigurationError(child.path, fmt.Sprintf("duplicate path in %s", n.path), nil)
		}
		seen[child.path] = struct{}{}
		if child.identifier {
			ids++
		}
		n.children = append(n.children, child)
	}

	switch {
	case ids == 0:
		return nil, scerrors.ConfigurationError(n.path, "composite mapping has no identifier", nil)
	case ids > 1:
		return nil, scerrors.ConfigurationError(n.path, "composite mapping has more than one identifier", nil)
	}
	if err := checkIdentifierShadow(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// checkIdentifierShadow rejects nested values written under the path of
// n's identifier. Identifiers are looked up by path, so a nested value
// there would be read back as n's identity.
func checkIdentifierShadow(n *Node) error {
	id := n.Identifier()
	var err error
	for _, c := range n.children {
		if c == id {
			continue
		}
		c.Walk(func(d *Node) bool {
			if err != nil {
				return false
			}
			if (d.kind == KindScalar || d.kind == KindRaw) && d.path == id.path {
				err = scerrors.ConfigurationError(d.path,
					fmt.Sprintf("path is already used by the identifier of %s", n.path), nil)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CollectionBuilder configures an array or list mapping.
type CollectionBuilder struct {
	n       Node
	element Builder
}

// Collection maps the field name to a collection whose elements are
// marshalled by element. Element paths default to the collection path.
func Collection(name string, element Builder) CollectionBuilder {
	return CollectionBuilder{
		n:       Node{kind: KindCollection, name: name, path: name},
		element: element,
	}
}

func (b CollectionBuilder) Path(path string) CollectionBuilder {
	b.n.path = path
	return b
}

// Compact records only the actual size.
func (b CollectionBuilder) Compact() CollectionBuilder {
	b.n.sizePolicy = SizeCompact
	return b
}

func (b CollectionBuilder) Policy(p SizePolicy) CollectionBuilder {
	b.n.sizePolicy = p
	return b
}

func (b CollectionBuilder) Converter(name string) CollectionBuilder {
	b.n.converterRef = name
	return b
}

func (b CollectionBuilder) inherit(path string) Builder {
	if b.n.path == "" {
		b.n.path = path
	}
	return b
}

func (b CollectionBuilder) build(naming NamingStrategy) (*Node, error) {
	n := b.n
	if err := checkPath(naming, n.path); err != nil {
		return nil, err
	}
	if b.element == nil {
		return nil, scerrors.ConfigurationError(n.path, "collection mapping has no element mapping", nil)
	}

	elem, err := BuildWith(b.element.inherit(n.path), naming)
	if err != nil {
		return nil, err
	}
	switch {
	case elem.kind == KindCollection:
		return nil, scerrors.ConfigurationError(n.path, "nested collections are not supported", nil)
	case elem.identifier:
		return nil, scerrors.ConfigurationError(n.path, "collection element cannot be an identifier", nil)
	case elem.hasNull:
		// Null elements are recorded by position, never as a placeholder.
		return nil, scerrors.ConfigurationError(n.path, "collection element cannot declare a null value", nil)
	}
	n.children = []*Node{elem}

	base := naming.BuildPath(naming.RootPath(), n.path)
	n.sizePath = naming.BuildPath(base, "colSize")
	if n.sizePolicy == SizePositional {
		n.lengthPath = naming.BuildPath(base, "colLength")
		n.slotsPath = naming.BuildPath(base, "colSlots")
	}
	return &n, nil
}

// RawBuilder configures an opaque, write-only value (bytes, text, or a reader).
type RawBuilder struct {
	n Node
}

// Raw starts an unstored, tokenized raw mapping.
func Raw(name string) RawBuilder {
	return RawBuilder{n: Node{kind: KindRaw, name: name, path: name, index: IndexTokenized, boost: 1}}
}

func (b RawBuilder) Path(path string) RawBuilder {
	b.n.path = path
	return b
}

func (b RawBuilder) Store(store bool) RawBuilder {
	b.n.store = store
	return b
}

func (b RawBuilder) TermVector(tv resource.TermVector) RawBuilder {
	b.n.termVector = tv
	return b
}

func (b RawBuilder) Boost(boost float32) RawBuilder {
	b.n.boost = boost
	return b
}

func (b RawBuilder) Converter(name string) RawBuilder {
	b.n.converterRef = name
	return b
}

func (b RawBuilder) inherit(path string) Builder {
	if b.n.path == "" {
		b.n.path = path
	}
	if b.n.name == "" {
		b.n.name = path
	}
	return b
}

func (b RawBuilder) build(naming NamingStrategy) (*Node, error) {
	n := b.n
	if err := checkPath(naming, n.path); err != nil {
		return nil, err
	}
	if n.boost < 0 {
		return nil, scerrors.ConfigurationError(n.path, "boost must not be negative", nil)
	}
	return &n, nil
}
