// Package mapping describes how a logical entity type maps to Resource
// property paths, converters, and nested sub-mappings.
//
// Nodes are built once through the builders in this package and are
// immutable afterwards, so a single tree can be shared by any number of
// concurrent marshalling calls.
package mapping

import (
	"maps"

	"github.com/Aman-CERP/scout/internal/resource"
)

// DefaultParam is the converter parameter name used when a converter takes a single unnamed value.
const DefaultParam = "$default"

// Kind tags the variant of a Node.
type Kind int

const (
	KindScalar Kind = iota
	KindComposite
	KindCollection
	KindRaw
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindComposite:
		return "composite"
	case KindCollection:
		return "collection"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ValueType is the declared Go-side type of a scalar value.
// Recording it here keeps converters free of runtime type discovery.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInt     ValueType = "int"
	TypeInt64   ValueType = "int64"
	TypeFloat64 ValueType = "float64"
	TypeBool    ValueType = "bool"
	TypeTime    ValueType = "time"
	TypeBytes   ValueType = "bytes"
)

// IndexMode controls how a scalar is indexed.
type IndexMode int

const (
	IndexTokenized IndexMode = iota
	IndexUnTokenized
	IndexNo
)

// String returns the configuration name of the index mode.
func (m IndexMode) String() string {
	switch m {
	case IndexTokenized:
		return "tokenized"
	case IndexUnTokenized:
		return "un_tokenized"
	case IndexNo:
		return "no"
	default:
		return "unknown"
	}
}

// SizePolicy decides what a collection records besides its elements.
type SizePolicy int

const (
	// SizePositional records the actual size, the requested size, and the
	// slot of every non-null element, so nulls keep their positions on unmarshall.
	SizePositional SizePolicy = iota
	// SizeCompact records only the actual size; nulls collapse on unmarshall.
	SizeCompact
)

// Node is one immutable node of a mapping tree.
type Node struct {
	kind         Kind
	name         string
	path         string
	alias        string
	converterRef string
	params       map[string]string
	children     []*Node

	identifier bool
	valueType  ValueType
	store      bool
	index      IndexMode
	termVector resource.TermVector
	boost      float32
	nullValue  string
	hasNull    bool

	sizePolicy SizePolicy
	sizePath   string
	lengthPath string
	slotsPath  string
}

func (n *Node) Kind() Kind { return n.kind }
func (n *Node) Name() string { return n.name }
func (n *Node) Path() string { return n.path }
func (n *Node) Alias() string { return n.alias }
func (n *Node) ConverterRef() string { return n.converterRef }
func (n *Node) IsIdentifier() bool { return n.identifier }
func (n *Node) ValueType() ValueType { return n.valueType }
func (n *Node) Store() bool { return n.store }
func (n *Node) Index() IndexMode { return n.index }
func (n *Node) TermVector() resource.TermVector { return n.termVector }
func (n *Node) Boost() float32 { return n.boost }
func (n *Node) SizePolicy() SizePolicy { return n.sizePolicy }

// Indexed reports whether the value is searchable at all.
func (n *Node) Indexed() bool { return n.index != IndexNo }

// Tokenized reports whether the value is analyzed into terms.
func (n *Node) Tokenized() bool { return n.index == IndexTokenized }

// NullValue returns the placeholder written for null values, if configured.
func (n *Node) NullValue() (string, bool) { return n.nullValue, n.hasNull }

// Param returns a converter parameter.
func (n *Node) Param(name string) (string, bool) {
	v, ok := n.params[name]
	return v, ok
}

// ConverterParam returns the default converter parameter.
func (n *Node) ConverterParam() string {
	return n.params[DefaultParam]
}

// Params returns a copy of the converter parameters.
func (n *Node) Params() map[string]string {
	return maps.Clone(n.params)
}

// Children returns the child nodes in declared order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Identifier returns the identifier child of a composite node, or nil.
func (n *Node) Identifier() *Node {
	if n.kind != KindComposite {
		return nil
	}
	for _, c := range n.children {
		if c.identifier {
			return c
		}
	}
	return nil
}

// Element returns the element mapping of a collection node, or nil.
func (n *Node) Element() *Node {
	if n.kind != KindCollection || len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// SizePath is the internal path holding the count of non-null elements.
func (n *Node) SizePath() string { return n.sizePath }

// LengthPath is the internal path holding the requested container length.
func (n *Node) LengthPath() string { return n.lengthPath }

// SlotsPath is the internal path holding the positions of non-null elements.
func (n *Node) SlotsPath() string { return n.slotsPath }

// IDPaths returns the identifier paths of a root composite.
func (n *Node) IDPaths() []string {
	if id := n.Identifier(); id != nil {
		return []string{id.path}
	}
	return nil
}

// Walk visits n and every descendant depth-first in declared order.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}
