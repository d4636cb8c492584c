// Package marshall converts object graphs into flat Resources and back by
// walking a mapping tree.
//
// A mapping is bound once against a Registry into a Plan; every converter
// is resolved at bind time so a missing converter fails before anything is
// marshalled. The Engine holds no per-call state and is safe for
// concurrent use.
package marshall

import (
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/resource"
)

// Converter marshalls one mapping node.
type Converter interface {
	// Marshall writes zero or more properties for value into res.
	Marshall(res *resource.Resource, value any, plan *Plan, ctx *Context) error
	// Unmarshall rebuilds the value of plan's node from res, or nil when absent.
	Unmarshall(res *resource.Resource, plan *Plan, ctx *Context) (any, error)
}

// Params looks up converter parameters.
type Params interface {
	Param(name string) (string, bool)
}

// ValueConverter converts a scalar to and from its indexed string form.
type ValueConverter interface {
	ToString(v any, p Params) (string, error)
	FromString(s string, p Params) (any, error)
}

// Plan is a mapping node bound to its resolved converter.
type Plan struct {
	node     *mapping.Node
	conv     Converter
	children []*Plan
}

// Node returns the mapping node.
func (p *Plan) Node() *mapping.Node { return p.node }

// Converter returns the resolved converter.
func (p *Plan) Converter() Converter { return p.conv }

// Children returns the child plans in declared order.
func (p *Plan) Children() []*Plan {
	out := make([]*Plan, len(p.children))
	copy(out, p.children)
	return out
}

// Child returns the direct child plan mapped at path, or nil.
func (p *Plan) Child(path string) *Plan {
	for _, c := range p.children {
		if c.node.Path() == path {
			return c
		}
	}
	return nil
}

// Identifier returns the identifier plan of a composite, or nil.
func (p *Plan) Identifier() *Plan {
	for _, c := range p.children {
		if c.node.IsIdentifier() {
			return c
		}
	}
	return nil
}

// Element returns the element plan of a collection, or nil.
func (p *Plan) Element() *Plan {
	if p.node.Kind() != mapping.KindCollection || len(p.children) == 0 {
		return nil
	}
	return p.children[0]
}

// Bind resolves every converter of the tree rooted at node.
func Bind(node *mapping.Node, reg *Registry) (*Plan, error) {
	conv, err := reg.Resolve(node)
	if err != nil {
		return nil, err
	}
	children := node.Children()
	p := &Plan{node: node, conv: conv, children: make([]*Plan, 0, len(children))}
	for _, c := range children {
		cp, err := Bind(c, reg)
		if err != nil {
			return nil, err
		}
		p.children = append(p.children, cp)
	}
	return p, nil
}
