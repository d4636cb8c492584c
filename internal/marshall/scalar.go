package marshall

import (
	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/resource"
)

// scalarConverter writes one property through a value converter.
type scalarConverter struct {
	value    ValueConverter
	defaults map[string]string
}

// layered resolves node parameters before the converter defaults.
type layered struct {
	node     *mapping.Node
	defaults map[string]string
}

func (l layered) Param(name string) (string, bool) {
	if v, ok := l.node.Param(name); ok {
		return v, true
	}
	v, ok := l.defaults[name]
	return v, ok
}

func (c *scalarConverter) params(node *mapping.Node) Params {
	if len(c.defaults) == 0 {
		return node
	}
	return layered{node: node, defaults: c.defaults}
}

func (c *scalarConverter) Marshall(res *resource.Resource, value any, plan *Plan, ctx *Context) error {
	node := plan.node
	if value == nil {
		if placeholder, ok := node.NullValue(); ok {
			res.Add(ctx.property(node, placeholder))
		}
		return nil
	}

	s, err := c.value.ToString(value, c.params(node))
	if err != nil {
		return scerrors.MarshallingError(node.Path(), err.Error(), err)
	}
	res.Add(ctx.property(node, s))
	return nil
}

func (c *scalarConverter) Unmarshall(res *resource.Resource, plan *Plan, ctx *Context) (any, error) {
	node := plan.node
	s, ok := ctx.next(res, node.Path())
	if !ok {
		return nil, nil
	}
	if placeholder, ok := node.NullValue(); ok && s == placeholder {
		return nil, nil
	}

	v, err := c.value.FromString(s, c.params(node))
	if err != nil {
		return nil, scerrors.UnmarshallingError(node.Path(), err.Error(), err)
	}
	return v, nil
}
