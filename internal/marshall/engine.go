package marshall

import (
	"fmt"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/resource"
)

// Document is a generic object value keyed by field name.
type Document map[string]any

// Field implements Fielder.
func (d Document) Field(name string) (any, bool) {
	v, ok := d[name]
	return v, ok
}

// Fielder is an object whose fields can be read by name.
type Fielder interface {
	Field(name string) (any, bool)
}

func asObject(v any) (Fielder, bool) {
	switch o := v.(type) {
	case Fielder:
		return o, true
	case map[string]any:
		return Document(o), true
	default:
		return nil, false
	}
}

// Engine marshalls values through bound plans.
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine resolving converters from reg.
// A nil registry uses the built-in converters only.
func NewEngine(reg *Registry) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Engine{registry: reg}
}

// Registry returns the engine's converter registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Bind resolves node into a plan.
func (e *Engine) Bind(node *mapping.Node) (*Plan, error) {
	if node == nil {
		return nil, scerrors.ConfigurationError("", "nil mapping", nil)
	}
	return Bind(node, e.registry)
}

// Marshall converts root into a new Resource.
//
// A root composite must produce its identifier properties; otherwise an
// error is returned. No Resource is returned on failure.
func (e *Engine) Marshall(root any, plan *Plan, ctx *Context) (*resource.Resource, error) {
	if plan == nil {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "nil plan", nil)
	}
	c := ctx.fork()
	res := resource.New(plan.node.Alias())
	if err := plan.conv.Marshall(res, root, plan, c); err != nil {
		return nil, err
	}
	if root != nil && plan.node.Kind() == mapping.KindComposite && plan.node.Alias() != "" {
		if _, err := resource.IDs(res, plan.node.IDPaths()); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Unmarshall rebuilds the value of plan's node from res.
// For composites the value is the identifier only.
func (e *Engine) Unmarshall(res *resource.Resource, plan *Plan, ctx *Context) (any, error) {
	if plan == nil {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "nil plan", nil)
	}
	if res == nil {
		return nil, nil
	}
	if alias := plan.node.Alias(); alias != "" && res.Alias != "" && res.Alias != alias {
		return nil, scerrors.UnmarshallingError(plan.node.Path(),
			fmt.Sprintf("resource alias [%s] does not match mapping [%s]", res.Alias, alias), nil)
	}
	v, err := plan.conv.Unmarshall(res, plan, ctx.fork())
	if err != nil {
		return nil, err
	}
	return v, nil
}
