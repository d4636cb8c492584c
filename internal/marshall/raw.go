package marshall

import (
	"fmt"
	"io"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/resource"
)

// rawConverter writes opaque content. Raw values are never read back.
type rawConverter struct{}

func (rawConverter) Marshall(res *resource.Resource, value any, plan *Plan, ctx *Context) error {
	node := plan.node
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		res.Add(ctx.property(node, string(v)))
	case string:
		res.Add(ctx.property(node, v))
	case io.Reader:
		p := ctx.Session.CreateStreamProperty(node.Path(), v, node.TermVector())
		p.Boost = node.Boost()
		res.Add(p)
	default:
		return scerrors.MarshallingError(node.Path(), fmt.Sprintf("raw value must be bytes, text or a reader, got %T", value), nil)
	}
	return nil
}

func (rawConverter) Unmarshall(*resource.Resource, *Plan, *Context) (any, error) {
	return nil, nil
}
