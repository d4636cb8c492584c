package marshall

import (
	"fmt"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/resource"
)

type compositeConverter struct{}

func (compositeConverter) Marshall(res *resource.Resource, value any, plan *Plan, ctx *Context) error {
	if value == nil {
		if !ctx.HandleNulls {
			return nil
		}
		for _, child := range plan.children {
			if err := child.conv.Marshall(res, nil, child, ctx); err != nil {
				return err
			}
		}
		return nil
	}

	obj, ok := asObject(value)
	if !ok {
		return scerrors.MarshallingError(plan.node.Path(), fmt.Sprintf("expected an object, got %T", value), nil)
	}
	if id := plan.Identifier(); id != nil {
		if v, ok := obj.Field(id.node.Name()); !ok || v == nil {
			return scerrors.New(scerrors.ErrCodeIdentifierMissing,
				fmt.Sprintf("identifier [%s] is null", id.node.Name()), nil).WithPath(id.node.Path())
		}
	}

	for _, child := range plan.children {
		v, _ := obj.Field(child.node.Name())
		if err := child.conv.Marshall(res, v, child, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (compositeConverter) Unmarshall(res *resource.Resource, plan *Plan, ctx *Context) (any, error) {
	id := plan.Identifier()
	if id == nil {
		return nil, scerrors.UnmarshallingError(plan.node.Path(), "composite mapping has no identifier", nil)
	}
	return id.conv.Unmarshall(res, id, ctx)
}
