package marshall

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/resource"
)

type collectionConverter struct{}

func toAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		return toAny(s), true
	case []int:
		return toAny(s), true
	case []int64:
		return toAny(s), true
	case []float64:
		return toAny(s), true
	case []bool:
		return toAny(s), true
	case []time.Time:
		return toAny(s), true
	case []Document:
		return toAny(s), true
	case []map[string]any:
		return toAny(s), true
	case []Fielder:
		return toAny(s), true
	default:
		return nil, false
	}
}

func (collectionConverter) Marshall(res *resource.Resource, value any, plan *Plan, ctx *Context) error {
	if value == nil {
		return nil
	}
	node := plan.node
	items, ok := asSlice(value)
	if !ok {
		return scerrors.MarshallingError(node.Path(), fmt.Sprintf("expected a collection, got %T", value), nil)
	}

	elem := plan.Element()
	slots := make([]string, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		if err := elem.conv.Marshall(res, item, elem, ctx); err != nil {
			var se *scerrors.ScoutError
			if errors.As(err, &se) {
				se.WithDetail("index", strconv.Itoa(i))
			}
			return err
		}
		slots = append(slots, strconv.Itoa(i))
	}

	// An empty and an all-null collection both leave no trace.
	if len(slots) == 0 {
		return nil
	}

	res.Add(ctx.marker(node.SizePath(), strconv.Itoa(len(slots)), true))
	if node.SizePolicy() == mapping.SizePositional {
		res.Add(ctx.marker(node.LengthPath(), strconv.Itoa(len(items)), true))
		res.Add(ctx.marker(node.SlotsPath(), strings.Join(slots, ","), false))
	}
	return nil
}

func (collectionConverter) Unmarshall(res *resource.Resource, plan *Plan, ctx *Context) (any, error) {
	node := plan.node
	raw, ok := ctx.next(res, node.SizePath())
	if !ok {
		return nil, nil
	}
	actual, err := strconv.Atoi(raw)
	if err != nil || actual < 0 {
		return nil, sizeError(node.Path(), fmt.Sprintf("invalid collection size %q", raw), err)
	}

	slots, length, err := readSlots(res, node, ctx, actual)
	if err != nil {
		return nil, err
	}

	elem := plan.Element()
	out := make([]any, length)
	for _, slot := range slots {
		v, err := elem.conv.Unmarshall(res, elem, ctx)
		if err != nil {
			return nil, err
		}
		if v == nil && elem.node.Kind() != mapping.KindRaw {
			return nil, sizeError(node.Path(),
				fmt.Sprintf("collection records %d elements but fewer values are stored", actual), nil)
		}
		out[slot] = v
	}
	return out, nil
}

// readSlots returns the position of every stored element and the container length.
func readSlots(res *resource.Resource, node *mapping.Node, ctx *Context, actual int) ([]int, int, error) {
	if node.SizePolicy() == mapping.SizeCompact {
		slots := make([]int, actual)
		for i := range slots {
			slots[i] = i
		}
		return slots, actual, nil
	}

	rawLen, ok := ctx.next(res, node.LengthPath())
	if !ok {
		return nil, 0, sizeError(node.Path(), "collection length is missing", nil)
	}
	length, err := strconv.Atoi(rawLen)
	if err != nil || length < actual {
		return nil, 0, sizeError(node.Path(), fmt.Sprintf("invalid collection length %q", rawLen), err)
	}

	rawSlots, ok := ctx.next(res, node.SlotsPath())
	if !ok {
		return nil, 0, sizeError(node.Path(), "collection positions are missing", nil)
	}
	parts := strings.Split(rawSlots, ",")
	if len(parts) != actual {
		return nil, 0, sizeError(node.Path(),
			fmt.Sprintf("collection records %d elements but %d positions", actual, len(parts)), nil)
	}
	slots := make([]int, len(parts))
	for i, p := range parts {
		slot, err := strconv.Atoi(p)
		if err != nil || slot < 0 || slot >= length {
			return nil, 0, sizeError(node.Path(), fmt.Sprintf("invalid collection position %q", p), err)
		}
		slots[i] = slot
	}
	return slots, length, nil
}

func sizeError(path, msg string, cause error) *scerrors.ScoutError {
	return scerrors.New(scerrors.ErrCodeCollectionSize, msg, cause).WithPath(path)
}
