package marshall

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/resource"
)

func TestBind_UnknownConverterFailsBeforeMarshalling(t *testing.T) {
	// Given: a mapping that references an unregistered converter
	root, err := mapping.Build(mapping.Class("product").Add(
		mapping.ID("sku"),
		mapping.Property("price").Converter("money"),
	))
	require.NoError(t, err)

	// When: binding it
	plan, err := NewEngine(nil).Bind(root)

	// Then: binding fails with the converter path
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.Equal(t, scerrors.ErrCodeConverterUnknown, scerrors.GetCode(err))
	assert.Equal(t, "price", scerrors.GetPath(err))
	assert.True(t, scerrors.IsFatal(err))
}

type upperValue struct{}

func (upperValue) ToString(v any, _ Params) (string, error) {
	return strings.ToUpper(fmt.Sprint(v)), nil
}

func (upperValue) FromString(s string, _ Params) (any, error) {
	return strings.ToLower(s), nil
}

func TestRegistry_CustomValueConverter(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterValue("upper", upperValue{})
	e := NewEngine(reg)

	root, err := mapping.Build(mapping.Class("a").Add(mapping.ID("id"), mapping.Property("code").Converter("upper")))
	require.NoError(t, err)
	plan, err := e.Bind(root)
	require.NoError(t, err)

	res, err := e.Marshall(Document{"id": "1", "code": "abc"}, plan, nil)
	require.NoError(t, err)
	v, _ := res.Get("code")
	assert.Equal(t, "ABC", v)

	got, err := e.Unmarshall(res, plan.Child("code"), nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestRegistry_ConfigureFromSettingsGroup(t *testing.T) {
	// Given: a converter group deriving a day-precision time converter
	reg := NewRegistry()
	require.NoError(t, reg.ConfigureGroups(map[string]map[string]string{
		"day": {"type": "time", "format": "2006-01-02"},
	}))
	assert.Contains(t, reg.Names(), "day")

	root, err := mapping.Build(mapping.Class("a").Add(
		mapping.ID("id"),
		mapping.Property("published").Converter("day"),
		mapping.Property("updated").Converter("day").Format("2006"),
	))
	require.NoError(t, err)
	plan, err := NewEngine(reg).Bind(root)
	require.NoError(t, err)

	// When: marshalling a timestamp through it
	res, err := NewEngine(reg).Marshall(Document{
		"id":        "1",
		"published": "2024-05-01",
		"updated":   "2025",
	}, plan, nil)

	// Then: defaults apply and node parameters override them
	require.NoError(t, err)
	v, _ := res.Get("published")
	assert.Equal(t, "2024-05-01", v)
	v, _ = res.Get("updated")
	assert.Equal(t, "2025", v)
}

func TestRegistry_ConfigureErrors(t *testing.T) {
	reg := NewRegistry()

	err := reg.Configure("x", map[string]string{"format": "y"})
	assert.Equal(t, scerrors.ErrCodeMappingInvalid, scerrors.GetCode(err))

	err = reg.Configure("x", map[string]string{"type": "decimal"})
	assert.Equal(t, scerrors.ErrCodeConverterUnknown, scerrors.GetCode(err))
}

type countingConverter struct {
	calls int
}

func (c *countingConverter) Marshall(res *resource.Resource, value any, plan *Plan, ctx *Context) error {
	c.calls++
	return compositeConverter{}.Marshall(res, value, plan, ctx)
}

func (c *countingConverter) Unmarshall(res *resource.Resource, plan *Plan, ctx *Context) (any, error) {
	return compositeConverter{}.Unmarshall(res, plan, ctx)
}

func TestRegistry_KindOverride(t *testing.T) {
	reg := NewRegistry()
	counter := &countingConverter{}
	reg.RegisterKind(mapping.KindComposite, counter)

	root, err := mapping.Build(mapping.Class("a").Add(mapping.ID("id")))
	require.NoError(t, err)
	plan, err := NewEngine(reg).Bind(root)
	require.NoError(t, err)

	_, err = NewEngine(reg).Marshall(Document{"id": "1"}, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)
}
