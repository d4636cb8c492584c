package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/resource"
)

func articleMapping() CompositeBuilder {
	return Class("article").Add(
		ID("id").Type(TypeInt),
		Property("title").Boost(2),
		Collection("tags", Element(TypeString).Index(IndexUnTokenized)),
	)
}

func TestBuild_ArticleMapping(t *testing.T) {
	// Given: a class mapping with an id, a title and a tag collection
	// When: building it
	root, err := Build(articleMapping())

	// Then: the tree mirrors the declaration
	require.NoError(t, err)
	assert.Equal(t, KindComposite, root.Kind())
	assert.Equal(t, "article", root.Alias())
	assert.Equal(t, []string{"id"}, root.IDPaths())

	children := root.Children()
	require.Len(t, children, 3)
	assert.Equal(t, "id", children[0].Path())
	assert.True(t, children[0].IsIdentifier())
	assert.True(t, children[0].Store())
	assert.False(t, children[0].Tokenized())
	assert.Equal(t, float32(2), children[1].Boost())

	tags := children[2]
	assert.Equal(t, KindCollection, tags.Kind())
	require.NotNil(t, tags.Element())
	assert.Equal(t, "tags", tags.Element().Path())
	assert.Equal(t, "$/tags/colSize", tags.SizePath())
	assert.Equal(t, "$/tags/colLength", tags.LengthPath())
	assert.Equal(t, "$/tags/colSlots", tags.SlotsPath())
}

func TestBuild_CompactCollectionHasOnlySizeMarker(t *testing.T) {
	root, err := Build(Class("a").Add(
		ID("id"),
		Collection("tags", Element(TypeString)).Compact(),
	))
	require.NoError(t, err)

	tags := root.Children()[1]
	assert.Equal(t, SizeCompact, tags.SizePolicy())
	assert.Equal(t, "$/tags/colSize", tags.SizePath())
	assert.Empty(t, tags.LengthPath())
	assert.Empty(t, tags.SlotsPath())
}

func TestBuilder_CopyOnConfigure(t *testing.T) {
	// Given: a base property builder used as a template
	base := Property("price").Type(TypeFloat64)

	// When: deriving two configurations from it
	padded := base.Format("%010.2f")
	plain := base.Param("unit", "eur")

	// Then: neither derivation leaks into the other or the base
	pn, err := Build(Class("p").Add(ID("id"), padded))
	require.NoError(t, err)
	qn, err := Build(Class("p").Add(ID("id"), plain))
	require.NoError(t, err)
	bn, err := Build(Class("p").Add(ID("id"), base))
	require.NoError(t, err)

	_, ok := pn.Children()[1].Param("unit")
	assert.False(t, ok)
	_, ok = qn.Children()[1].Param("format")
	assert.False(t, ok)
	assert.Empty(t, bn.Children()[1].Params())
}

func TestCompositeAdd_DoesNotAlias(t *testing.T) {
	base := Class("a").Add(ID("id"))
	withTitle := base.Add(Property("title"))
	withBody := base.Add(Property("body"))

	wt, err := Build(withTitle)
	require.NoError(t, err)
	wb, err := Build(withBody)
	require.NoError(t, err)

	assert.Equal(t, "title", wt.Children()[1].Path())
	assert.Equal(t, "body", wb.Children()[1].Path())
}

func TestBuild_RejectsInvalidMappings(t *testing.T) {
	tests := []struct {
		name    string
		builder Builder
		path    string
	}{
		{"no identifier", Class("a").Add(Property("title")), "a"},
		{"two identifiers", Class("a").Add(ID("id"), ID("other")), "a"},
		{"tokenized identifier", Class("a").Add(ID("id").Index(IndexTokenized)), "id"},
		{"unstored identifier", Class("a").Add(ID("id").Store(false)), "id"},
		{"duplicate path", Class("a").Add(ID("id"), Property("title"), Property("name").Path("title")), "title"},
		{"internal path", Class("a").Add(ID("id"), Property("$secret")), "$secret"},
		{"no children", Class("a"), "a"},
		{"nil element", Class("a").Add(ID("id"), Collection("tags", nil)), "tags"},
		{"nested collection", Class("a").Add(ID("id"), Collection("m", Collection("", Element(TypeInt)))), "m"},
		{"negative boost", Class("a").Add(ID("id"), Property("t").Boost(-1)), "t"},
		{"component without id", Class("a").Add(ID("id"), Component("author").Add(Property("name"))), "author"},
		{"nested id shadows root id", Class("order").Add(Collection("items", Component("").Add(ID("id"))), ID("id")), "id"},
		{"null element", Class("a").Add(ID("id"), Collection("tags", Element(TypeString).NullValue("none"))), "tags"},
		{"nested property shadows root id", Class("a").Add(ID("id"), Component("author").Add(ID("name"), Property("id"))), "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.builder)
			require.Error(t, err)
			assert.Equal(t, scerrors.ErrCodeMappingInvalid, scerrors.GetCode(err))
			assert.Equal(t, tt.path, scerrors.GetPath(err))
		})
	}
}

func TestBuild_NestedIdentifierOnOwnPath(t *testing.T) {
	// Given: an order whose items carry their own id under a distinct path
	b := Class("order").Add(
		Collection("items", Component("").Add(ID("id").Path("items.id"))),
		ID("id"),
	)

	// When: building
	root, err := Build(b)

	// Then: the mapping is accepted and the root id path stays unique
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, root.IDPaths())
}

func TestBuild_NilBuilder(t *testing.T) {
	_, err := Build(nil)
	assert.Equal(t, scerrors.ErrCodeMappingInvalid, scerrors.GetCode(err))
}

func TestNode_Walk_DeclaredOrder(t *testing.T) {
	root, err := Build(Class("a").Add(
		ID("id"),
		Component("author").Add(ID("name"), Property("email")),
		Raw("body"),
	))
	require.NoError(t, err)

	var paths []string
	root.Walk(func(n *Node) bool {
		paths = append(paths, n.Path())
		return true
	})
	assert.Equal(t, []string{"a", "id", "author", "name", "email", "body"}, paths)
}

func TestDefaultNaming(t *testing.T) {
	n := DefaultNaming{}
	assert.True(t, n.IsInternal("$/x"))
	assert.False(t, n.IsInternal("x"))
	assert.Equal(t, "$/tags", n.BuildPath(n.RootPath(), "tags"))
}

type mapSettings map[string]string

func (m mapSettings) Resolve(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

const articleYAML = `
alias: article
properties:
  - name: id
    kind: id
    type: int
  - name: published
    type: time
    index: un_tokenized
    params:
      format: "2006-01-02"
  - name: title
    boost: 2
    term_vector: with_positions
  - name: summary
    null_value: "<none>"
  - name: tags
    kind: collection
  - name: scores
    kind: collection
    size: compact
    element:
      type: float64
  - name: author
    kind: component
    properties:
      - name: name
        kind: id
      - name: email
        store: false
  - name: body
    kind: raw
`

func TestFromDefinition_YAML(t *testing.T) {
	// Given: a mapping definition as it appears in configuration
	var def Definition
	require.NoError(t, yaml.Unmarshal([]byte(articleYAML), &def))

	// When: building it with settings that pick the default element type
	root, err := FromDefinition(def, mapSettings{
		SettingElementType:            "string",
		"mapping.type.time.converter": "day",
		"mapping.collection.size":     "positional",
	})

	// Then: every knob is carried into the tree
	require.NoError(t, err)
	byPath := map[string]*Node{}
	for _, c := range root.Children() {
		byPath[c.Path()] = c
	}

	assert.Equal(t, TypeInt, byPath["id"].ValueType())
	assert.True(t, byPath["id"].IsIdentifier())

	published := byPath["published"]
	format, _ := published.Param("format")
	assert.Equal(t, "2006-01-02", format)
	assert.Equal(t, "day", published.ConverterRef())
	assert.Equal(t, IndexUnTokenized, published.Index())

	assert.Equal(t, resource.TermVectorWithPositions, byPath["title"].TermVector())
	assert.Equal(t, float32(2), byPath["title"].Boost())

	null, ok := byPath["summary"].NullValue()
	assert.True(t, ok)
	assert.Equal(t, "<none>", null)

	assert.Equal(t, TypeString, byPath["tags"].Element().ValueType())
	assert.Equal(t, SizePositional, byPath["tags"].SizePolicy())

	scores := byPath["scores"]
	assert.Equal(t, SizeCompact, scores.SizePolicy())
	assert.Equal(t, TypeFloat64, scores.Element().ValueType())

	author := byPath["author"]
	assert.Equal(t, KindComposite, author.Kind())
	assert.Equal(t, "name", author.Identifier().Path())
	assert.False(t, author.Children()[1].Store())

	assert.Equal(t, KindRaw, byPath["body"].Kind())
}

func TestFromDefinition_Errors(t *testing.T) {
	none := "none"
	tests := []struct {
		name string
		def  Definition
		path string
	}{
		{"no alias", Definition{}, ""},
		{"bad kind", Definition{Alias: "a", Properties: []PropertyDefinition{{Name: "id", Kind: "id"}, {Name: "x", Kind: "map"}}}, "x"},
		{"bad type", Definition{Alias: "a", Properties: []PropertyDefinition{{Name: "id", Kind: "id", Type: "decimal"}}}, "id"},
		{"bad index", Definition{Alias: "a", Properties: []PropertyDefinition{{Name: "id", Kind: "id"}, {Name: "x", Index: "maybe"}}}, "x"},
		{"bad size policy", Definition{Alias: "a", Properties: []PropertyDefinition{{Name: "id", Kind: "id"}, {Name: "x", Kind: "collection", Size: "sparse"}}}, "x"},
		{"null element", Definition{Alias: "a", Properties: []PropertyDefinition{{Name: "id", Kind: "id"}, {Name: "x", Kind: "collection", Element: &PropertyDefinition{NullValue: &none}}}}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDefinition(tt.def, nil)
			require.Error(t, err)
			assert.Equal(t, scerrors.ErrCodeMappingInvalid, scerrors.GetCode(err))
			assert.Equal(t, tt.path, scerrors.GetPath(err))
		})
	}
}

func TestParseIndexMode(t *testing.T) {
	for in, want := range map[string]IndexMode{"": IndexTokenized, "tokenized": IndexTokenized, "UN_TOKENIZED": IndexUnTokenized, "no": IndexNo} {
		got, err := ParseIndexMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" {
			assert.Equal(t, want.String(), got.String())
		}
	}
}
