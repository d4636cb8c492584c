package resource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
)

func TestResource_KeepsInsertionOrder(t *testing.T) {
	// Given: a resource with repeated property names
	res := New("article")
	s := DefaultSession{}
	res.Add(s.CreateProperty("tags", "a", PropertyOptions{Store: true, Index: true}))
	res.Add(s.CreateProperty("title", "Go", PropertyOptions{Store: true, Index: true, Tokenized: true}))
	res.Add(s.CreateProperty("tags", "b", PropertyOptions{Store: true, Index: true}))
	res.Add(nil)

	// Then: values come back in order and nil is ignored
	assert.Equal(t, 3, res.Len())
	assert.Equal(t, []string{"a", "b"}, res.Values("tags"))
	v, ok := res.Get("title")
	require.True(t, ok)
	assert.Equal(t, "Go", v)

	_, ok = res.Get("missing")
	assert.False(t, ok)
}

func TestResource_Remove(t *testing.T) {
	res := New("article")
	s := DefaultSession{}
	res.Add(s.CreateProperty("tags", "a", PropertyOptions{}))
	res.Add(s.CreateProperty("id", "1", PropertyOptions{}))
	res.Add(s.CreateProperty("tags", "b", PropertyOptions{}))

	assert.Equal(t, 2, res.Remove("tags"))
	assert.Equal(t, 1, res.Len())
	assert.Nil(t, res.Property("tags"))
}

func TestResource_Properties_ReturnsCopy(t *testing.T) {
	res := New("article")
	res.Add(DefaultSession{}.CreateProperty("id", "1", PropertyOptions{}))

	props := res.Properties()
	props[0] = nil

	assert.NotNil(t, res.Property("id"))
}

func TestDefaultSession_StreamPropertyIsNotStored(t *testing.T) {
	p := DefaultSession{}.CreateStreamProperty("body", strings.NewReader("hello"), TermVectorYes)

	assert.True(t, p.IsStream())
	assert.False(t, p.Store)
	assert.True(t, p.Tokenized)
	assert.False(t, p.IsIdentifier())
	assert.Equal(t, float32(1), p.Boost)

	res := New("doc")
	res.Add(p)
	_, ok := res.Get("body")
	assert.False(t, ok, "streamed values are never readable back")
}

func TestParseTermVector(t *testing.T) {
	tests := []struct {
		in      string
		want    TermVector
		wantErr bool
	}{
		{"", TermVectorNo, false},
		{"yes", TermVectorYes, false},
		{"WITH_POSITIONS_OFFSETS", TermVectorWithPositionsOffsets, false},
		{"sideways", TermVectorNo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTermVector(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(tt.want.String()), tt.want.String())
		})
	}
}

func TestIDs_ValidatesIdentifierFlags(t *testing.T) {
	s := DefaultSession{}

	t.Run("valid", func(t *testing.T) {
		res := New("article")
		res.Add(s.CreateProperty("id", "1", PropertyOptions{Store: true, Index: true}))

		ids, err := IDs(res, []string{"id"})
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, "1", ids[0].Value)
	})

	t.Run("missing", func(t *testing.T) {
		res := New("article")
		_, err := IDs(res, []string{"id"})
		require.Error(t, err)
		assert.Equal(t, scerrors.ErrCodeIdentifierMissing, scerrors.GetCode(err))
		assert.Equal(t, "id", scerrors.GetPath(err))
	})

	t.Run("tokenized", func(t *testing.T) {
		res := New("article")
		res.Add(s.CreateProperty("id", "1", PropertyOptions{Store: true, Index: true, Tokenized: true}))
		_, err := IDs(res, []string{"id"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be stored and un_tokenized")
	})

	t.Run("no mapping", func(t *testing.T) {
		_, err := IDs(New("article"), nil)
		assert.Error(t, err)
	})
}

func TestIDProperties_LengthMismatch(t *testing.T) {
	_, err := IDProperties(DefaultSession{}, []string{"id"}, []string{"1", "2"})
	require.Error(t, err)
	assert.Equal(t, scerrors.ErrCodeInvalidInput, scerrors.GetCode(err))

	props, err := IDProperties(DefaultSession{}, []string{"id"}, []string{"7"})
	require.NoError(t, err)
	assert.True(t, props[0].IsIdentifier())
}

func TestDocumentID_EscapesSegments(t *testing.T) {
	ids := []*Property{{Name: "id", Value: "a/b"}, {Name: "rev", Value: "2"}}
	assert.Equal(t, "article/a%2Fb/2", DocumentID("article", ids))
}
