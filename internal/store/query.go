package store

import (
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/scout/internal/resource"
)

// SearchRequest builds a request for text, optionally restricted to one
// field and one alias. Empty text matches every document.
func SearchRequest(text, field, alias string, size int) *bleve.SearchRequest {
	var q query.Query
	if text == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		mq := bleve.NewMatchQuery(text)
		if field == "" {
			field = AllField
		}
		mq.SetField(field)
		q = mq
	}
	if alias != "" {
		tq := bleve.NewTermQuery(alias)
		tq.SetField(AliasField)
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequest(q)
	if size > 0 {
		req.Size = size
	}
	req.Fields = []string{"*"}
	return req
}

// ResourceFromHit rebuilds the stored properties of a search hit.
// Fields are added in name order; multi-valued fields keep their order.
func ResourceFromHit(hit *search.DocumentMatch) *resource.Resource {
	names := make([]string, 0, len(hit.Fields))
	for name := range hit.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	res := resource.New("")
	s := resource.DefaultSession{}
	for _, name := range names {
		raw := hit.Fields[name]
		if name == AliasField {
			res.Alias = fmt.Sprint(raw)
			continue
		}
		switch v := raw.(type) {
		case []interface{}:
			for _, item := range v {
				res.Add(s.CreateProperty(name, fmt.Sprint(item), resource.PropertyOptions{Store: true}))
			}
		default:
			res.Add(s.CreateProperty(name, fmt.Sprint(v), resource.PropertyOptions{Store: true}))
		}
	}
	return res
}
