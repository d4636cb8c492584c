// Package resource defines the flat, path-addressed document produced by
// marshalling and handed to the index for commit.
package resource

import (
	"fmt"
	"io"
	"strings"
)

// TermVector controls whether term vectors are kept for a property.
type TermVector int

const (
	TermVectorNo TermVector = iota
	TermVectorYes
	TermVectorWithPositions
	TermVectorWithOffsets
	TermVectorWithPositionsOffsets
)

var termVectorNames = map[TermVector]string{
	TermVectorNo:                   "no",
	TermVectorYes:                  "yes",
	TermVectorWithPositions:        "with_positions",
	TermVectorWithOffsets:          "with_offsets",
	TermVectorWithPositionsOffsets: "with_positions_offsets",
}

// String returns the configuration name of the term vector mode.
func (tv TermVector) String() string {
	if s, ok := termVectorNames[tv]; ok {
		return s
	}
	return "unknown"
}

// ParseTermVector parses a configuration name. Empty means TermVectorNo.
func ParseTermVector(s string) (TermVector, error) {
	if s == "" {
		return TermVectorNo, nil
	}
	for tv, name := range termVectorNames {
		if strings.EqualFold(name, s) {
			return tv, nil
		}
	}
	return TermVectorNo, fmt.Errorf("unknown term vector %q", s)
}

// Property is one named field of a Resource.
//
// Streamed properties carry a Reader instead of a Value; the reader is
// consumed once by the index and never stored.
type Property struct {
	Name       string
	Value      string
	Reader     io.Reader
	Store      bool
	Index      bool
	Tokenized  bool
	TermVector TermVector
	Boost      float32
}

// IsStream reports whether the property value is streamed.
func (p *Property) IsStream() bool {
	return p.Reader != nil
}

// IsIdentifier reports whether p can serve as an identifier:
// stored, indexed, and queryable as an exact value.
func (p *Property) IsIdentifier() bool {
	return p.Store && p.Index && !p.Tokenized && !p.IsStream()
}

// Resource is an ordered set of properties for one entity instance.
// It is owned by a single goroutine while it is being built.
type Resource struct {
	Alias string
	props []*Property
}

// New creates an empty Resource for the given alias.
func New(alias string) *Resource {
	return &Resource{Alias: alias}
}

// Add appends a property. Properties keep insertion order.
func (r *Resource) Add(p *Property) {
	if p == nil {
		return
	}
	r.props = append(r.props, p)
}

// Properties returns the properties in insertion order.
func (r *Resource) Properties() []*Property {
	out := make([]*Property, len(r.props))
	copy(out, r.props)
	return out
}

// Len returns the number of properties.
func (r *Resource) Len() int {
	return len(r.props)
}

// Property returns the first property with the given name, or nil.
func (r *Resource) Property(name string) *Property {
	for _, p := range r.props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Get returns the first value stored under name.
func (r *Resource) Get(name string) (string, bool) {
	p := r.Property(name)
	if p == nil || p.IsStream() {
		return "", false
	}
	return p.Value, true
}

// Values returns every non-streamed value under name, in order.
func (r *Resource) Values(name string) []string {
	var out []string
	for _, p := range r.props {
		if p.Name == name && !p.IsStream() {
			out = append(out, p.Value)
		}
	}
	return out
}

// Remove drops every property with the given name and reports how many were removed.
func (r *Resource) Remove(name string) int {
	kept := r.props[:0]
	removed := 0
	for _, p := range r.props {
		if p.Name == name {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(r.props); i++ {
		r.props[i] = nil
	}
	r.props = kept
	return removed
}
