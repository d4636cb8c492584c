package resource

import "io"

// PropertyOptions are the index flags applied to a created property.
type PropertyOptions struct {
	Store      bool
	Index      bool
	Tokenized  bool
	TermVector TermVector
	Boost      float32
}

// Session creates engine-native properties for converters.
type Session interface {
	CreateProperty(name, value string, opts PropertyOptions) *Property
	CreateStreamProperty(name string, r io.Reader, tv TermVector) *Property
}

// DefaultSession builds plain Property values.
type DefaultSession struct{}

// CreateProperty implements Session.
func (DefaultSession) CreateProperty(name, value string, opts PropertyOptions) *Property {
	boost := opts.Boost
	if boost == 0 {
		boost = 1
	}
	return &Property{
		Name:       name,
		Value:      value,
		Store:      opts.Store,
		Index:      opts.Index,
		Tokenized:  opts.Tokenized,
		TermVector: opts.TermVector,
		Boost:      boost,
	}
}

// CreateStreamProperty implements Session. Streams are indexed and
// tokenized but never stored.
func (DefaultSession) CreateStreamProperty(name string, r io.Reader, tv TermVector) *Property {
	return &Property{
		Name:       name,
		Reader:     r,
		Index:      true,
		Tokenized:  true,
		TermVector: tv,
		Boost:      1,
	}
}

var _ Session = DefaultSession{}
