package marshall

import (
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/resource"
)

// Context carries the per-call options of a marshall or unmarshall.
// A Context may be shared across goroutines; each Engine call works on a
// private fork holding its read cursors.
type Context struct {
	// HandleNulls runs composite children for a null value so that
	// null placeholders are still written.
	HandleNulls bool

	// Session creates the properties written into a Resource.
	Session resource.Session

	cursors map[string]int
}

// NewContext returns a context using the default session.
func NewContext() *Context {
	return &Context{Session: resource.DefaultSession{}}
}

func (c *Context) fork() *Context {
	f := &Context{Session: resource.DefaultSession{}, cursors: make(map[string]int)}
	if c != nil {
		f.HandleNulls = c.HandleNulls
		if c.Session != nil {
			f.Session = c.Session
		}
	}
	return f
}

// next returns the next unread value stored under path.
// Repeated paths (collection elements) are read in insertion order.
func (c *Context) next(res *resource.Resource, path string) (string, bool) {
	values := res.Values(path)
	i := c.cursors[path]
	if i >= len(values) {
		return "", false
	}
	c.cursors[path] = i + 1
	return values[i], true
}

func (c *Context) property(node *mapping.Node, value string) *resource.Property {
	return c.Session.CreateProperty(node.Path(), value, resource.PropertyOptions{
		Store:      node.Store(),
		Index:      node.Indexed(),
		Tokenized:  node.Tokenized(),
		TermVector: node.TermVector(),
		Boost:      node.Boost(),
	})
}

// marker creates an internal bookkeeping property.
func (c *Context) marker(path, value string, indexed bool) *resource.Property {
	return c.Session.CreateProperty(path, value, resource.PropertyOptions{
		Store: true,
		Index: indexed,
	})
}
