package mapping

import "strings"

// NamingStrategy builds the internal property paths a mapping writes
// besides its declared paths (collection size markers and the like).
type NamingStrategy interface {
	// IsInternal reports whether name is reserved for internal paths.
	IsInternal(name string) bool
	// RootPath is the prefix of every internal path.
	RootPath() string
	// BuildPath joins a root and a name.
	BuildPath(root, name string) string
}

// DefaultNaming roots internal paths at "$" and joins segments with "/".
type DefaultNaming struct{}

func (DefaultNaming) IsInternal(name string) bool {
	return strings.HasPrefix(name, "$")
}

func (DefaultNaming) RootPath() string {
	return "$"
}

func (DefaultNaming) BuildPath(root, name string) string {
	return root + "/" + name
}

var _ NamingStrategy = DefaultNaming{}
