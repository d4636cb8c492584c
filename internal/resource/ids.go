package resource

import (
	"fmt"
	"net/url"
	"strings"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
)

// IDs returns the identifier properties of res found at paths.
// Every identifier must be present, stored, indexed, and not tokenized.
func IDs(res *Resource, paths []string) ([]*Property, error) {
	if len(paths) == 0 {
		return nil, scerrors.New(scerrors.ErrCodeIdentifierMissing,
			fmt.Sprintf("no identifier mapping for alias [%s]", res.Alias), nil)
	}

	ids := make([]*Property, len(paths))
	for i, path := range paths {
		p := res.Property(path)
		if p == nil {
			return nil, scerrors.New(scerrors.ErrCodeIdentifierMissing,
				fmt.Sprintf("id for alias [%s] not found", res.Alias), nil).WithPath(path)
		}
		if !p.IsIdentifier() {
			return nil, scerrors.New(scerrors.ErrCodeIdentifierMissing,
				fmt.Sprintf("id [%s] for alias [%s] must be stored and un_tokenized", p.Name, res.Alias), nil).WithPath(path)
		}
		ids[i] = p
	}
	return ids, nil
}

// IDProperties builds identifier properties from raw values, one per path.
func IDProperties(s Session, paths, values []string) ([]*Property, error) {
	if len(values) != len(paths) {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput,
			fmt.Sprintf("id values [%s] don't match id mappings [%s]",
				strings.Join(values, ","), strings.Join(paths, ",")), nil)
	}

	props := make([]*Property, len(values))
	for i, v := range values {
		props[i] = s.CreateProperty(paths[i], v, PropertyOptions{Store: true, Index: true})
	}
	return props, nil
}

// DocumentID derives the index document id from an alias and its identifiers.
func DocumentID(alias string, ids []*Property) string {
	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, url.PathEscape(alias))
	for _, p := range ids {
		parts = append(parts, url.PathEscape(p.Value))
	}
	return strings.Join(parts, "/")
}
