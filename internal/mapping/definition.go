package mapping

import (
	"fmt"
	"strings"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/resource"
)

// Settings keys consulted when a definition leaves a choice open.
const (
	SettingDefaultType    = "mapping.default.type"
	SettingElementType    = "mapping.collection.element_type"
	SettingCollectionSize = "mapping.collection.size"

	// SettingTypeConverter is a format string taking the value type.
	SettingTypeConverter = "mapping.type.%s.converter"
)

// SettingsResolver supplies configuration values by key.
type SettingsResolver interface {
	Resolve(key, def string) string
}

type noSettings struct{}

func (noSettings) Resolve(_, def string) string { return def }

// Definition is the declarative form of a root class mapping,
// as read from the mappings section of the configuration file.
type Definition struct {
	Alias      string               `yaml:"alias" json:"alias"`
	Properties []PropertyDefinition `yaml:"properties" json:"properties"`
}

// PropertyDefinition declares one child mapping.
// Kind is one of property (default), id, component, collection, raw.
type PropertyDefinition struct {
	Name       string               `yaml:"name" json:"name"`
	Kind       string               `yaml:"kind,omitempty" json:"kind,omitempty"`
	Path       string               `yaml:"path,omitempty" json:"path,omitempty"`
	Type       string               `yaml:"type,omitempty" json:"type,omitempty"`
	Converter  string               `yaml:"converter,omitempty" json:"converter,omitempty"`
	Params     map[string]string    `yaml:"params,omitempty" json:"params,omitempty"`
	Store      *bool                `yaml:"store,omitempty" json:"store,omitempty"`
	Index      string               `yaml:"index,omitempty" json:"index,omitempty"`
	TermVector string               `yaml:"term_vector,omitempty" json:"term_vector,omitempty"`
	Boost      float32              `yaml:"boost,omitempty" json:"boost,omitempty"`
	NullValue  *string              `yaml:"null_value,omitempty" json:"null_value,omitempty"`
	Size       string               `yaml:"size,omitempty" json:"size,omitempty"`
	Element    *PropertyDefinition  `yaml:"element,omitempty" json:"element,omitempty"`
	Properties []PropertyDefinition `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ParseIndexMode parses "tokenized", "un_tokenized" or "no".
func ParseIndexMode(s string) (IndexMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tokenized":
		return IndexTokenized, nil
	case "un_tokenized", "untokenized":
		return IndexUnTokenized, nil
	case "no":
		return IndexNo, nil
	default:
		return 0, fmt.Errorf("unknown index mode %q", s)
	}
}

// ParseValueType parses a value type name.
func ParseValueType(s string) (ValueType, error) {
	t := ValueType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeString, TypeInt, TypeInt64, TypeFloat64, TypeBool, TypeTime, TypeBytes:
		return t, nil
	default:
		return "", fmt.Errorf("unknown value type %q", s)
	}
}

// FromDefinition builds a root mapping from its declarative form.
// settings may be nil.
func FromDefinition(def Definition, settings SettingsResolver) (*Node, error) {
	if settings == nil {
		settings = noSettings{}
	}
	if def.Alias == "" {
		return nil, scerrors.ConfigurationError("", "mapping definition has no alias", nil)
	}

	root := Class(def.Alias)
	for i := range def.Properties {
		b, err := fromProperty(&def.Properties[i], settings)
		if err != nil {
			return nil, err
		}
		root = root.Add(b)
	}
	return Build(root)
}

func fromProperty(p *PropertyDefinition, settings SettingsResolver) (Builder, error) {
	switch strings.ToLower(p.Kind) {
	case "", "property":
		return scalarFrom(Property(p.Name), p, settings)
	case "id":
		return scalarFrom(ID(p.Name), p, settings)
	case "component":
		c := Component(p.Name)
		if p.Path != "" {
			c = c.Path(p.Path)
		}
		if p.Converter != "" {
			c = c.Converter(p.Converter)
		}
		for i := range p.Properties {
			child, err := fromProperty(&p.Properties[i], settings)
			if err != nil {
				return nil, err
			}
			c = c.Add(child)
		}
		return c, nil
	case "collection":
		return collectionFrom(p, settings)
	case "raw":
		r := Raw(p.Name)
		if p.Path != "" {
			r = r.Path(p.Path)
		}
		if p.Store != nil {
			r = r.Store(*p.Store)
		}
		if p.Boost != 0 {
			r = r.Boost(p.Boost)
		}
		if p.Converter != "" {
			r = r.Converter(p.Converter)
		}
		tv, err := resource.ParseTermVector(p.TermVector)
		if err != nil {
			return nil, scerrors.ConfigurationError(pathOf(p), err.Error(), err)
		}
		return r.TermVector(tv), nil
	default:
		return nil, scerrors.ConfigurationError(pathOf(p), fmt.Sprintf("unknown mapping kind %q", p.Kind), nil)
	}
}

func collectionFrom(p *PropertyDefinition, settings SettingsResolver) (Builder, error) {
	elemDef := p.Element
	if elemDef == nil {
		elemDef = &PropertyDefinition{
			Type: settings.Resolve(SettingElementType, settings.Resolve(SettingDefaultType, string(TypeString))),
		}
	}
	elem, err := fromProperty(elemDef, settings)
	if err != nil {
		return nil, err
	}

	c := Collection(p.Name, elem)
	if p.Path != "" {
		c = c.Path(p.Path)
	}
	if p.Converter != "" {
		c = c.Converter(p.Converter)
	}

	size := p.Size
	if size == "" {
		size = settings.Resolve(SettingCollectionSize, "positional")
	}
	switch strings.ToLower(size) {
	case "positional":
		c = c.Policy(SizePositional)
	case "compact":
		c = c.Policy(SizeCompact)
	default:
		return nil, scerrors.ConfigurationError(pathOf(p), fmt.Sprintf("unknown size policy %q", size), nil)
	}
	return c, nil
}

func scalarFrom(b PropertyBuilder, p *PropertyDefinition, settings SettingsResolver) (Builder, error) {
	path := pathOf(p)
	if p.Path != "" {
		b = b.Path(p.Path)
	}

	typ := p.Type
	if typ == "" {
		typ = settings.Resolve(SettingDefaultType, string(TypeString))
	}
	vt, err := ParseValueType(typ)
	if err != nil {
		return nil, scerrors.ConfigurationError(path, err.Error(), err)
	}
	b = b.Type(vt)

	conv := p.Converter
	if conv == "" {
		conv = settings.Resolve(fmt.Sprintf(SettingTypeConverter, vt), "")
	}
	if conv != "" {
		b = b.Converter(conv)
	}
	for k, v := range p.Params {
		b = b.Param(k, v)
	}

	if p.Store != nil {
		b = b.Store(*p.Store)
	}
	if p.Index != "" {
		mode, err := ParseIndexMode(p.Index)
		if err != nil {
			return nil, scerrors.ConfigurationError(path, err.Error(), err)
		}
		b = b.Index(mode)
	}
	tv, err := resource.ParseTermVector(p.TermVector)
	if err != nil {
		return nil, scerrors.ConfigurationError(path, err.Error(), err)
	}
	b = b.TermVector(tv)
	if p.Boost != 0 {
		b = b.Boost(p.Boost)
	}
	if p.NullValue != nil {
		b = b.NullValue(*p.NullValue)
	}
	return b, nil
}

func pathOf(p *PropertyDefinition) string {
	if p.Path != "" {
		return p.Path
	}
	return p.Name
}
