// Package metadata describes the entity types a query can address: their
// properties, keys, associations and free-form dynamic components.
package metadata

import (
	"reflect"
	"sort"

	"github.com/nlstn/go-odataql/internal/literal"
)

// EntityMetadata holds metadata information about an entity type
type EntityMetadata struct {
	// EntityType is the Go type the metadata was analyzed from; nil for
	// entities declared in a schema file.
	EntityType    reflect.Type
	EntityName    string
	EntitySetName string
	Table         string
	Properties    []PropertyMetadata
	KeyProperty   *PropertyMetadata

	byName map[string]int
}

// PropertyMetadata holds metadata information about an entity property
type PropertyMetadata struct {
	// Name is the name used in queries.
	Name      string
	FieldName string
	Column    string
	EdmType   string
	Type      literal.Type
	IsKey     bool

	IsNavigationProp  bool
	NavigationTarget  string // Entity name of the target type
	NavigationIsArray bool   // True for collection navigation properties
	// ForeignKey names the property holding the reference. It lives on the
	// owner for to-one associations and on the target for collections.
	ForeignKey string
	// References names the referenced property, the key when empty.
	References string

	IsDynamic bool
	// Dynamic maps a dotted path below the component to its declared member.
	Dynamic map[string]DynamicProperty
}

// DynamicProperty is a member of a free-form component.
type DynamicProperty struct {
	Name    string
	EdmType string
	Type    literal.Type
}

// Property returns the property with exactly the given name.
func (m *EntityMetadata) Property(name string) *PropertyMetadata {
	if m.byName == nil {
		for i := range m.Properties {
			if m.Properties[i].Name == name {
				return &m.Properties[i]
			}
		}
		return nil
	}
	if i, ok := m.byName[name]; ok {
		return &m.Properties[i]
	}
	return nil
}

// PropertyNames returns the query names of all properties in sorted order.
func (m *EntityMetadata) PropertyNames() []string {
	names := make([]string, len(m.Properties))
	for i, p := range m.Properties {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// KeyName returns the name of the identifier property, or "" when the entity
// has none.
func (m *EntityMetadata) KeyName() string {
	if m.KeyProperty == nil {
		return ""
	}
	return m.KeyProperty.Name
}

// index builds the name lookup and binds KeyProperty. It must run before the
// metadata is shared.
func (m *EntityMetadata) index() {
	m.byName = make(map[string]int, len(m.Properties))
	for i, p := range m.Properties {
		m.byName[p.Name] = i
		if p.IsKey {
			m.KeyProperty = &m.Properties[i]
		}
	}
}

// DynamicMember looks up a member of a dynamic component by its dotted path.
func (p *PropertyMetadata) DynamicMember(path string) (DynamicProperty, bool) {
	d, ok := p.Dynamic[path]
	return d, ok
}

// ReferencedColumn returns the column the association references on entity,
// falling back to its key.
func (p *PropertyMetadata) ReferencedColumn(entity *EntityMetadata) string {
	if p.References != "" {
		if ref := entity.Property(p.References); ref != nil {
			return ref.Column
		}
	}
	if entity.KeyProperty != nil {
		return entity.KeyProperty.Column
	}
	return ""
}
