package metadata

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odataql/internal/edm"
)

// Schema is the YAML form of a set of entities:
//
//	entities:
//	  - name: Product
//	    key: ID
//	    properties:
//	      - {name: ID, type: Edm.Int64}
//	      - {name: Attributes, dynamic: {Color: Edm.String}}
//	    associations:
//	      - {name: Category, target: Category}
type Schema struct {
	Entities []EntitySchema `yaml:"entities"`
}

// EntitySchema declares one entity.
type EntitySchema struct {
	Name         string              `yaml:"name"`
	Set          string              `yaml:"set"`
	Table        string              `yaml:"table"`
	Key          string              `yaml:"key"`
	Properties   []PropertySchema    `yaml:"properties"`
	Associations []AssociationSchema `yaml:"associations"`
}

// PropertySchema declares a scalar property or, when Dynamic is set, a
// free-form component.
type PropertySchema struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Column  string            `yaml:"column"`
	Dynamic map[string]string `yaml:"dynamic"`
}

// AssociationSchema declares a navigation property.
type AssociationSchema struct {
	Name       string `yaml:"name"`
	Target     string `yaml:"target"`
	Collection bool   `yaml:"collection"`
	ForeignKey string `yaml:"foreignKey"`
	References string `yaml:"references"`
}

// LoadSchema decodes a YAML schema and builds metadata for its entities.
// Unknown fields are rejected.
func LoadSchema(r io.Reader, namer schema.Namer) ([]*EntityMetadata, error) {
	if namer == nil {
		namer = DefaultNamer
	}

	var s Schema
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	entities := make([]*EntityMetadata, 0, len(s.Entities))
	for _, es := range s.Entities {
		meta, err := es.build(namer)
		if err != nil {
			return nil, err
		}
		entities = append(entities, meta)
	}
	return entities, nil
}

// LoadSchemaFile reads a YAML schema from path.
func LoadSchemaFile(path string, namer schema.Namer) ([]*EntityMetadata, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return LoadSchema(f, namer)
}

func (es EntitySchema) build(namer schema.Namer) (*EntityMetadata, error) {
	if es.Name == "" {
		return nil, fmt.Errorf("schema entity without a name")
	}

	meta := &EntityMetadata{
		EntityName:    es.Name,
		EntitySetName: es.Set,
		Table:         es.Table,
	}
	if meta.EntitySetName == "" {
		meta.EntitySetName = pluralize(es.Name)
	}
	if meta.Table == "" {
		meta.Table = namer.TableName(es.Name)
	}

	for _, ps := range es.Properties {
		property := PropertyMetadata{
			Name:      ps.Name,
			FieldName: ps.Name,
			Column:    ps.Column,
			EdmType:   ps.Type,
		}
		if property.Column == "" {
			property.Column = namer.ColumnName(meta.Table, ps.Name)
		}

		if ps.Dynamic != nil {
			property.IsDynamic = true
			property.Dynamic = make(map[string]DynamicProperty, len(ps.Dynamic))
			for path, edmType := range ps.Dynamic {
				if err := addDynamic(property.Dynamic, path, edmType); err != nil {
					return nil, fmt.Errorf("entity %s: property %s: %w", es.Name, ps.Name, err)
				}
			}
		} else {
			t, ok := edm.Lookup(ps.Type)
			if !ok {
				return nil, fmt.Errorf("entity %s: property %s: unknown EDM type %q", es.Name, ps.Name, ps.Type)
			}
			property.Type = t
		}
		property.IsKey = ps.Name == es.Key || (es.Key == "" && ps.Name == "ID")
		meta.Properties = append(meta.Properties, property)
	}

	for _, as := range es.Associations {
		if as.Target == "" {
			return nil, fmt.Errorf("entity %s: association %s has no target", es.Name, as.Name)
		}
		property := PropertyMetadata{
			Name:              as.Name,
			FieldName:         as.Name,
			IsNavigationProp:  true,
			NavigationTarget:  as.Target,
			NavigationIsArray: as.Collection,
			ForeignKey:        as.ForeignKey,
			References:        as.References,
		}
		if property.ForeignKey == "" {
			if as.Collection {
				property.ForeignKey = es.Name + "ID"
			} else {
				property.ForeignKey = as.Name + "ID"
			}
		}
		meta.Properties = append(meta.Properties, property)
	}

	if err := setKey(meta); err != nil {
		return nil, err
	}
	meta.index()
	return meta, nil
}
