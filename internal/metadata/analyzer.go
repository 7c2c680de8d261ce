package metadata

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odataql/internal/edm"
)

// DefaultNamer derives table and column names the way gorm does by default.
var DefaultNamer schema.Namer = schema.NamingStrategy{}

// AnalyzeEntity extracts metadata from a Go struct.
//
// Exported fields become properties. The key is the field tagged
// `odata:"key"`, or the field named ID. Struct and pointer-to-struct fields
// are to-one associations and slices of structs are collections. A
// map[string]any field tagged `odata:"dynamic=Path:Edm.Type|..."` is a
// dynamic component.
func AnalyzeEntity(entity interface{}, namer schema.Namer) (*EntityMetadata, error) {
	entityType := reflect.TypeOf(entity)
	if entityType == nil {
		return nil, fmt.Errorf("entity must be a struct, got nil")
	}
	return analyzeType(entityType, namer)
}

func analyzeType(entityType reflect.Type, namer schema.Namer) (*EntityMetadata, error) {
	if namer == nil {
		namer = DefaultNamer
	}

	// Handle pointer types
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}
	if entityType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity must be a struct, got %s", entityType.Kind())
	}

	metadata := initializeMetadata(entityType, namer)

	for _, field := range collectFields(entityType) {
		property, ok, err := analyzeField(field, metadata, namer)
		if err != nil {
			return nil, fmt.Errorf("entity %s: field %s: %w", metadata.EntityName, field.Name, err)
		}
		if ok {
			metadata.Properties = append(metadata.Properties, property)
		}
	}

	if err := setKey(metadata); err != nil {
		return nil, err
	}
	metadata.index()
	return metadata, nil
}

// collectFields lists the exported fields of t, flattening embedded structs
// such as gorm.Model.
func collectFields(t reflect.Type) []reflect.StructField {
	var fields []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			embedded := field.Type
			if embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				fields = append(fields, collectFields(embedded)...)
			}
			continue
		}
		if field.IsExported() {
			fields = append(fields, field)
		}
	}
	return fields
}

// initializeMetadata creates a new EntityMetadata struct with basic information
func initializeMetadata(entityType reflect.Type, namer schema.Namer) *EntityMetadata {
	entityName := entityType.Name()
	table := namer.TableName(entityName)
	if tabler, ok := reflect.New(entityType).Interface().(schema.Tabler); ok {
		table = tabler.TableName()
	}

	return &EntityMetadata{
		EntityType:    entityType,
		EntityName:    entityName,
		EntitySetName: pluralize(entityName),
		Table:         table,
		Properties:    make([]PropertyMetadata, 0, entityType.NumField()),
	}
}

// setKey picks the explicitly tagged key, falling back to a field named ID.
func setKey(metadata *EntityMetadata) error {
	keys := 0
	for i := range metadata.Properties {
		if metadata.Properties[i].IsKey {
			keys++
		}
	}
	if keys > 1 {
		return fmt.Errorf("entity %s declares %d key properties, composite keys are not supported", metadata.EntityName, keys)
	}
	if keys == 1 {
		return nil
	}
	for i := range metadata.Properties {
		if metadata.Properties[i].FieldName == "ID" && !metadata.Properties[i].IsNavigationProp {
			metadata.Properties[i].IsKey = true
			return nil
		}
	}
	return fmt.Errorf("entity %s must have a key property (use `odata:\"key\"` tag or name field 'ID')", metadata.EntityName)
}

// analyzeField analyzes a single struct field. ok is false for ignored fields.
func analyzeField(field reflect.StructField, metadata *EntityMetadata, namer schema.Namer) (PropertyMetadata, bool, error) {
	gormTag := parseGormTag(field.Tag.Get("gorm"))
	if field.Tag.Get("odata") == "-" || gormTag["-"] != "" {
		return PropertyMetadata{}, false, nil
	}

	property := PropertyMetadata{
		Name:      field.Name,
		FieldName: field.Name,
		Column:    namer.ColumnName(metadata.Table, field.Name),
	}
	if column := gormTag["column"]; column != "" {
		property.Column = column
	}

	var dynamicSpec string
	for _, part := range strings.Split(field.Tag.Get("odata"), ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "key":
			property.IsKey = true
		case strings.HasPrefix(part, "name="):
			property.Name = strings.TrimPrefix(part, "name=")
		case strings.HasPrefix(part, "type="):
			property.EdmType = strings.TrimPrefix(part, "type=")
		case strings.HasPrefix(part, "dynamic="):
			dynamicSpec = strings.TrimPrefix(part, "dynamic=")
		}
	}

	if analyzeNavigationProperty(&property, field, gormTag, metadata) {
		return property, true, nil
	}

	if field.Type.Kind() == reflect.Map {
		if field.Type.Key().Kind() != reflect.String {
			return PropertyMetadata{}, false, fmt.Errorf("dynamic components need string keys")
		}
		dynamic, err := ParseDynamicSpec(dynamicSpec)
		if err != nil {
			return PropertyMetadata{}, false, err
		}
		property.IsDynamic = true
		property.Dynamic = dynamic
		return property, true, nil
	}

	if property.EdmType == "" {
		edmType, err := edm.FromGoType(field.Type)
		if err != nil {
			if isValuer(field.Type) {
				// Custom column types such as gorm.DeletedAt are not queryable
				// without an explicit type= tag.
				return PropertyMetadata{}, false, nil
			}
			return PropertyMetadata{}, false, err
		}
		property.EdmType = edmType
	}
	t, ok := edm.Lookup(property.EdmType)
	if !ok {
		return PropertyMetadata{}, false, fmt.Errorf("unknown EDM type %s", property.EdmType)
	}
	property.Type = t
	return property, true, nil
}

// analyzeNavigationProperty determines if a field is a navigation property
func analyzeNavigationProperty(property *PropertyMetadata, field reflect.StructField, gormTag map[string]string, metadata *EntityMetadata) bool {
	fieldType := field.Type
	isSlice := fieldType.Kind() == reflect.Slice
	if isSlice {
		fieldType = fieldType.Elem()
	}
	if fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	if fieldType.Kind() != reflect.Struct || isPrimitiveStruct(fieldType) || isValuer(fieldType) {
		return false
	}

	property.IsNavigationProp = true
	property.NavigationTarget = fieldType.Name()
	property.NavigationIsArray = isSlice
	property.Column = ""

	property.ForeignKey = gormTag["foreignKey"]
	property.References = gormTag["references"]
	if property.ForeignKey == "" {
		if isSlice {
			property.ForeignKey = metadata.EntityName + "ID"
		} else {
			property.ForeignKey = field.Name + "ID"
		}
	}
	return true
}

// isPrimitiveStruct reports struct types that map to a primitive EDM type.
func isPrimitiveStruct(t reflect.Type) bool {
	_, err := edm.FromGoType(t)
	return err == nil
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

func isValuer(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType)
}

// parseGormTag splits a gorm tag ("column:name;foreignKey:UserID") into its
// settings. Flags without a value map to themselves.
func parseGormTag(tag string) map[string]string {
	settings := make(map[string]string)
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) == 1 {
			settings[kv[0]] = kv[0]
			continue
		}
		settings[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return settings
}

// ParseDynamicSpec parses "Color:Edm.String|Size.Width:Edm.Int32" into
// dynamic members keyed by dotted path.
func ParseDynamicSpec(spec string) (map[string]DynamicProperty, error) {
	members := make(map[string]DynamicProperty)
	if strings.TrimSpace(spec) == "" {
		return members, nil
	}
	for _, entry := range strings.Split(spec, "|") {
		path, edmType, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found || path == "" {
			return nil, fmt.Errorf("malformed dynamic member %q", entry)
		}
		if err := addDynamic(members, path, edmType); err != nil {
			return nil, err
		}
	}
	return members, nil
}

func addDynamic(members map[string]DynamicProperty, path, edmType string) error {
	t, ok := edm.Lookup(edmType)
	if !ok {
		return fmt.Errorf("unknown EDM type %s for dynamic member %s", edmType, path)
	}
	name := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		name = path[i+1:]
	}
	members[path] = DynamicProperty{Name: name, EdmType: edmType, Type: t}
	return nil
}

// pluralize creates a simple pluralized form of the entity name
func pluralize(word string) string {
	if word == "" {
		return word
	}

	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(rune(word[len(word)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") || strings.HasSuffix(word, "z") ||
		strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}
