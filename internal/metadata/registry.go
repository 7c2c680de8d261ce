package metadata

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/text/cases"
	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// Lookup resolves entity names to their metadata.
type Lookup interface {
	Entity(name string) (*EntityMetadata, error)
}

// Registry holds the entities a compiler can address. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*EntityMetadata
	sets     map[string]*EntityMetadata
	byType   map[reflect.Type]*EntityMetadata

	namer schema.Namer
	cache *Cache
	scope string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithNamer sets the naming strategy used to derive tables and columns.
func WithNamer(namer schema.Namer) RegistryOption {
	return func(r *Registry) {
		r.namer = namer
	}
}

// WithCache memoizes struct analysis in cache under scope.
func WithCache(cache *Cache, scope string) RegistryOption {
	return func(r *Registry) {
		r.cache = cache
		r.scope = scope
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entities: make(map[string]*EntityMetadata),
		sets:     make(map[string]*EntityMetadata),
		byType:   make(map[reflect.Type]*EntityMetadata),
		namer:    DefaultNamer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register analyzes Go structs and adds them to the registry.
func (r *Registry) Register(entities ...interface{}) error {
	for _, entity := range entities {
		var (
			meta *EntityMetadata
			err  error
		)
		if r.cache != nil {
			meta, err = r.cache.Analyze(r.scope, entity, r.namer)
		} else {
			meta, err = AnalyzeEntity(entity, r.namer)
		}
		if err != nil {
			return err
		}
		if err := r.Add(meta); err != nil {
			return err
		}
	}
	return nil
}

// Add registers already built metadata. Entity and entity set names must be
// unique.
func (r *Registry) Add(entities ...*EntityMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, meta := range entities {
		if meta.byName == nil {
			meta.index()
		}
		if _, exists := r.entities[meta.EntityName]; exists {
			return fmt.Errorf("entity %s is already registered", meta.EntityName)
		}
		if _, exists := r.sets[meta.EntitySetName]; exists {
			return fmt.Errorf("entity set %s is already registered", meta.EntitySetName)
		}
		r.entities[meta.EntityName] = meta
		r.sets[meta.EntitySetName] = meta
		if meta.EntityType != nil {
			r.byType[meta.EntityType] = meta
		}
	}
	return nil
}

// Entity resolves an entity or entity set name. An exact match wins; otherwise
// names are compared case-folded, and more than one candidate is an error.
func (r *Registry) Entity(name string) (*EntityMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if meta, ok := r.entities[name]; ok {
		return meta, nil
	}
	if meta, ok := r.sets[name]; ok {
		return meta, nil
	}

	folded := FoldName(name)
	var candidates []*EntityMetadata
	for _, meta := range r.entities {
		if FoldName(meta.EntityName) == folded || FoldName(meta.EntitySetName) == folded {
			candidates = append(candidates, meta)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, &queryerrors.ResolutionError{Name: name, Message: fmt.Sprintf("no entity named '%s'", name)}
	case 1:
		return candidates[0], nil
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.EntityName
	}
	sort.Strings(names)
	return nil, &queryerrors.ResolutionError{Name: name, Message: fmt.Sprintf("entity name '%s' is ambiguous: %v", name, names)}
}

// EntityFor returns the metadata registered for the type of v.
func (r *Registry) EntityFor(v interface{}) (*EntityMetadata, error) {
	t := reflect.TypeOf(v)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}

	r.mu.RLock()
	meta, ok := r.byType[t]
	r.mu.RUnlock()
	if !ok {
		return nil, &queryerrors.ResolutionError{Name: fmt.Sprint(t), Message: fmt.Sprintf("type %v is not registered", t)}
	}
	return meta, nil
}

// Names returns the registered entity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FoldName returns the Unicode case-folded form of name.
func FoldName(name string) string {
	return cases.Fold().String(name)
}
