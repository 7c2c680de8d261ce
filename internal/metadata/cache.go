package metadata

import (
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"
)

type cacheKey struct {
	scope string
	namer string
	typ   reflect.Type
}

// Cache memoizes struct analysis per scope, such as a database connection.
// Entries are pure functions of the analyzed type, so when two callers race on
// the same key the first stored entry wins.
type Cache struct {
	entries sync.Map
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Analyze returns the cached metadata for the type of entity in scope,
// analyzing it on first use. Entries are also keyed by the namer, so
// registries sharing a scope may use different naming strategies.
func (c *Cache) Analyze(scope string, entity interface{}, namer schema.Namer) (*EntityMetadata, error) {
	t := reflect.TypeOf(entity)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if namer == nil {
		namer = DefaultNamer
	}
	key := cacheKey{scope: scope, namer: namerKey(namer), typ: t}
	if cached, ok := c.entries.Load(key); ok {
		return cached.(*EntityMetadata), nil
	}

	meta, err := AnalyzeEntity(entity, namer)
	if err != nil {
		return nil, err
	}
	actual, _ := c.entries.LoadOrStore(key, meta)
	return actual.(*EntityMetadata), nil
}

// namerKey identifies a naming strategy by its type and configuration.
func namerKey(namer schema.Namer) string {
	return fmt.Sprintf("%T%+v", namer, namer)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Clear drops every entry of scope.
func (c *Cache) Clear(scope string) {
	c.entries.Range(func(k, _ interface{}) bool {
		if k.(cacheKey).scope == scope {
			c.entries.Delete(k)
		}
		return true
	})
}
