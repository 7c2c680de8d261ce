// Package resolve binds member paths to entity metadata and assigns join
// aliases to the associations they traverse.
package resolve

import (
	"fmt"
	"strconv"

	"github.com/nlstn/go-odataql/internal/metadata"
)

// Alias names an entity joined through an association path.
type Alias struct {
	Name string
	// Path is the dotted association path from the root, such as
	// "Orders.Customer".
	Path string
	// Owner is the alias of the owning entity, empty for the root.
	Owner string
	// Association is the navigation property followed from the owner. It and
	// the entities below are nil when resolving without metadata.
	Association *metadata.PropertyMetadata
	OwnerEntity *metadata.EntityMetadata
	Entity      *metadata.EntityMetadata
}

// Collection reports whether the alias follows a to-many association.
func (a *Alias) Collection() bool {
	return a.Association != nil && a.Association.NavigationIsArray
}

// JoinColumns returns the owner-side and target-side columns linking the
// alias to its owner. The foreign key lives on the owner for to-one
// associations and on the target for collections.
func (a *Alias) JoinColumns() (ownerColumn, targetColumn string, err error) {
	assoc := a.Association
	if assoc == nil || a.Entity == nil || a.OwnerEntity == nil {
		return "", "", fmt.Errorf("alias %s has no association metadata", a.Name)
	}
	holder := a.OwnerEntity
	if a.Collection() {
		holder = a.Entity
	}
	fk := holder.Property(assoc.ForeignKey)
	if fk == nil {
		return "", "", fmt.Errorf("entity %s has no foreign key %q for %s", holder.EntityName, assoc.ForeignKey, assoc.Name)
	}
	if a.Collection() {
		ownerColumn, targetColumn = assoc.ReferencedColumn(a.OwnerEntity), fk.Column
	} else {
		ownerColumn, targetColumn = fk.Column, assoc.ReferencedColumn(a.Entity)
	}
	if ownerColumn == "" || targetColumn == "" {
		return "", "", fmt.Errorf("association %s has no referenced identifier", assoc.Name)
	}
	return ownerColumn, targetColumn, nil
}

// Joinable returns the aliases reachable by plain joins from the root: the
// to-one aliases not owned, directly or transitively, by a collection alias.
func Joinable(aliases []*Alias) []*Alias {
	below := make(map[string]bool)
	var out []*Alias
	for _, a := range aliases {
		if a.Collection() || below[a.Owner] {
			below[a.Name] = true
			continue
		}
		out = append(out, a)
	}
	return out
}

// Context is the per-compilation alias table. It is not safe for concurrent
// use and must not outlive the compilation it belongs to.
type Context struct {
	// CaseInsensitive selects case-folded member lookup when no explicit
	// NameResolver is supplied.
	CaseInsensitive bool

	counter int
	byPath  map[string]*Alias
	byName  map[string]*Alias
	order   []*Alias
}

// NewContext creates an empty alias table.
func NewContext() *Context {
	return &Context{
		byPath: make(map[string]*Alias),
		byName: make(map[string]*Alias),
	}
}

// alias returns the alias registered for path, minting the next one when the
// path has not been seen.
func (c *Context) alias(path string, init func(*Alias)) *Alias {
	if a, ok := c.byPath[path]; ok {
		return a
	}
	c.counter++
	a := &Alias{Name: "t" + strconv.Itoa(c.counter), Path: path}
	if init != nil {
		init(a)
	}
	c.byPath[path] = a
	c.byName[a.Name] = a
	c.order = append(c.order, a)
	return a
}

// Aliases returns the assigned aliases in first-seen order.
func (c *Context) Aliases() []*Alias {
	out := make([]*Alias, len(c.order))
	copy(out, c.order)
	return out
}

// Lookup returns the alias with the given name.
func (c *Context) Lookup(name string) (*Alias, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// ForPath returns the alias assigned to a dotted association path.
func (c *Context) ForPath(path string) (*Alias, bool) {
	a, ok := c.byPath[path]
	return a, ok
}

// Len returns the number of assigned aliases.
func (c *Context) Len() int {
	return len(c.order)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
