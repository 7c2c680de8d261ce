package resolve

import (
	"fmt"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/metadata"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// PathTarget is a resolved resource path such as Customers(5)/Orders.
type PathTarget struct {
	// Root is the entity addressed by the first segment.
	Root *metadata.EntityMetadata
	// Entity is the entity addressed by the last segment.
	Entity *metadata.EntityMetadata
	// Alias is the alias of Entity, empty when the path has one segment.
	Alias string
	// Collection reports whether the path addresses a set rather than one
	// entity.
	Collection bool
	// Predicate constrains the keys given inline; nil when none were.
	Predicate ast.Expr
}

// ResolvePath resolves a path-mode member expression. The first segment names
// an entity or entity set; the rest follow associations. A segment key
// becomes an equality on that segment's identifier.
func ResolvePath(ctx *Context, entities metadata.Lookup, names NameResolver, path *ast.MemberExpr) (*PathTarget, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	if names == nil {
		names = ExactNames{}
		if ctx.CaseInsensitive {
			names = CaseInsensitiveNames{}
		}
	}
	if len(path.Path) == 0 {
		return nil, queryerrors.Parse(queryerrors.NoOffset, "empty resource path")
	}

	first := path.Path[0]
	root, err := entities.Entity(first.Name)
	if err != nil {
		return nil, err
	}
	target := &PathTarget{Root: root, Entity: root, Collection: first.Key == nil}
	if err := target.addKey(first.Key, root, ""); err != nil {
		return nil, err
	}

	o := owner{entity: root}
	for _, seg := range path.Path[1:] {
		if target.Collection {
			return nil, &queryerrors.ResolutionError{
				Name:    seg.Name,
				Owner:   o.entity.EntityName,
				Message: fmt.Sprintf("address a single %s before navigating to '%s'", o.entity.EntityName, seg.Name),
			}
		}

		prop, err := names.ResolveName(o.entity, seg.Name)
		if err != nil {
			return nil, err
		}
		if !prop.IsNavigationProp {
			return nil, &queryerrors.ResolutionError{
				Name:    seg.Name,
				Owner:   o.entity.EntityName,
				Message: fmt.Sprintf("'%s' of type '%s' is not an association", seg.Name, o.entity.EntityName),
			}
		}
		next, err := entities.Entity(prop.NavigationTarget)
		if err != nil {
			return nil, err
		}

		p := joinPath(o.path, prop.Name)
		current, association := o, prop
		a := ctx.alias(p, func(a *Alias) {
			a.Owner = current.alias
			a.Association = association
			a.OwnerEntity = current.entity
			a.Entity = next
		})
		o = owner{entity: next, alias: a.Name, path: p}

		target.Entity, target.Alias = next, a.Name
		target.Collection = prop.NavigationIsArray && seg.Key == nil
		if seg.Key != nil && !prop.NavigationIsArray {
			return nil, &queryerrors.ResolutionError{
				Name:    seg.Name,
				Owner:   current.entity.EntityName,
				Message: fmt.Sprintf("'%s' addresses a single entity and takes no key", seg.Name),
			}
		}
		if err := target.addKey(seg.Key, next, a.Name); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func (t *PathTarget) addKey(key *literal.Value, entity *metadata.EntityMetadata, alias string) error {
	if key == nil {
		return nil
	}
	if entity.KeyProperty == nil {
		return &queryerrors.ResolutionError{Name: entity.EntityName, Message: fmt.Sprintf("entity '%s' has no identifier", entity.EntityName)}
	}
	keyProp := entity.KeyProperty
	cmp := &ast.ComparisonExpr{
		Op: ast.Eq,
		Left: &ast.ResolvedMemberExpr{
			Name:     qualify(alias, keyProp.Name),
			Alias:    alias,
			Property: keyProp.Name,
			Column:   keyProp.Column,
			Type:     keyProp.Type,
		},
		Right: ast.NewLiteral(*key),
	}
	if t.Predicate == nil {
		t.Predicate = cmp
	} else {
		t.Predicate = &ast.LogicalExpr{Op: ast.And, Left: t.Predicate, Right: cmp}
	}
	return nil
}
