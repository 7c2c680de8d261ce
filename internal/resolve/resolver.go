package resolve

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/metadata"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// ImplicitRoot names the query's root entity inside any member path.
const ImplicitRoot = "$it"

// Resolver rewrites member paths into resolved and aliased members. With a
// nil root entity it runs untyped: every path resolves, and aliases are minted
// per path prefix without consulting metadata.
//
// A Resolver also implements the normalizer's member hook, so normalization
// and resolution can run as a single pass.
type Resolver struct {
	ctx      *Context
	root     *metadata.EntityMetadata
	entities metadata.Lookup
	names    NameResolver
	scopes   []scope
}

// scope binds a lambda parameter to the collection element it ranges over.
type scope struct {
	param  string
	entity *metadata.EntityMetadata
	alias  string
	path   string
}

// owner is the entity a path segment is looked up on.
type owner struct {
	entity *metadata.EntityMetadata
	alias  string
	path   string
}

// New creates a resolver for queries rooted at root. Navigation targets are
// looked up in entities. A nil names resolver selects exact or case-folded
// matching according to ctx.CaseInsensitive.
func New(ctx *Context, root *metadata.EntityMetadata, entities metadata.Lookup, names NameResolver) *Resolver {
	if ctx == nil {
		ctx = NewContext()
	}
	if names == nil {
		if ctx.CaseInsensitive {
			names = CaseInsensitiveNames{}
		} else {
			names = ExactNames{}
		}
	}
	return &Resolver{ctx: ctx, root: root, entities: entities, names: names}
}

// NewUntyped creates a resolver that flattens paths without metadata.
func NewUntyped(ctx *Context) *Resolver {
	return New(ctx, nil, nil, nil)
}

// Context returns the alias table the resolver writes to.
func (r *Resolver) Context() *Context {
	return r.ctx
}

// Resolve returns a copy of e with every member path resolved.
func (r *Resolver) Resolve(e ast.Expr) (ast.Expr, error) {
	switch e := e.(type) {
	case *ast.LiteralExpr, *ast.ResolvedMemberExpr, *ast.AliasedMemberExpr:
		return e, nil
	case *ast.MemberExpr:
		return r.ResolveMember(e)
	case *ast.GroupExpr:
		inner, err := r.Resolve(e.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.GroupExpr{Inner: inner}, nil
	case *ast.UnaryExpr:
		operand, err := r.Resolve(e.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: e.Op, Operand: operand}, nil
	case *ast.LogicalExpr:
		left, right, err := r.pair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &ast.LogicalExpr{Op: e.Op, Left: left, Right: right}, nil
	case *ast.ComparisonExpr:
		left, right, err := r.pair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &ast.ComparisonExpr{Op: e.Op, Left: left, Right: right}, nil
	case *ast.ArithmeticExpr:
		left, right, err := r.pair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return &ast.ArithmeticExpr{Op: e.Op, Left: left, Right: right}, nil
	case *ast.MethodCallExpr:
		if e.Method.Quantifier {
			return r.quantifier(e)
		}
		args := make([]ast.Expr, len(e.Args))
		for i, arg := range e.Args {
			resolved, err := r.Resolve(arg)
			if err != nil {
				return nil, err
			}
			args[i] = resolved
		}
		return &ast.MethodCallExpr{Method: e.Method, Args: args}, nil
	}
	return nil, queryerrors.Unsupported(fmt.Sprintf("expression %s", e), "name resolution")
}

func (r *Resolver) pair(l, rt ast.Expr) (ast.Expr, ast.Expr, error) {
	left, err := r.Resolve(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := r.Resolve(rt)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (r *Resolver) quantifier(e *ast.MethodCallExpr) (ast.Expr, error) {
	collection, err := r.Resolve(e.Args[0])
	if err != nil {
		return nil, err
	}
	args := []ast.Expr{collection}
	if len(e.Args) < 2 {
		if err := r.checkCollection(collection, e.Method.Name); err != nil {
			return nil, err
		}
		return &ast.MethodCallExpr{Method: e.Method, Args: args}, nil
	}

	lambda, ok := e.Args[1].(*ast.LambdaExpr)
	if !ok {
		return nil, queryerrors.Parse(queryerrors.NoOffset, "%s expects a lambda argument", e.Method.Name)
	}
	if err := r.EnterLambda(collection, lambda.Param); err != nil {
		return nil, err
	}
	body, err := r.Resolve(lambda.Body)
	r.ExitLambda()
	if err != nil {
		return nil, err
	}
	return &ast.MethodCallExpr{Method: e.Method, Args: append(args, &ast.LambdaExpr{Param: lambda.Param, Body: body})}, nil
}

func (r *Resolver) checkCollection(collection ast.Expr, method string) error {
	if r.root == nil {
		return nil
	}
	if aliased, ok := collection.(*ast.AliasedMemberExpr); ok && aliased.Collection {
		return nil
	}
	return &queryerrors.ResolutionError{
		Name:    collection.String(),
		Message: fmt.Sprintf("%s requires a collection, '%s' is not one", method, collection),
	}
}

// EnterLambda binds param to the element entity of collection until the
// matching ExitLambda.
func (r *Resolver) EnterLambda(collection ast.Expr, param string) error {
	if err := r.checkCollection(collection, "lambda"); err != nil {
		return err
	}

	s := scope{param: param}
	switch c := collection.(type) {
	case *ast.AliasedMemberExpr:
		a, ok := r.ctx.Lookup(c.Alias)
		if !ok {
			return &queryerrors.ResolutionError{Name: c.Alias, Message: fmt.Sprintf("unknown alias '%s'", c.Alias)}
		}
		s.alias, s.path, s.entity = a.Name, a.Path, a.Entity
	case *ast.ResolvedMemberExpr:
		// Untyped: the collection is a plain path, alias it like a join.
		prefix := ""
		if c.Alias != "" {
			if owner, ok := r.ctx.Lookup(c.Alias); ok {
				prefix = owner.Path
			}
		}
		a := r.ctx.alias(joinPath(prefix, c.Property), func(a *Alias) { a.Owner = c.Alias })
		s.alias, s.path = a.Name, a.Path
	default:
		return &queryerrors.ResolutionError{Name: collection.String(), Message: fmt.Sprintf("cannot range over '%s'", collection)}
	}
	r.scopes = append(r.scopes, s)
	return nil
}

// ExitLambda ends the innermost lambda scope.
func (r *Resolver) ExitLambda() {
	if len(r.scopes) > 0 {
		r.scopes = r.scopes[:len(r.scopes)-1]
	}
}

// ResolveMember resolves one member path. Paths ending at a scalar yield a
// *ast.ResolvedMemberExpr, paths ending at an association an
// *ast.AliasedMemberExpr.
func (r *Resolver) ResolveMember(m *ast.MemberExpr) (ast.Expr, error) {
	for _, seg := range m.Path {
		if seg.Key != nil {
			return nil, queryerrors.Unsupported(fmt.Sprintf("key segment '%s'", m), "a member path")
		}
	}

	names := m.Names()
	start := r.start(names[0])
	if start != nil {
		names = names[1:]
	} else {
		start = &owner{entity: r.root}
	}
	if len(names) == 0 {
		return nil, queryerrors.Unsupported(fmt.Sprintf("bare range variable '%s'", m), "a member path")
	}

	if r.root == nil {
		return r.untyped(m.Kind, *start, names), nil
	}
	return r.typed(m.Kind, *start, names)
}

// start returns the owner bound to a leading lambda parameter or the implicit
// root marker, or nil when name is an ordinary member.
func (r *Resolver) start(name string) *owner {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if s := r.scopes[i]; s.param == name {
			return &owner{entity: s.entity, alias: s.alias, path: s.path}
		}
	}
	if name == ImplicitRoot {
		return &owner{entity: r.root}
	}
	return nil
}

func (r *Resolver) untyped(kind ast.MemberKind, o owner, names []string) ast.Expr {
	for _, name := range names[:len(names)-1] {
		path := joinPath(o.path, name)
		ownerAlias := o.alias
		a := r.ctx.alias(path, func(a *Alias) { a.Owner = ownerAlias })
		o = owner{alias: a.Name, path: path}
	}
	last := names[len(names)-1]
	return &ast.ResolvedMemberExpr{
		Kind:     kind,
		Name:     qualify(o.alias, last),
		Alias:    o.alias,
		Property: last,
		Type:     literal.Null,
	}
}

func (r *Resolver) typed(kind ast.MemberKind, o owner, names []string) (ast.Expr, error) {
	for i, name := range names {
		prop, err := r.names.ResolveName(o.entity, name)
		if err != nil {
			return nil, err
		}
		last := i == len(names)-1

		switch {
		case prop.IsDynamic:
			return r.dynamic(kind, o, prop, names[i+1:])

		case prop.IsNavigationProp:
			target, err := r.entities.Entity(prop.NavigationTarget)
			if err != nil {
				return nil, &queryerrors.ResolutionError{
					Name:    prop.NavigationTarget,
					Owner:   o.entity.EntityName,
					Message: fmt.Sprintf("association '%s' of type '%s' targets unmapped entity '%s'", prop.Name, o.entity.EntityName, prop.NavigationTarget),
				}
			}
			path := joinPath(o.path, prop.Name)
			current, association := o, prop
			a := r.ctx.alias(path, func(a *Alias) {
				a.Owner = current.alias
				a.Association = association
				a.OwnerEntity = current.entity
				a.Entity = target
			})

			if last {
				aliased := &ast.AliasedMemberExpr{
					Alias:       a.Name,
					Association: prop.Name,
					Owner:       o.alias,
					OwnerKey:    o.entity.KeyName(),
					Entity:      target.EntityName,
					Key:         target.KeyName(),
					Collection:  prop.NavigationIsArray,
				}
				if target.KeyProperty != nil {
					aliased.KeyColumn = target.KeyProperty.Column
				}
				if kind == ast.BooleanMember {
					return nil, notBoolean(memberPath(names), prop.NavigationTarget)
				}
				return aliased, nil
			}
			if prop.NavigationIsArray {
				return nil, &queryerrors.ResolutionError{
					Name:    names[i+1],
					Owner:   target.EntityName,
					Message: fmt.Sprintf("collection '%s' must be addressed through any or all", prop.Name),
				}
			}
			o = owner{entity: target, alias: a.Name, path: path}

		default:
			if !last {
				return nil, &queryerrors.ResolutionError{Name: names[i+1], Owner: prop.EdmType}
			}
			if kind == ast.BooleanMember && prop.Type != literal.Boolean {
				return nil, notBoolean(memberPath(names), prop.EdmType)
			}
			return &ast.ResolvedMemberExpr{
				Kind:     kind,
				Name:     qualify(o.alias, prop.Name),
				Alias:    o.alias,
				Property: prop.Name,
				Column:   prop.Column,
				Type:     prop.Type,
			}, nil
		}
	}
	// Unreachable: every iteration returns on its last segment.
	return nil, queryerrors.Unsupported("empty member path", "name resolution")
}

// dynamic resolves the remaining segments as one dotted path below a
// free-form component.
func (r *Resolver) dynamic(kind ast.MemberKind, o owner, component *metadata.PropertyMetadata, rest []string) (ast.Expr, error) {
	if len(rest) == 0 {
		return nil, &queryerrors.ResolutionError{
			Name:    component.Name,
			Owner:   o.entity.EntityName,
			Message: fmt.Sprintf("component '%s' of type '%s' cannot be used as a value", component.Name, o.entity.EntityName),
		}
	}
	path := strings.Join(rest, ".")
	member, ok := component.DynamicMember(path)
	if !ok {
		return nil, &queryerrors.ResolutionError{Name: path, Owner: o.entity.EntityName + "." + component.Name}
	}
	if kind == ast.BooleanMember && member.Type != literal.Boolean {
		return nil, notBoolean(component.Name+"/"+strings.Join(rest, "/"), member.EdmType)
	}
	return &ast.ResolvedMemberExpr{
		Kind:        kind,
		Name:        qualify(o.alias, component.Name+"."+path),
		Alias:       o.alias,
		Property:    component.Name,
		Column:      component.Column,
		Type:        member.Type,
		DynamicPath: path,
	}, nil
}

func qualify(alias, name string) string {
	if alias == "" {
		return name
	}
	return alias + "." + name
}

func memberPath(names []string) string {
	return strings.Join(names, "/")
}

func notBoolean(member, typ string) error {
	return queryerrors.TypeCoercion("member '%s' of type %s is not a boolean", member, typ)
}
