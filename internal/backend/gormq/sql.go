package gormq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nlstn/go-odataql/internal/backend"
	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/query"
	"github.com/nlstn/go-odataql/internal/resolve"
)

const (
	dialectPostgres = backend.Postgres
	dialectSQLite   = backend.SQLite
)

var (
	errUntypedQuery   = errors.New("query was compiled without entity metadata")
	errUnmappedMember = errors.New("member has no column mapping")
)

var comparisonSQL = map[criteria.Op]string{
	criteria.Eq: "=",
	criteria.Ne: "<>",
	criteria.Lt: "<",
	criteria.Le: "<=",
	criteria.Gt: ">",
	criteria.Ge: ">=",
}

var arithmeticSQL = map[criteria.Op]string{
	criteria.Add: "+",
	criteria.Sub: "-",
	criteria.Mul: "*",
	criteria.Div: "/",
	criteria.Mod: "%",
}

// quoteIdent safely quotes identifiers in a portable way (double quotes work for sqlite and postgres).
// Embedded double quotes are escaped by doubling them per SQL standard.
func quoteIdent(ident string) string {
	if ident == "" {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// renderer translates criteria trees into SQL fragments with '?' placeholders.
type renderer struct {
	dialect string
	root    string
	aliases map[string]*resolve.Alias
}

func newRenderer(dialect string, q *query.Query) (*renderer, error) {
	if q.Entity == nil {
		return nil, errUntypedQuery
	}
	r := &renderer{
		dialect: dialect,
		root:    quoteIdent(q.Entity.Table),
		aliases: make(map[string]*resolve.Alias, len(q.Aliases)),
	}
	for _, a := range q.Aliases {
		r.aliases[a.Name] = a
	}
	return r, nil
}

// ref returns the quoted reference to the root table or a joined alias.
func (r *renderer) ref(alias string) string {
	if alias == "" {
		return r.root
	}
	return quoteIdent(alias)
}

func (r *renderer) alias(name string) (*resolve.Alias, error) {
	a, ok := r.aliases[name]
	if !ok || a.Association == nil || a.Entity == nil || a.OwnerEntity == nil {
		return nil, fmt.Errorf("alias %q has no association metadata", name)
	}
	return a, nil
}

// joinCondition links alias a to its owner.
func (r *renderer) joinCondition(a *resolve.Alias) (string, error) {
	ownerColumn, targetColumn, err := a.JoinColumns()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s = %s.%s",
		r.ref(a.Owner), quoteIdent(ownerColumn),
		quoteIdent(a.Name), quoteIdent(targetColumn)), nil
}

// joins returns a LEFT JOIN clause per joinable alias. Collection aliases
// are only reachable through EXISTS subqueries.
func (r *renderer) joins(aliases []*resolve.Alias) ([]string, error) {
	var out []string
	for _, a := range resolve.Joinable(aliases) {
		cond, err := r.joinCondition(a)
		if err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("LEFT JOIN %s AS %s ON %s",
			quoteIdent(a.Entity.Table), quoteIdent(a.Name), cond))
	}
	return out, nil
}

func (r *renderer) predicate(p criteria.Predicate) (string, []interface{}, error) {
	switch n := p.(type) {
	case *criteria.Truth:
		if n.Value {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil
	case *criteria.Comparison:
		left, largs, err := r.projection(n.Left)
		if err != nil {
			return "", nil, err
		}
		right, rargs, err := r.projection(n.Right)
		if err != nil {
			return "", nil, err
		}
		return left + " " + comparisonSQL[n.Op] + " " + right, append(largs, rargs...), nil
	case *criteria.IsNull:
		operand, args, err := r.projection(n.Operand)
		if err != nil {
			return "", nil, err
		}
		return operand + " IS NULL", args, nil
	case *criteria.IsNotNull:
		operand, args, err := r.projection(n.Operand)
		if err != nil {
			return "", nil, err
		}
		return operand + " IS NOT NULL", args, nil
	case *criteria.And:
		return r.logical("AND", n.Left, n.Right)
	case *criteria.Or:
		return r.logical("OR", n.Left, n.Right)
	case *criteria.Not:
		operand, args, err := r.predicate(n.Operand)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + operand + ")", args, nil
	case *criteria.Like:
		operand, args, err := r.projection(n.Operand)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s LIKE ? %s", operand, backend.LikeEscapeClause), append(args, backend.LikePattern(n.Pattern, n.Mode)), nil
	case *criteria.Exists:
		return r.exists(n)
	}
	return "", nil, fmt.Errorf("unsupported predicate %T", p)
}

func (r *renderer) logical(op string, l, rt criteria.Predicate) (string, []interface{}, error) {
	left, largs, err := r.predicate(l)
	if err != nil {
		return "", nil, err
	}
	right, rargs, err := r.predicate(rt)
	if err != nil {
		return "", nil, err
	}
	return "(" + left + " " + op + " " + right + ")", append(largs, rargs...), nil
}

func (r *renderer) exists(e *criteria.Exists) (string, []interface{}, error) {
	a, err := r.alias(e.Alias)
	if err != nil {
		return "", nil, err
	}
	cond, err := r.joinCondition(a)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s)",
		quoteIdent(a.Entity.Table), quoteIdent(a.Name), cond), nil, nil
}

func (r *renderer) projection(p criteria.Projection) (string, []interface{}, error) {
	switch n := p.(type) {
	case *criteria.Constant:
		if n.Value.IsNull() {
			return "NULL", nil, nil
		}
		return "?", []interface{}{n.Value.Interface()}, nil
	case *criteria.Property:
		return r.property(n)
	case *criteria.Negative:
		operand, args, err := r.projection(n.Operand)
		if err != nil {
			return "", nil, err
		}
		return "(-" + operand + ")", args, nil
	case *criteria.Arithmetic:
		left, largs, err := r.projection(n.Left)
		if err != nil {
			return "", nil, err
		}
		right, rargs, err := r.projection(n.Right)
		if err != nil {
			return "", nil, err
		}
		return "(" + left + " " + arithmeticSQL[n.Op] + " " + right + ")", append(largs, rargs...), nil
	case *criteria.Function:
		return r.function(n)
	}
	return "", nil, fmt.Errorf("unsupported projection %T", p)
}

func (r *renderer) property(p *criteria.Property) (string, []interface{}, error) {
	if p.Column == "" {
		return "", nil, fmt.Errorf("%w: %s", errUnmappedMember, p.QualifiedName())
	}
	column := r.ref(p.Alias) + "." + quoteIdent(p.Column)
	if p.Path == "" {
		return column, nil, nil
	}

	segments := strings.Split(p.Path, ".")
	if r.dialect == dialectPostgres {
		extracted := fmt.Sprintf("(%s #>> ?::text[])", column)
		args := []interface{}{"{" + strings.Join(segments, ",") + "}"}
		if p.Type != literal.String {
			extracted = fmt.Sprintf("CAST(%s AS %s)", extracted, backend.SQLType(r.dialect, p.Type))
		}
		return extracted, args, nil
	}
	return fmt.Sprintf("json_extract(%s, ?)", column), []interface{}{"$." + p.Path}, nil
}
