// Package sqlbuilder renders compiled queries as parameterized SELECT
// statements using goqu, for callers that run SQL themselves.
package sqlbuilder

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/nlstn/go-odataql/internal/backend"
	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/query"
	"github.com/nlstn/go-odataql/internal/resolve"
)

// Supported dialect names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

var (
	// ErrUntypedQuery is returned for queries compiled without metadata.
	ErrUntypedQuery = errors.New("sqlbuilder: query was compiled without entity metadata")
	// ErrUnknownDialect is returned for dialects other than postgres and sqlite.
	ErrUnknownDialect = errors.New("sqlbuilder: unknown dialect")
)

var comparisonOps = map[criteria.Op]string{
	criteria.Eq: "=",
	criteria.Ne: "<>",
	criteria.Lt: "<",
	criteria.Le: "<=",
	criteria.Gt: ">",
	criteria.Ge: ">=",
}

var arithmeticOps = map[criteria.Op]string{
	criteria.Add: "+",
	criteria.Sub: "-",
	criteria.Mul: "*",
	criteria.Div: "/",
	criteria.Mod: "%",
}

// normalizeDialect maps accepted dialect spellings to goqu dialect names.
func normalizeDialect(dialect string) (string, error) {
	switch strings.ToLower(dialect) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
}

type builder struct {
	dialect goqu.DialectWrapper
	name    string
	table   string
	aliases map[string]*resolve.Alias
}

// Render returns the SELECT statement and bind arguments for q in dialect
// ("postgres" or "sqlite").
func Render(q *query.Query, dialect string) (string, []interface{}, error) {
	ds, err := Dataset(q, dialect)
	if err != nil {
		return "", nil, err
	}
	return ds.Prepared(true).ToSQL()
}

// Dataset builds the goqu dataset for q so callers can extend it before
// rendering.
func Dataset(q *query.Query, dialect string) (*goqu.SelectDataset, error) {
	if q == nil || q.Entity == nil {
		return nil, ErrUntypedQuery
	}
	name, err := normalizeDialect(dialect)
	if err != nil {
		return nil, err
	}
	b := &builder{
		dialect: goqu.Dialect(name),
		name:    name,
		table:   q.Entity.Table,
		aliases: make(map[string]*resolve.Alias, len(q.Aliases)),
	}
	for _, a := range q.Aliases {
		b.aliases[a.Name] = a
	}

	ds := b.dialect.From(goqu.T(b.table))
	joinable := resolve.Joinable(q.Aliases)
	if len(joinable) > 0 {
		ds = ds.Select(goqu.T(b.table).All())
	}
	for _, a := range joinable {
		on, err := b.joinCondition(a)
		if err != nil {
			return nil, err
		}
		ds = ds.LeftJoin(goqu.T(a.Entity.Table).As(a.Name), goqu.On(on))
	}

	if q.Predicate != nil {
		where, err := b.predicate(q.Predicate)
		if err != nil {
			return nil, err
		}
		ds = ds.Where(where)
	}

	for _, o := range q.Order {
		e, err := b.projection(o.Projection)
		if err != nil {
			return nil, err
		}
		term := goqu.L("?", e)
		if o.Descending {
			ds = ds.OrderAppend(term.Desc())
		} else {
			ds = ds.OrderAppend(term.Asc())
		}
	}

	switch {
	case q.Top != nil:
		ds = ds.Limit(uint(*q.Top))
	case q.Skip != nil && name == SQLite:
		// sqlite only accepts OFFSET after a LIMIT.
		ds = ds.Limit(math.MaxInt64)
	}
	if q.Skip != nil {
		ds = ds.Offset(uint(*q.Skip))
	}
	return ds, nil
}

func (b *builder) ref(alias string) exp.IdentifierExpression {
	if alias == "" {
		return goqu.T(b.table)
	}
	return goqu.T(alias)
}

func (b *builder) joinCondition(a *resolve.Alias) (exp.Expression, error) {
	ownerColumn, targetColumn, err := a.JoinColumns()
	if err != nil {
		return nil, err
	}
	return b.ref(a.Owner).Col(ownerColumn).Eq(goqu.T(a.Name).Col(targetColumn)), nil
}

func (b *builder) predicate(p criteria.Predicate) (exp.Expression, error) {
	switch n := p.(type) {
	case *criteria.Truth:
		if n.Value {
			return goqu.L("1=1"), nil
		}
		return goqu.L("1=0"), nil
	case *criteria.Comparison:
		l, err := b.projection(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := b.projection(n.Right)
		if err != nil {
			return nil, err
		}
		return goqu.L("? "+comparisonOps[n.Op]+" ?", l, r), nil
	case *criteria.IsNull:
		e, err := b.projection(n.Operand)
		if err != nil {
			return nil, err
		}
		return goqu.L("? IS NULL", e), nil
	case *criteria.IsNotNull:
		e, err := b.projection(n.Operand)
		if err != nil {
			return nil, err
		}
		return goqu.L("? IS NOT NULL", e), nil
	case *criteria.And:
		l, r, err := b.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return goqu.And(l, r), nil
	case *criteria.Or:
		l, r, err := b.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return goqu.Or(l, r), nil
	case *criteria.Not:
		e, err := b.predicate(n.Operand)
		if err != nil {
			return nil, err
		}
		return goqu.L("NOT (?)", e), nil
	case *criteria.Like:
		e, err := b.projection(n.Operand)
		if err != nil {
			return nil, err
		}
		return goqu.L("? LIKE ? "+backend.LikeEscapeClause, e, backend.LikePattern(n.Pattern, n.Mode)), nil
	case *criteria.Exists:
		a, ok := b.aliases[n.Alias]
		if !ok {
			return nil, fmt.Errorf("sqlbuilder: unknown alias %q", n.Alias)
		}
		on, err := b.joinCondition(a)
		if err != nil {
			return nil, err
		}
		sub := b.dialect.From(goqu.T(a.Entity.Table).As(a.Name)).Select(goqu.L("1")).Where(on)
		return goqu.L("EXISTS ?", sub), nil
	}
	return nil, fmt.Errorf("sqlbuilder: unsupported predicate %T", p)
}

func (b *builder) pair(l, r criteria.Predicate) (exp.Expression, exp.Expression, error) {
	left, err := b.predicate(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := b.predicate(r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (b *builder) projection(p criteria.Projection) (exp.Expression, error) {
	switch n := p.(type) {
	case *criteria.Constant:
		if n.Value.IsNull() {
			return goqu.L("NULL"), nil
		}
		return goqu.V(n.Value.Interface()), nil
	case *criteria.Property:
		return b.property(n)
	case *criteria.Negative:
		e, err := b.projection(n.Operand)
		if err != nil {
			return nil, err
		}
		return goqu.L("(-?)", e), nil
	case *criteria.Arithmetic:
		l, err := b.projection(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := b.projection(n.Right)
		if err != nil {
			return nil, err
		}
		return goqu.L("(? "+arithmeticOps[n.Op]+" ?)", l, r), nil
	case *criteria.Function:
		return b.function(n)
	}
	return nil, fmt.Errorf("sqlbuilder: unsupported projection %T", p)
}

func (b *builder) property(p *criteria.Property) (exp.Expression, error) {
	if p.Column == "" {
		return nil, fmt.Errorf("sqlbuilder: %s has no column mapping", p.QualifiedName())
	}
	col := b.ref(p.Alias).Col(p.Column)
	if p.Path == "" {
		return col, nil
	}
	if b.name == Postgres {
		e := goqu.L("(? #>> ?::text[])", col, "{"+strings.ReplaceAll(p.Path, ".", ",")+"}")
		if p.Type != literal.String {
			return goqu.Cast(e, backend.SQLType(backend.Postgres, p.Type)), nil
		}
		return e, nil
	}
	return goqu.Func("json_extract", col, "$."+p.Path), nil
}
