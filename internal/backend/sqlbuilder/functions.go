package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/nlstn/go-odataql/internal/backend"
	"github.com/nlstn/go-odataql/internal/criteria"
)

var sqlFunctions = map[criteria.FunctionName]string{
	criteria.Length:  "LENGTH",
	criteria.Replace: "REPLACE",
	criteria.ToLower: "LOWER",
	criteria.ToUpper: "UPPER",
	criteria.Trim:    "TRIM",
	criteria.Round:   "ROUND",
}

var dateParts = map[criteria.FunctionName]struct{ field, format string }{
	criteria.Year:   {"YEAR", "%Y"},
	criteria.Month:  {"MONTH", "%m"},
	criteria.Day:    {"DAY", "%d"},
	criteria.Hour:   {"HOUR", "%H"},
	criteria.Minute: {"MINUTE", "%M"},
	criteria.Second: {"SECOND", "%S"},
}

func (b *builder) function(f *criteria.Function) (exp.Expression, error) {
	args := make([]interface{}, len(f.Args))
	for i, a := range f.Args {
		e, err := b.projection(a)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	pg := b.name == Postgres

	if name, ok := sqlFunctions[f.Name]; ok {
		return goqu.Func(name, args...), nil
	}
	if part, ok := dateParts[f.Name]; ok {
		if pg {
			return goqu.L("(EXTRACT("+part.field+" FROM ?)::INT)", args[0]), nil
		}
		return goqu.L("CAST(strftime('"+part.format+"', ?) AS INTEGER)", args[0]), nil
	}

	switch f.Name {
	case criteria.IndexOf:
		if pg {
			return goqu.L("(POSITION(? IN ?) - 1)", args[1], args[0]), nil
		}
		return goqu.L("(INSTR(?, ?) - 1)", args[0], args[1]), nil
	case criteria.Substring:
		switch {
		case pg && len(args) == 3:
			return goqu.L("SUBSTRING(? FROM ? + 1 FOR ?)", args...), nil
		case pg:
			return goqu.L("SUBSTRING(? FROM ? + 1)", args...), nil
		case len(args) == 3:
			return goqu.L("SUBSTR(?, ? + 1, ?)", args...), nil
		}
		return goqu.L("SUBSTR(?, ? + 1)", args...), nil
	case criteria.Concat:
		return goqu.L("("+strings.TrimSuffix(strings.Repeat("? || ", len(args)), " || ")+")", args...), nil
	case criteria.Floor:
		if pg {
			return goqu.Func("FLOOR", args[0]), nil
		}
		x := args[0]
		return goqu.L("CASE WHEN ? = CAST(? AS INTEGER) THEN ? ELSE CAST(? AS INTEGER) - (CASE WHEN ? < 0 THEN 1 ELSE 0 END) END", x, x, x, x, x), nil
	case criteria.Ceiling:
		if pg {
			return goqu.Func("CEIL", args[0]), nil
		}
		x := args[0]
		return goqu.L("CASE WHEN ? = CAST(? AS INTEGER) THEN ? ELSE CAST(? AS INTEGER) + (CASE WHEN ? > 0 THEN 1 ELSE 0 END) END", x, x, x, x, x), nil
	case criteria.Cast:
		return goqu.Cast(args[0].(exp.Expression), backend.SQLType(b.name, f.Type)), nil
	}
	return nil, fmt.Errorf("sqlbuilder: unsupported function %s", f.Name)
}
