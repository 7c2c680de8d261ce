package gormq

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-odataql/internal/backend"
	"github.com/nlstn/go-odataql/internal/criteria"
)

var datePartFormats = map[criteria.FunctionName]struct{ field, format string }{
	criteria.Year:   {"YEAR", "%Y"},
	criteria.Month:  {"MONTH", "%m"},
	criteria.Day:    {"DAY", "%d"},
	criteria.Hour:   {"HOUR", "%H"},
	criteria.Minute: {"MINUTE", "%M"},
	criteria.Second: {"SECOND", "%S"},
}

var simpleFunctions = map[criteria.FunctionName]string{
	criteria.Length:  "LENGTH",
	criteria.Replace: "REPLACE",
	criteria.ToLower: "LOWER",
	criteria.ToUpper: "UPPER",
	criteria.Trim:    "TRIM",
	criteria.Round:   "ROUND",
}

func (r *renderer) function(f *criteria.Function) (string, []interface{}, error) {
	sqls := make([]string, len(f.Args))
	operands := make([][]interface{}, len(f.Args))
	for i, a := range f.Args {
		s, args, err := r.projection(a)
		if err != nil {
			return "", nil, err
		}
		sqls[i], operands[i] = s, args
	}
	args := concatArgs(operands...)

	if name, ok := simpleFunctions[f.Name]; ok {
		return name + "(" + strings.Join(sqls, ", ") + ")", args, nil
	}
	if part, ok := datePartFormats[f.Name]; ok {
		if r.dialect == dialectPostgres {
			return fmt.Sprintf("(EXTRACT(%s FROM %s)::INT)", part.field, sqls[0]), args, nil
		}
		return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", part.format, sqls[0]), args, nil
	}

	switch f.Name {
	case criteria.IndexOf:
		if r.dialect == dialectPostgres {
			return fmt.Sprintf("(POSITION(%s IN %s) - 1)", sqls[1], sqls[0]), concatArgs(operands[1], operands[0]), nil
		}
		return fmt.Sprintf("(INSTR(%s, %s) - 1)", sqls[0], sqls[1]), args, nil
	case criteria.Substring:
		if r.dialect == dialectPostgres {
			if len(sqls) == 3 {
				return fmt.Sprintf("SUBSTRING(%s FROM %s + 1 FOR %s)", sqls[0], sqls[1], sqls[2]), args, nil
			}
			return fmt.Sprintf("SUBSTRING(%s FROM %s + 1)", sqls[0], sqls[1]), args, nil
		}
		if len(sqls) == 3 {
			return fmt.Sprintf("SUBSTR(%s, %s + 1, %s)", sqls[0], sqls[1], sqls[2]), args, nil
		}
		return fmt.Sprintf("SUBSTR(%s, %s + 1)", sqls[0], sqls[1]), args, nil
	case criteria.Concat:
		return "(" + strings.Join(sqls, " || ") + ")", args, nil
	case criteria.Floor:
		if r.dialect == dialectPostgres {
			return fmt.Sprintf("FLOOR(%s)", sqls[0]), args, nil
		}
		return fmt.Sprintf("CASE WHEN %[1]s = CAST(%[1]s AS INTEGER) THEN %[1]s ELSE CAST(%[1]s AS INTEGER) - (CASE WHEN %[1]s < 0 THEN 1 ELSE 0 END) END", sqls[0]),
			repeatArgs(operands[0], 5), nil
	case criteria.Ceiling:
		if r.dialect == dialectPostgres {
			return fmt.Sprintf("CEIL(%s)", sqls[0]), args, nil
		}
		return fmt.Sprintf("CASE WHEN %[1]s = CAST(%[1]s AS INTEGER) THEN %[1]s ELSE CAST(%[1]s AS INTEGER) + (CASE WHEN %[1]s > 0 THEN 1 ELSE 0 END) END", sqls[0]),
			repeatArgs(operands[0], 5), nil
	case criteria.Cast:
		// The trailing argument is the type name, carried by f.Type.
		return fmt.Sprintf("CAST(%s AS %s)", sqls[0], backend.SQLType(r.dialect, f.Type)), operands[0], nil
	}
	return "", nil, fmt.Errorf("unsupported function %s", f.Name)
}

func concatArgs(parts ...[]interface{}) []interface{} {
	var out []interface{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// repeatArgs repeats the bind arguments of an operand that appears times
// times in the rendered SQL.
func repeatArgs(args []interface{}, times int) []interface{} {
	out := make([]interface{}, 0, len(args)*times)
	for i := 0; i < times; i++ {
		out = append(out, args...)
	}
	return out
}
