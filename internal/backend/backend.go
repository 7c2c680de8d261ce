// Package backend holds the SQL helpers shared by the query backends: LIKE
// pattern escaping and the column types used by CAST.
package backend

import (
	"strings"

	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/literal"
)

// Dialect names as reported by GORM dialectors.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// LikeEscapeClause is appended to every LIKE built from LikePattern.
const LikeEscapeClause = `ESCAPE '\'`

var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	"%", `\%`,
	"_", `\_`,
)

// EscapeLike escapes the LIKE wildcards and the escape character itself.
func EscapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// LikePattern escapes text and adds the wildcards for mode.
func LikePattern(text string, mode criteria.MatchMode) string {
	pattern := EscapeLike(text)
	switch mode {
	case criteria.Start:
		return pattern + "%"
	case criteria.End:
		return "%" + pattern
	}
	return "%" + pattern + "%"
}

// SQLType maps a literal type to the column type used by CAST in dialect.
// Dialects other than postgres get the sqlite affinities.
func SQLType(dialect string, t literal.Type) string {
	if dialect == Postgres {
		switch t {
		case literal.Int:
			return "INTEGER"
		case literal.Long:
			return "BIGINT"
		case literal.Decimal:
			return "NUMERIC"
		case literal.Single, literal.Double:
			return "DOUBLE PRECISION"
		case literal.Boolean:
			return "BOOLEAN"
		case literal.DateTime:
			return "TIMESTAMP WITH TIME ZONE"
		case literal.Guid:
			return "UUID"
		case literal.Binary:
			return "BYTEA"
		case literal.Duration:
			return "INTERVAL"
		default:
			return "TEXT"
		}
	}
	switch t {
	case literal.Int, literal.Long, literal.Boolean:
		return "INTEGER"
	case literal.Decimal, literal.Single, literal.Double:
		return "REAL"
	case literal.Binary:
		return "BLOB"
	default:
		return "TEXT"
	}
}
