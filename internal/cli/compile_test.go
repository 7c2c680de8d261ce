package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensText(t *testing.T) {
	out, err := execute(t, "tokens", "Price gt 5")
	require.NoError(t, err)
	assert.Equal(t, "0\tName(Price)\n6\tName(gt)\n9\tLiteral(Int 5)\n", out)
}

func TestTokensJSON(t *testing.T) {
	out, err := execute(t, "tokens", "--format", "json", "Name eq 'x'")
	require.NoError(t, err)

	var tokens []TokenResult
	require.NoError(t, json.Unmarshal([]byte(out), &tokens))
	require.Len(t, tokens, 3)
	assert.Equal(t, "Name", tokens[0].Kind)
	assert.Equal(t, "Literal", tokens[2].Kind)
	assert.Equal(t, "String", tokens[2].Type)
	assert.Equal(t, 8, tokens[2].Pos)
}

func TestTokensLexError(t *testing.T) {
	_, err := execute(t, "tokens", "Name eq 'x")
	assert.Error(t, err)
}

func TestCompileText(t *testing.T) {
	schema := writeSchema(t)
	out, err := execute(t, "compile", "--schema", schema, "--entity", "Product",
		"$filter=Child/Name eq 'Tools'&$orderby=Name desc&$top=5&$skip=10")
	require.NoError(t, err)

	assert.Contains(t, out, "entity:    Product\n")
	assert.Contains(t, out, "predicate: t1.Name eq 'Tools'\n")
	assert.Contains(t, out, "order:     Name desc\n")
	assert.Contains(t, out, "top:       5\n")
	assert.Contains(t, out, "skip:      10\n")
	assert.Contains(t, out, "alias:     t1 = Child (Category)\n")
	assert.NotContains(t, out, "sql:")
}

func TestCompileSQL(t *testing.T) {
	schema := writeSchema(t)
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name: "gorm sqlite",
			args: []string{"--sql", "sqlite"},
			contains: []string{
				`LEFT JOIN "categories" AS "t1" ON "products"."child_id" = "t1"."id"`,
				`"t1"."name" = ?`,
				"args:      [Tools]",
			},
		},
		{
			name: "gorm postgres",
			args: []string{"--sql", "postgres"},
			contains: []string{
				`LEFT JOIN "categories" AS "t1" ON "products"."child_id" = "t1"."id"`,
				`"t1"."name" = $1`,
			},
		},
		{
			name: "goqu sqlite",
			args: []string{"--sql", "sqlite", "--renderer", "goqu"},
			contains: []string{
				"LEFT JOIN `categories` AS `t1` ON",
				"`products`.`child_id` = `t1`.`id`",
			},
		},
		{
			name: "goqu postgres",
			args: []string{"--sql", "postgres", "--renderer", "goqu"},
			contains: []string{
				`LEFT JOIN "categories" AS "t1" ON`,
				`"products"."child_id" = "t1"."id"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compile", "-s", schema, "-e", "Product"}, tt.args...)
			args = append(args, "$filter=Child/Name eq 'Tools'")
			out, err := execute(t, args...)
			require.NoError(t, err)
			for _, fragment := range tt.contains {
				assert.Contains(t, out, fragment)
			}
		})
	}
}

func TestCompileJSON(t *testing.T) {
	schema := writeSchema(t)
	out, err := execute(t, "compile", "--format", "json", "-s", schema, "-e", "Product", "--sql", "sqlite",
		"$filter=Orders/any() and Price gt 1.5&$orderby=ID")
	require.NoError(t, err)

	var result CompileResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "Product", result.Entity)
	assert.Equal(t, "(exists(t1) and Price gt 1.5)", result.Predicate)
	assert.Equal(t, []string{"ID asc"}, result.Order)
	assert.Equal(t, []AliasResult{{Name: "t1", Path: "Orders", Entity: "Order"}}, result.Aliases)
	assert.Contains(t, result.SQL, "EXISTS (SELECT 1 FROM")
	assert.Nil(t, result.Top)
}

func TestCompileIgnoreCase(t *testing.T) {
	schema := writeSchema(t)

	_, err := execute(t, "compile", "-s", schema, "-e", "Product", "$filter=child/name eq 'x'")
	require.Error(t, err)

	out, err := execute(t, "compile", "-i", "-s", schema, "-e", "Product", "$filter=child/name eq 'x'")
	require.NoError(t, err)
	assert.Contains(t, out, "predicate: t1.Name eq 'x'")
}

func TestCompileErrors(t *testing.T) {
	schema := writeSchema(t)
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing schema flag", []string{"compile", "-e", "Product", "$top=1"}, `"schema" not set`},
		{"missing schema file", []string{"compile", "-s", "does-not-exist.yaml", "-e", "Product", "$top=1"}, "load schema"},
		{"unknown entity", []string{"compile", "-s", schema, "-e", "Invoice", "$top=1"}, "Invoice"},
		{"bad query", []string{"compile", "-s", schema, "-e", "Product", "$skip=-1"}, "$skip"},
		{"unknown dialect", []string{"compile", "-s", schema, "-e", "Product", "--sql", "oracle", "$top=1"}, "unknown dialect"},
		{"unknown renderer", []string{"compile", "-s", schema, "-e", "Product", "--sql", "sqlite", "--renderer", "sqlx", "$top=1"}, "unknown renderer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
