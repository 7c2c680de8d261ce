package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	odataql "github.com/nlstn/go-odataql"
	"github.com/nlstn/go-odataql/internal/backend/gormq"
	"github.com/nlstn/go-odataql/internal/backend/sqlbuilder"
)

// Renderers selectable with --renderer.
const (
	RendererGORM = "gorm"
	RendererGoqu = "goqu"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema          string
	Entity          string
	Dialect         string
	Renderer        string
	CaseInsensitive bool
}

// AliasResult describes one joined association.
type AliasResult struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Entity string `json:"entity"`
}

// CompileResult is the output of the compile command.
type CompileResult struct {
	Entity    string        `json:"entity"`
	Predicate string        `json:"predicate,omitempty"`
	Order     []string      `json:"order,omitempty"`
	Top       *int          `json:"top,omitempty"`
	Skip      *int          `json:"skip,omitempty"`
	Aliases   []AliasResult `json:"aliases,omitempty"`
	SQL       string        `json:"sql,omitempty"`
	Args      []interface{} `json:"args,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query string against a schema",
		Long: `Compile a query string such as "$filter=Price gt 10&$orderby=Name"
for one entity of a YAML schema and print the predicate, ordering, paging
and joined aliases.

With --sql the SELECT statement for the given dialect (sqlite or postgres)
is rendered without touching a database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "YAML schema file")
	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity the query addresses")
	cmd.Flags().StringVar(&opts.Dialect, "sql", "", "render SQL for a dialect (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.Renderer, "renderer", RendererGORM, "SQL renderer (gorm|goqu)")
	cmd.Flags().BoolVarP(&opts.CaseInsensitive, "ignore-case", "i", false, "match member names ignoring case")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runCompile(opts *CompileOptions, raw string, cmd *cobra.Command) error {
	entities, err := odataql.LoadSchemaFile(opts.Schema, nil)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	registry := odataql.NewRegistry()
	if err := registry.Add(entities...); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	compilerOpts := []odataql.Option{
		odataql.WithLogger(opts.logger(cmd.ErrOrStderr())),
		odataql.WithCacheSize(0),
	}
	if opts.CaseInsensitive {
		compilerOpts = append(compilerOpts, odataql.WithCaseInsensitiveNames())
	}
	compiler, err := odataql.NewCompiler(registry, compilerOpts...)
	if err != nil {
		return err
	}

	q, err := compiler.Compile(cmd.Context(), opts.Entity, raw)
	if err != nil {
		return err
	}

	result := CompileResult{
		Entity: q.EntityName,
		Top:    q.Top,
		Skip:   q.Skip,
	}
	if q.Predicate != nil {
		result.Predicate = q.Predicate.String()
	}
	for _, o := range q.Order {
		result.Order = append(result.Order, o.String())
	}
	for _, a := range q.Aliases {
		result.Aliases = append(result.Aliases, AliasResult{Name: a.Name, Path: a.Path, Entity: a.Entity.EntityName})
	}

	if opts.Dialect != "" {
		result.SQL, result.Args, err = renderSQL(opts, q, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Encode(result)
	}
	writeCompileText(out, result)
	return nil
}

func renderSQL(opts *CompileOptions, q *odataql.Query, logOutput io.Writer) (string, []interface{}, error) {
	switch opts.Renderer {
	case RendererGoqu:
		return sqlbuilder.Render(q, opts.Dialect)
	case RendererGORM, "":
	default:
		return "", nil, fmt.Errorf("unknown renderer %q: must be %s or %s", opts.Renderer, RendererGORM, RendererGoqu)
	}

	db, err := dryRunDB(opts.Dialect)
	if err != nil {
		return "", nil, err
	}
	b, err := gormq.New(db, gormq.WithLogger(opts.logger(logOutput)))
	if err != nil {
		return "", nil, err
	}
	return b.Statement(q)
}

// dryRunDB opens a GORM handle that renders statements without connecting.
func dryRunDB(dialect string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	}
	switch strings.ToLower(dialect) {
	case "sqlite", "sqlite3":
		return gorm.Open(sqlite.Open(":memory:"), cfg)
	case "postgres", "postgresql":
		return gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), cfg)
	}
	return nil, fmt.Errorf("unknown dialect %q: must be sqlite or postgres", dialect)
}

func writeCompileText(out *OutputFormatter, r CompileResult) {
	out.Line("entity:    %s", r.Entity)
	if r.Predicate != "" {
		out.Line("predicate: %s", r.Predicate)
	}
	if len(r.Order) > 0 {
		out.Line("order:     %s", strings.Join(r.Order, ", "))
	}
	if r.Top != nil {
		out.Line("top:       %d", *r.Top)
	}
	if r.Skip != nil {
		out.Line("skip:      %d", *r.Skip)
	}
	for _, a := range r.Aliases {
		out.Line("alias:     %s = %s (%s)", a.Name, a.Path, a.Entity)
	}
	if r.SQL != "" {
		out.Line("sql:       %s", r.SQL)
		if len(r.Args) > 0 {
			out.Line("args:      %v", r.Args)
		}
	}
}
