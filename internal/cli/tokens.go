package cli

import (
	"github.com/spf13/cobra"

	"github.com/nlstn/go-odataql/internal/lexer"
)

// TokenResult is the JSON form of one token.
type TokenResult struct {
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
	Pos   int    `json:"pos"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tokens <expression>",
		Short:         "Print the token stream of an expression",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTokens(opts *RootOptions, expr string, cmd *cobra.Command) error {
	tokens, err := lexer.Tokenize(expr)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		results := make([]TokenResult, len(tokens))
		for i, t := range tokens {
			results[i] = TokenResult{Kind: t.Kind.String(), Text: t.Text, Pos: t.Pos}
			if t.Kind == lexer.Literal {
				results[i].Type = t.Value.Type().String()
				results[i].Value = t.Value.String()
			}
		}
		return out.Encode(results)
	}

	for _, t := range tokens {
		out.Line("%d\t%s", t.Pos, t)
	}
	return nil
}
