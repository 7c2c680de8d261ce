// Package lexer turns a query expression into a lazily produced stream of
// tokens.
package lexer

import (
	"fmt"

	"github.com/nlstn/go-odataql/internal/literal"
)

// Kind is the kind of a token.
type Kind int

const (
	// Name is an identifier or keyword.
	Name Kind = iota
	// Literal is a typed literal value.
	Literal
	// Syntax is a single punctuation character.
	Syntax
)

func (k Kind) String() string {
	switch k {
	case Name:
		return "Name"
	case Literal:
		return "Literal"
	case Syntax:
		return "Syntax"
	}
	return "Unknown"
}

// Token is a single immutable token.
type Token struct {
	Kind Kind
	// Text is the identifier for Name tokens, the punctuation character for
	// Syntax tokens and the raw source text for Literal tokens.
	Text string
	// Value is set for Literal tokens only.
	Value literal.Value
	// Pos is the byte offset of the token in the source.
	Pos int
}

// IsSyntax reports whether t is the syntax token c.
func (t Token) IsSyntax(c byte) bool {
	return t.Kind == Syntax && len(t.Text) == 1 && t.Text[0] == c
}

// IsName reports whether t is a Name token with exactly the given text.
func (t Token) IsName(name string) bool {
	return t.Kind == Name && t.Text == name
}

func (t Token) String() string {
	switch t.Kind {
	case Literal:
		return fmt.Sprintf("Literal(%s %s)", t.Value.Type(), t.Value)
	case Syntax:
		return fmt.Sprintf("Syntax(%s)", t.Text)
	}
	return fmt.Sprintf("Name(%s)", t.Text)
}
