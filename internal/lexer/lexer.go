package lexer

import (
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// Lexer produces tokens one at a time from a source string. A Lexer is not
// resumable after an error; create a new one to start over.
type Lexer struct {
	input string
	pos   int
}

// New creates a lexer positioned at the start of input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize lexes the complete input.
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		token, ok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, token)
	}
}

// Next returns the next token. ok is false once the input is exhausted.
func (l *Lexer) Next() (token Token, ok bool, err error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{}, false, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case isNameStart(c):
		token, err = l.lexName()
	case isDigit(c):
		token, err = l.lexNumber()
	case c == '-':
		token, err = l.lexMinus()
	case c == '\'':
		var text string
		text, err = l.readQuoted()
		token = Token{Kind: Literal, Value: literal.NewString(text)}
	case c == '(' || c == ')' || c == ',' || c == '/' || c == ':':
		l.pos++
		token = Token{Kind: Syntax, Text: string(c)}
	default:
		return Token{}, false, queryerrors.Lex(start, "unexpected character '%c'", c)
	}
	if err != nil {
		return Token{}, false, err
	}

	token.Pos = start
	if token.Kind == Literal {
		token.Text = l.input[start:l.pos]
	}
	return token, true, nil
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

// lexName reads an identifier, recognizing the special literal names and the
// quoted literal prefixes (X'..', binary'..', datetime'..', guid'..', time'..').
func (l *Lexer) lexName() (Token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && isNamePart(l.input[l.pos]) {
		l.pos++
	}
	name := l.input[start:l.pos]

	if l.peekAt(0) == '\'' {
		if kind, ok := prefixedLiteral(name); ok {
			return l.lexPrefixed(kind, start)
		}
	}

	// Special names are matched case-sensitively; other spellings stay names.
	switch name {
	case "true":
		return Token{Kind: Literal, Value: literal.NewBool(true)}, nil
	case "false":
		return Token{Kind: Literal, Value: literal.NewBool(false)}, nil
	case "null":
		return Token{Kind: Literal, Value: literal.NullValue}, nil
	case "INF":
		return Token{Kind: Literal, Value: literal.NewDouble(math.Inf(1))}, nil
	case "Nan":
		return Token{Kind: Literal, Value: literal.NewDouble(math.NaN())}, nil
	}
	return Token{Kind: Name, Text: name}, nil
}

func prefixedLiteral(name string) (literal.Type, bool) {
	switch strings.ToLower(name) {
	case "x", "binary":
		return literal.Binary, true
	case "datetime", "datetimeoffset":
		return literal.DateTime, true
	case "guid":
		return literal.Guid, true
	case "time":
		return literal.Duration, true
	}
	return literal.Null, false
}

func (l *Lexer) lexPrefixed(kind literal.Type, start int) (Token, error) {
	payload, err := l.readQuoted()
	if err != nil {
		return Token{}, err
	}

	switch kind {
	case literal.Binary:
		if len(payload)%2 != 0 {
			return Token{}, queryerrors.Lex(start, "binary literal requires an even number of hex digits")
		}
		b, err := hex.DecodeString(payload)
		if err != nil {
			return Token{}, &queryerrors.LexError{Offset: start, Message: "malformed binary literal", Err: err}
		}
		return Token{Kind: Literal, Value: literal.NewBinary(b)}, nil
	case literal.DateTime:
		t, ok := literal.ParseDateTime(payload)
		if !ok {
			return Token{}, queryerrors.Lex(start, "malformed datetime literal '%s'", payload)
		}
		return Token{Kind: Literal, Value: literal.NewDateTime(t)}, nil
	case literal.Guid:
		g, err := uuid.Parse(payload)
		if err != nil {
			return Token{}, &queryerrors.LexError{Offset: start, Message: "malformed guid literal", Err: err}
		}
		return Token{Kind: Literal, Value: literal.NewGuid(g)}, nil
	default:
		d, err := literal.ParseDuration(payload)
		if err != nil {
			return Token{}, &queryerrors.LexError{Offset: start, Message: "malformed time literal", Err: err}
		}
		return Token{Kind: Literal, Value: literal.NewDuration(d)}, nil
	}
}

// readQuoted reads a single-quoted string starting at the current position.
// Two consecutive quotes inside the string denote one literal quote.
func (l *Lexer) readQuoted() (string, error) {
	start := l.pos
	l.pos++ // opening quote

	var result strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		l.pos++
		if c != '\'' {
			result.WriteByte(c)
			continue
		}
		if l.peekAt(0) == '\'' {
			result.WriteByte('\'')
			l.pos++
			continue
		}
		return result.String(), nil
	}
	return "", queryerrors.Lex(start, "unterminated string literal")
}

// lexMinus handles a leading '-': a signed number when a digit follows, -INF,
// or else the standalone minus syntax token.
func (l *Lexer) lexMinus() (Token, error) {
	if isDigit(l.peekAt(1)) {
		return l.lexNumber()
	}
	if strings.HasPrefix(l.input[l.pos+1:], "INF") && !isNamePart(l.peekAt(4)) {
		l.pos += 4
		return Token{Kind: Literal, Value: literal.NewDouble(math.Inf(-1))}, nil
	}
	l.pos++
	return Token{Kind: Syntax, Text: "-"}, nil
}

func (l *Lexer) lexNumber() (Token, error) {
	start := l.pos

	if l.input[l.pos] != '-' && l.startsWithYear() {
		if t, n, ok := literal.ScanDateTime(l.input[l.pos:]); ok {
			l.pos += n
			return Token{Kind: Literal, Value: literal.NewDateTime(t)}, nil
		}
	}

	if l.input[l.pos] == '-' {
		l.pos++
	}
	for isDigit(l.peekAt(0)) {
		l.pos++
	}

	fractional := false
	if l.peekAt(0) == '.' {
		fractional = true
		l.pos++
		for isDigit(l.peekAt(0)) {
			l.pos++
		}
	}

	exponent := false
	if c := l.peekAt(0); c == 'e' || c == 'E' {
		exponent = true
		l.pos++
		if l.peekAt(0) == '-' {
			l.pos++
		}
		if !isDigit(l.peekAt(0)) {
			return Token{}, queryerrors.Lex(l.pos, "expected digits in exponent")
		}
		for isDigit(l.peekAt(0)) {
			l.pos++
		}
	}

	text := l.input[start:l.pos]

	var suffix byte
	switch c := l.peekAt(0); c {
	case 'f', 'F', 'd', 'D', 'm', 'M', 'l', 'L':
		suffix = c | 0x20 // lower case
		l.pos++
	}

	value, err := numericValue(text, suffix, fractional, exponent)
	if err != nil {
		return Token{}, &queryerrors.LexError{Offset: start, Message: "invalid numeric literal '" + l.input[start:l.pos] + "'", Err: err}
	}
	return Token{Kind: Literal, Value: value}, nil
}

func (l *Lexer) startsWithYear() bool {
	for i := 0; i < 4; i++ {
		if !isDigit(l.peekAt(i)) {
			return false
		}
	}
	return l.peekAt(4) == '-'
}

var (
	errNumericOverflow   = errors.New("numeric overflow")
	errExponentForbidden = errors.New("exponent is not allowed for this literal type")
	errFractionForbidden = errors.New("fraction is not allowed for Long literals")
)

func numericValue(text string, suffix byte, fractional, exponent bool) (literal.Value, error) {
	switch suffix {
	case 'm':
		if exponent {
			return literal.Value{}, errExponentForbidden
		}
		d, err := decimal.NewFromString(strings.TrimSuffix(text, "."))
		if err != nil {
			return literal.Value{}, err
		}
		return literal.NewDecimal(d), nil
	case 'l':
		if exponent {
			return literal.Value{}, errExponentForbidden
		}
		if fractional {
			return literal.Value{}, errFractionForbidden
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return literal.Value{}, rangeOr(err)
		}
		return literal.NewLong(n), nil
	case 'f':
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return literal.Value{}, rangeOr(err)
		}
		return literal.NewSingle(float32(f)), nil
	case 'd':
		return parseDouble(text)
	}

	if fractional || exponent {
		return parseDouble(text)
	}
	if n, err := strconv.ParseInt(text, 10, 32); err == nil {
		return literal.NewInt(int32(n)), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return literal.Value{}, rangeOr(err)
	}
	return literal.NewLong(n), nil
}

func parseDouble(text string) (literal.Value, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return literal.Value{}, rangeOr(err)
	}
	return literal.NewDouble(f), nil
}

func rangeOr(err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return errNumericOverflow
	}
	return err
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '$'
}

func isNamePart(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
