// Package criteria defines the backend-neutral predicate and projection trees
// produced by code generation. Query backends translate them into their own
// query language; the node sets are closed so a backend can switch on them
// exhaustively.
package criteria

import (
	"strings"

	"github.com/nlstn/go-odataql/internal/literal"
)

// Op is a comparison or arithmetic operator.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	Add
	Sub
	Mul
	Div
	Mod
)

var opNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge", "add", "sub", "mul", "div", "mod"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "?"
	}
	return opNames[op]
}

// Projection is a value expression.
type Projection interface {
	// ResultType is the literal type the expression yields; Null when unknown.
	ResultType() literal.Type
	String() string
	projection()
}

// Constant is a literal value.
type Constant struct {
	Value literal.Value
}

// Property references a stored property of the root entity or of a joined
// alias. Path is set for members of a free-form component and names the
// member below Column.
type Property struct {
	Alias  string
	Name   string
	Column string
	Type   literal.Type
	Path   string
}

// Arithmetic combines two projections. Type is the declared result type.
type Arithmetic struct {
	Op          Op
	Left, Right Projection
	Type        literal.Type
}

// Negative flips the sign of its operand.
type Negative struct {
	Operand Projection
}

// Function applies a scalar function.
type Function struct {
	Name FunctionName
	Args []Projection
	Type literal.Type
}

// FunctionName identifies a scalar function.
type FunctionName int

const (
	Length FunctionName = iota
	IndexOf
	Replace
	Substring
	ToLower
	ToUpper
	Trim
	Concat
	Year
	Month
	Day
	Hour
	Minute
	Second
	Round
	Floor
	Ceiling
	Cast
)

var functionNames = [...]string{
	"length", "indexof", "replace", "substring", "tolower", "toupper", "trim", "concat",
	"year", "month", "day", "hour", "minute", "second", "round", "floor", "ceiling", "cast",
}

func (f FunctionName) String() string {
	if f < 0 || int(f) >= len(functionNames) {
		return "?"
	}
	return functionNames[f]
}

func (*Constant) projection()   {}
func (*Property) projection()   {}
func (*Arithmetic) projection() {}
func (*Negative) projection()   {}
func (*Function) projection()   {}

func (c *Constant) ResultType() literal.Type   { return c.Value.Type() }
func (p *Property) ResultType() literal.Type   { return p.Type }
func (a *Arithmetic) ResultType() literal.Type { return a.Type }
func (n *Negative) ResultType() literal.Type   { return n.Operand.ResultType() }
func (f *Function) ResultType() literal.Type   { return f.Type }

func (c *Constant) String() string { return c.Value.String() }

// QualifiedName returns the property name prefixed by its alias.
func (p *Property) QualifiedName() string {
	name := p.Name
	if p.Path != "" {
		name += "." + p.Path
	}
	if p.Alias == "" {
		return name
	}
	return p.Alias + "." + name
}

func (p *Property) String() string { return p.QualifiedName() }

func (a *Arithmetic) String() string {
	return "(" + a.Left.String() + " " + a.Op.String() + " " + a.Right.String() + ")"
}

func (n *Negative) String() string { return "-" + n.Operand.String() }

func (f *Function) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name.String() + "(" + strings.Join(args, ", ") + ")"
}

// Predicate is a boolean condition.
type Predicate interface {
	String() string
	predicate()
}

// Comparison relates two projections.
type Comparison struct {
	Op          Op
	Left, Right Projection
}

// IsNull holds when its operand is null.
type IsNull struct {
	Operand Projection
}

// IsNotNull holds when its operand is not null.
type IsNotNull struct {
	Operand Projection
}

// And holds when both operands hold.
type And struct {
	Left, Right Predicate
}

// Or holds when either operand holds.
type Or struct {
	Left, Right Predicate
}

// Not negates its operand.
type Not struct {
	Operand Predicate
}

// MatchMode selects where a Like pattern must occur.
type MatchMode int

const (
	Anywhere MatchMode = iota
	Start
	End
)

// Like matches a string operand against a literal pattern. Pattern is the
// raw text to find, without wildcards.
type Like struct {
	Operand Projection
	Pattern string
	Mode    MatchMode
}

// Exists holds when the collection joined as Alias has at least one element
// for the current row of Owner. The join itself is described by the alias
// table handed to the backend.
type Exists struct {
	Alias       string
	Owner       string
	Association string
}

// Truth is a constant predicate.
type Truth struct {
	Value bool
}

func (*Comparison) predicate() {}
func (*IsNull) predicate()     {}
func (*IsNotNull) predicate()  {}
func (*And) predicate()        {}
func (*Or) predicate()         {}
func (*Not) predicate()        {}
func (*Like) predicate()       {}
func (*Exists) predicate()     {}
func (*Truth) predicate()      {}

func (c *Comparison) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

func (n *IsNull) String() string    { return n.Operand.String() + " is null" }
func (n *IsNotNull) String() string { return n.Operand.String() + " is not null" }
func (a *And) String() string       { return "(" + a.Left.String() + " and " + a.Right.String() + ")" }
func (o *Or) String() string        { return "(" + o.Left.String() + " or " + o.Right.String() + ")" }
func (n *Not) String() string       { return "not " + n.Operand.String() }

func (l *Like) String() string {
	pattern := l.Pattern
	switch l.Mode {
	case Start:
		pattern += "*"
	case End:
		pattern = "*" + pattern
	default:
		pattern = "*" + pattern + "*"
	}
	return l.Operand.String() + " like '" + pattern + "'"
}

func (e *Exists) String() string { return "exists(" + e.Alias + ")" }

func (t *Truth) String() string {
	if t.Value {
		return "true"
	}
	return "false"
}

// Order is one ordering term.
type Order struct {
	Projection Projection
	Descending bool
}

func (o Order) String() string {
	if o.Descending {
		return o.Projection.String() + " desc"
	}
	return o.Projection.String() + " asc"
}

// Conjoin combines predicates with and, skipping nils. It returns nil when
// every input is nil.
func Conjoin(predicates ...Predicate) Predicate {
	var out Predicate
	for _, p := range predicates {
		switch {
		case p == nil:
		case out == nil:
			out = p
		default:
			out = &And{Left: out, Right: p}
		}
	}
	return out
}
