package ast

// Operator identifies a unary or binary operator. The declaration order is
// significant: operators are grouped by binding strength, weakest first, and
// Tier reports the group.
type Operator int

const (
	Or Operator = iota
	And
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Mul
	Div
	Mod
	Add
	Sub
	Not
	Negate
)

var operatorNames = [...]string{
	Or:     "or",
	And:    "and",
	Eq:     "eq",
	Ne:     "ne",
	Lt:     "lt",
	Le:     "le",
	Gt:     "gt",
	Ge:     "ge",
	Mul:    "mul",
	Div:    "div",
	Mod:    "mod",
	Add:    "add",
	Sub:    "sub",
	Not:    "not",
	Negate: "-",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorNames) {
		return "?"
	}
	return operatorNames[op]
}

// Tier returns the binding strength of op; a higher tier binds tighter.
// Additive operators bind tighter than multiplicative ones, so
// "1 mul 2 add 3" groups as "1 mul (2 add 3)".
func (op Operator) Tier() int {
	switch {
	case op == Or:
		return 0
	case op == And:
		return 1
	case op == Eq || op == Ne:
		return 2
	case op >= Lt && op <= Ge:
		return 3
	case op >= Mul && op <= Mod:
		return 4
	case op == Add || op == Sub:
		return 5
	}
	return 6
}

// IsLogical reports whether op is and/or.
func (op Operator) IsLogical() bool { return op == Or || op == And }

// IsComparison reports whether op is one of eq, ne, lt, le, gt, ge.
func (op Operator) IsComparison() bool { return op >= Eq && op <= Ge }

// IsArithmetic reports whether op is one of add, sub, mul, div, mod.
func (op Operator) IsArithmetic() bool { return op >= Mul && op <= Sub }

// Complement returns the comparison operator that holds exactly when op does
// not.
func (op Operator) Complement() Operator {
	switch op {
	case Eq:
		return Ne
	case Ne:
		return Eq
	case Lt:
		return Ge
	case Ge:
		return Lt
	case Gt:
		return Le
	case Le:
		return Gt
	case And:
		return Or
	case Or:
		return And
	}
	return op
}

var binaryOperators = map[string]Operator{
	"or":  Or,
	"and": And,
	"eq":  Eq,
	"ne":  Ne,
	"lt":  Lt,
	"le":  Le,
	"gt":  Gt,
	"ge":  Ge,
	"add": Add,
	"sub": Sub,
	"mul": Mul,
	"div": Div,
	"mod": Mod,
}

// LookupBinary maps a keyword to its binary operator.
func LookupBinary(keyword string) (Operator, bool) {
	op, ok := binaryOperators[keyword]
	return op, ok
}

// IsKeyword reports whether name is reserved by the operator grammar.
func IsKeyword(name string) bool {
	if _, ok := binaryOperators[name]; ok {
		return true
	}
	return name == "not"
}
