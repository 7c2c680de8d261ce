// Package ast defines the immutable expression tree produced by the parser and
// rewritten by the normalizer, resolver and inverter.
package ast

import (
	"strings"

	"github.com/nlstn/go-odataql/internal/literal"
)

// Expr is a node in the expression tree. The set of implementations is closed.
type Expr interface {
	// IsBoolean reports whether the node statically yields a boolean value.
	IsBoolean() bool
	// String renders the node in query syntax.
	String() string
	expr()
}

// LiteralExpr is a typed constant.
type LiteralExpr struct {
	Value literal.Value
}

// MemberKind distinguishes ordinary member references from members used in a
// boolean position.
type MemberKind int

const (
	NormalMember MemberKind = iota
	BooleanMember
)

// Segment is one step of a member path. Key is only set by path-mode parsing
// for segments written as Name(key).
type Segment struct {
	Name string
	Key  *literal.Value
}

// MemberExpr is an unresolved member path such as Child/Name.
type MemberExpr struct {
	Kind MemberKind
	Path []Segment
}

// ResolvedMemberExpr is a member path flattened to a single dotted name
// ("t1.Name") and bound to a scalar property.
type ResolvedMemberExpr struct {
	Kind MemberKind
	// Name is the flattened name, alias-qualified when the owner was joined.
	Name string
	// Alias is the join alias of the owning entity, empty for the root.
	Alias string
	// Property is the property name on the owning entity.
	Property string
	// Column is the storage column; empty when unknown.
	Column string
	// Type is the property's literal type; Null when unknown.
	Type literal.Type
	// DynamicPath is the dotted path below a free-form component; Property
	// and Column then name the component itself.
	DynamicPath string
}

// AliasedMemberExpr is a member path that ends at an associated entity or
// collection rather than a scalar property.
type AliasedMemberExpr struct {
	// Alias is the alias assigned to the target entity.
	Alias string
	// Association is the navigation property on the owner.
	Association string
	// Owner is the alias of the owning entity, empty for the root.
	Owner string
	// OwnerKey is the identifier property of the owning entity.
	OwnerKey string
	// Entity names the target entity type.
	Entity string
	// Key and KeyColumn name the identifier of the target entity.
	Key       string
	KeyColumn string
	// Collection marks to-many associations.
	Collection bool
}

// GroupExpr is a parenthesized expression.
type GroupExpr struct {
	Inner Expr
}

// UnaryExpr applies Not or Negate to its operand.
type UnaryExpr struct {
	Op      Operator
	Operand Expr
}

// LogicalExpr is an and/or combination of two boolean operands.
type LogicalExpr struct {
	Op          Operator
	Left, Right Expr
}

// ComparisonExpr compares two operands.
type ComparisonExpr struct {
	Op          Operator
	Left, Right Expr
}

// ArithmeticExpr combines two numeric operands.
type ArithmeticExpr struct {
	Op          Operator
	Left, Right Expr
}

// MethodCallExpr invokes a registered method. For any/all, Args[0] is the
// collection and the optional Args[1] is a *LambdaExpr.
type MethodCallExpr struct {
	Method *Method
	Args   []Expr
}

// LambdaExpr binds Param over Body; it only appears as a quantifier argument.
type LambdaExpr struct {
	Param string
	Body  Expr
}

func (*LiteralExpr) expr()        {}
func (*MemberExpr) expr()         {}
func (*ResolvedMemberExpr) expr() {}
func (*AliasedMemberExpr) expr()  {}
func (*GroupExpr) expr()          {}
func (*UnaryExpr) expr()          {}
func (*LogicalExpr) expr()        {}
func (*ComparisonExpr) expr()     {}
func (*ArithmeticExpr) expr()     {}
func (*MethodCallExpr) expr()     {}
func (*LambdaExpr) expr()         {}

func (e *LiteralExpr) IsBoolean() bool        { return e.Value.Type() == literal.Boolean }
func (e *MemberExpr) IsBoolean() bool         { return e.Kind == BooleanMember }
func (e *ResolvedMemberExpr) IsBoolean() bool { return e.Kind == BooleanMember }
func (e *AliasedMemberExpr) IsBoolean() bool  { return false }
func (e *GroupExpr) IsBoolean() bool          { return e.Inner.IsBoolean() }
func (e *UnaryExpr) IsBoolean() bool          { return e.Op == Not }
func (e *LogicalExpr) IsBoolean() bool        { return true }
func (e *ComparisonExpr) IsBoolean() bool     { return true }
func (e *ArithmeticExpr) IsBoolean() bool     { return false }
func (e *MethodCallExpr) IsBoolean() bool     { return e.Method.Boolean }
func (e *LambdaExpr) IsBoolean() bool         { return e.Body.IsBoolean() }

// NewLiteral wraps v in a literal node.
func NewLiteral(v literal.Value) *LiteralExpr {
	return &LiteralExpr{Value: v}
}

// NewMember builds a member expression from plain segment names.
func NewMember(names ...string) *MemberExpr {
	path := make([]Segment, len(names))
	for i, name := range names {
		path[i] = Segment{Name: name}
	}
	return &MemberExpr{Path: path}
}

// Names returns the segment names of the path.
func (e *MemberExpr) Names() []string {
	names := make([]string, len(e.Path))
	for i, s := range e.Path {
		names[i] = s.Name
	}
	return names
}

// DottedName joins the segment names with '.'.
func (e *MemberExpr) DottedName() string {
	return strings.Join(e.Names(), ".")
}

func (e *LiteralExpr) String() string { return e.Value.String() }

func (e *MemberExpr) String() string {
	var b strings.Builder
	for i, s := range e.Path {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(s.Name)
		if s.Key != nil {
			b.WriteByte('(')
			b.WriteString(s.Key.String())
			b.WriteByte(')')
		}
	}
	return b.String()
}

func (e *ResolvedMemberExpr) String() string { return e.Name }

func (e *AliasedMemberExpr) String() string { return e.Alias }

func (e *GroupExpr) String() string { return "(" + e.Inner.String() + ")" }

func (e *UnaryExpr) String() string {
	if e.Op == Not {
		return "not " + e.Operand.String()
	}
	return "-" + e.Operand.String()
}

func (e *LogicalExpr) String() string    { return binaryString(e.Op, e.Left, e.Right) }
func (e *ComparisonExpr) String() string { return binaryString(e.Op, e.Left, e.Right) }
func (e *ArithmeticExpr) String() string { return binaryString(e.Op, e.Left, e.Right) }

func binaryString(op Operator, left, right Expr) string {
	return left.String() + " " + op.String() + " " + right.String()
}

func (e *MethodCallExpr) String() string {
	args := e.Args
	prefix := ""
	if e.Method.Quantifier && len(args) > 0 {
		prefix = args[0].String() + "/"
		args = args[1:]
	}
	rendered := make([]string, len(args))
	for i, a := range args {
		rendered[i] = a.String()
	}
	return prefix + e.Method.Name + "(" + strings.Join(rendered, ", ") + ")"
}

func (e *LambdaExpr) String() string { return e.Param + ": " + e.Body.String() }
