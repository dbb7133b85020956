// Package expr defines the Abstract Syntax Tree (AST) for OData $filter
// expressions.
//
// It decouples filter construction from string formatting: the query layer
// builds trees programmatically through the builder helpers, raw filter
// text from callers is parsed into the same trees, and the Compiler renders
// both into canonical $filter syntax.
package expr

// Expr is the marker interface for all filter AST nodes.
type Expr interface {
	expr()
}

// PropertyRef references an entity property, optionally through a
// navigation path ("Category/Name").
type PropertyRef struct {
	// Path holds the property path segments, joined with '/' on output.
	Path []string
}

func (PropertyRef) expr() {}

// Literal represents a literal value: string, int64, float64, bool,
// time.Time, uuid.UUID, or nil for the null keyword.
type Literal struct {
	// Value is the literal's Go value.
	Value any
}

func (Literal) expr() {}

// Comparison is a binary comparison using an OData operator
// (eq, ne, gt, ge, lt, le).
type Comparison struct {
	// Op is the OData comparison operator.
	Op string
	// Left is the left operand.
	Left Expr
	// Right is the right operand.
	Right Expr
}

func (Comparison) expr() {}

// Logical combines operands with "and" or "or". Operands of the same
// operator are kept flattened.
type Logical struct {
	// Op is "and" or "or".
	Op string
	// Operands are the combined expressions, at least two.
	Operands []Expr
}

func (Logical) expr() {}

// Not negates an expression.
type Not struct {
	// Inner is the negated expression.
	Inner Expr
}

func (Not) expr() {}

// FunctionCall is an OData canonical function application such as
// contains(Name,'Kettle') or year(Created).
type FunctionCall struct {
	// Name is the lowercase function name.
	Name string
	// Args are the function arguments in order.
	Args []Expr
}

func (FunctionCall) expr() {}
