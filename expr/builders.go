package expr

import "strings"

// Field creates a PropertyRef from a path string; segments are separated
// with '/' ("Category/Name").
func Field(path string) PropertyRef {
	return PropertyRef{Path: strings.Split(path, "/")}
}

// Lit wraps a Go value as a Literal.
func Lit(value any) Literal {
	return Literal{Value: value}
}

// asExpr lets builder arguments be raw Go values, property paths are
// expected to be passed through Field explicitly.
func asExpr(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return Literal{Value: v}
}

// Eq creates an equality comparison: field eq value.
func Eq(field string, value any) Expr {
	return Comparison{Op: "eq", Left: Field(field), Right: asExpr(value)}
}

// Ne creates a not-equal comparison: field ne value.
func Ne(field string, value any) Expr {
	return Comparison{Op: "ne", Left: Field(field), Right: asExpr(value)}
}

// Gt creates a greater-than comparison: field gt value.
func Gt(field string, value any) Expr {
	return Comparison{Op: "gt", Left: Field(field), Right: asExpr(value)}
}

// Ge creates a greater-or-equal comparison: field ge value.
func Ge(field string, value any) Expr {
	return Comparison{Op: "ge", Left: Field(field), Right: asExpr(value)}
}

// Lt creates a less-than comparison: field lt value.
func Lt(field string, value any) Expr {
	return Comparison{Op: "lt", Left: Field(field), Right: asExpr(value)}
}

// Le creates a less-or-equal comparison: field le value.
func Le(field string, value any) Expr {
	return Comparison{Op: "le", Left: Field(field), Right: asExpr(value)}
}

// And combines expressions with logical AND, flattening nested ANDs.
func And(exprs ...Expr) Expr {
	return combine("and", exprs)
}

// Or combines expressions with logical OR, flattening nested ORs.
func Or(exprs ...Expr) Expr {
	return combine("or", exprs)
}

func combine(op string, exprs []Expr) Expr {
	var flat []Expr
	for _, e := range exprs {
		if l, ok := e.(Logical); ok && l.Op == op {
			flat = append(flat, l.Operands...)
		} else {
			flat = append(flat, e)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Logical{Op: op, Operands: flat}
}

// Negate wraps an expression in a logical NOT.
func Negate(e Expr) Expr {
	return Not{Inner: e}
}

// Contains creates a contains(field,'substring') function call.
func Contains(field, substring string) Expr {
	return FunctionCall{Name: "contains", Args: []Expr{Field(field), Lit(substring)}}
}

// Startswith creates a startswith(field,'prefix') function call.
func Startswith(field, prefix string) Expr {
	return FunctionCall{Name: "startswith", Args: []Expr{Field(field), Lit(prefix)}}
}

// Endswith creates an endswith(field,'suffix') function call.
func Endswith(field, suffix string) Expr {
	return FunctionCall{Name: "endswith", Args: []Expr{Field(field), Lit(suffix)}}
}

// Call creates an arbitrary canonical function call.
func Call(name string, args ...Expr) Expr {
	return FunctionCall{Name: name, Args: args}
}
