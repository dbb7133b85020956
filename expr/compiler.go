package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// precedence levels used to decide parenthesization. Higher binds tighter.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCmp
	precAtom
)

// Compiler renders filter ASTs into canonical $filter text.
type Compiler struct{}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile renders the expression as canonical $filter text.
func (c *Compiler) Compile(e Expr) (string, error) {
	var sb strings.Builder
	if err := c.render(&sb, e, precOr); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// render writes e into sb, wrapping it in parentheses when its precedence
// is lower than that of the enclosing context.
func (c *Compiler) render(sb *strings.Builder, e Expr, ctx int) error {
	prec, err := c.precedence(e)
	if err != nil {
		return err
	}
	if prec < ctx {
		sb.WriteByte('(')
	}
	switch n := e.(type) {
	case PropertyRef:
		if len(n.Path) == 0 {
			return fmt.Errorf("expr: empty property path")
		}
		sb.WriteString(strings.Join(n.Path, "/"))
	case Literal:
		s, err := FormatValue(n.Value)
		if err != nil {
			return err
		}
		sb.WriteString(s)
	case Comparison:
		if !validComparisonOp(n.Op) {
			return fmt.Errorf("expr: unknown comparison operator %q", n.Op)
		}
		if err := c.render(sb, n.Left, precAtom); err != nil {
			return err
		}
		sb.WriteByte(' ')
		sb.WriteString(n.Op)
		sb.WriteByte(' ')
		if err := c.render(sb, n.Right, precAtom); err != nil {
			return err
		}
	case Logical:
		if n.Op != "and" && n.Op != "or" {
			return fmt.Errorf("expr: unknown logical operator %q", n.Op)
		}
		if len(n.Operands) == 0 {
			return fmt.Errorf("expr: logical %s with no operands", n.Op)
		}
		inner := precAnd
		if n.Op == "and" {
			inner = precNot
		}
		for i, op := range n.Operands {
			if i > 0 {
				sb.WriteByte(' ')
				sb.WriteString(n.Op)
				sb.WriteByte(' ')
			}
			if err := c.render(sb, op, inner); err != nil {
				return err
			}
		}
	case Not:
		sb.WriteString("not ")
		if err := c.render(sb, n.Inner, precAtom); err != nil {
			return err
		}
	case FunctionCall:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := c.render(sb, arg, precOr); err != nil {
				return err
			}
		}
		sb.WriteByte(')')
	default:
		return fmt.Errorf("expr: unsupported node %T", e)
	}
	if prec < ctx {
		sb.WriteByte(')')
	}
	return nil
}

func (c *Compiler) precedence(e Expr) (int, error) {
	switch n := e.(type) {
	case PropertyRef, Literal, FunctionCall:
		return precAtom, nil
	case Comparison:
		return precCmp, nil
	case Not:
		return precNot, nil
	case Logical:
		if n.Op == "and" {
			return precAnd, nil
		}
		return precOr, nil
	default:
		return 0, fmt.Errorf("expr: unsupported node %T", e)
	}
}

func validComparisonOp(op string) bool {
	switch op {
	case "eq", "ne", "gt", "ge", "lt", "le":
		return true
	}
	return false
}

// FormatValue renders a Go value as an OData literal. Strings are quoted
// with single quotes and embedded quotes doubled, nil renders as null.
func FormatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'", nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339), nil
	case uuid.UUID:
		return t.String(), nil
	default:
		return "", fmt.Errorf("expr: cannot format %T as a literal", v)
	}
}
