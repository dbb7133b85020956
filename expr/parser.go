package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --- Participle grammar structs ---
// These define the $filter grammar using struct tags. Operator precedence
// is encoded in the rule nesting: or binds loosest, then and, then not,
// with comparisons and atoms innermost.

type filterRoot struct {
	Expr *orRule `parser:"@@"`
}

type orRule struct {
	First *andRule   `parser:"@@"`
	Rest  []*andRule `parser:"( 'or' @@ )*"`
}

type andRule struct {
	First *notRule   `parser:"@@"`
	Rest  []*notRule `parser:"( 'and' @@ )*"`
}

type notRule struct {
	Negated *notRule `parser:"  'not' @@"`
	Cmp     *cmpRule `parser:"| @@"`
}

type cmpRule struct {
	Left  *operandRule `parser:"@@"`
	Op    string       `parser:"( @('eq' | 'ne' | 'gt' | 'ge' | 'lt' | 'le')"`
	Right *operandRule `parser:"  @@ )?"`
}

type operandRule struct {
	Group *orRule   `parser:"  '(' @@ ')'"`
	Func  *funcRule `parser:"| @@"`
	Str   *string   `parser:"| @String"`
	Num   *string   `parser:"| @Number"`
	Path  []string  `parser:"| @Ident ( '/' @Ident )*"`
}

type funcRule struct {
	Name string    `parser:"@Ident '('"`
	Args []*orRule `parser:"( @@ ( ',' @@ )* )? ')'"`
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `-?[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[(),/]`},
})

// --- Parser construction and entry point ---

// Parse parses raw $filter text into an expression tree. The tree can be
// recombined with built expressions and compiled back into canonical text.
func Parse(input string) (Expr, error) {
	parser, err := participle.Build[filterRoot](
		participle.Lexer(filterLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("build parser: %w", err)
	}

	root, err := parser.ParseString("$filter", input)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}

	return convertOr(root.Expr)
}

// --- Grammar to AST conversion ---

func convertOr(r *orRule) (Expr, error) {
	first, err := convertAnd(r.First)
	if err != nil {
		return nil, err
	}
	if len(r.Rest) == 0 {
		return first, nil
	}
	operands := []Expr{first}
	for _, rest := range r.Rest {
		e, err := convertAnd(rest)
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}
	return Logical{Op: "or", Operands: operands}, nil
}

func convertAnd(r *andRule) (Expr, error) {
	first, err := convertNot(r.First)
	if err != nil {
		return nil, err
	}
	if len(r.Rest) == 0 {
		return first, nil
	}
	operands := []Expr{first}
	for _, rest := range r.Rest {
		e, err := convertNot(rest)
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}
	return Logical{Op: "and", Operands: operands}, nil
}

func convertNot(r *notRule) (Expr, error) {
	if r.Negated != nil {
		inner, err := convertNot(r.Negated)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return convertCmp(r.Cmp)
}

func convertCmp(r *cmpRule) (Expr, error) {
	left, err := convertOperand(r.Left)
	if err != nil {
		return nil, err
	}
	if r.Op == "" {
		return left, nil
	}
	right, err := convertOperand(r.Right)
	if err != nil {
		return nil, err
	}
	return Comparison{Op: r.Op, Left: left, Right: right}, nil
}

func convertOperand(r *operandRule) (Expr, error) {
	switch {
	case r.Group != nil:
		return convertOr(r.Group)
	case r.Func != nil:
		args := make([]Expr, 0, len(r.Func.Args))
		for _, a := range r.Func.Args {
			e, err := convertOr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return FunctionCall{Name: r.Func.Name, Args: args}, nil
	case r.Str != nil:
		return Literal{Value: unquote(*r.Str)}, nil
	case r.Num != nil:
		return convertNumber(*r.Num)
	case len(r.Path) > 0:
		if len(r.Path) == 1 {
			switch r.Path[0] {
			case "true":
				return Literal{Value: true}, nil
			case "false":
				return Literal{Value: false}, nil
			case "null":
				return Literal{Value: nil}, nil
			}
		}
		return PropertyRef{Path: r.Path}, nil
	}
	return nil, fmt.Errorf("parse filter: empty operand")
}

func convertNumber(text string) (Expr, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse filter: bad number %q: %w", text, err)
		}
		return Literal{Value: f}, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse filter: bad number %q: %w", text, err)
	}
	return Literal{Value: i}, nil
}

// unquote strips the surrounding single quotes from a string token and
// collapses doubled quotes.
func unquote(token string) string {
	body := token[1 : len(token)-1]
	return strings.ReplaceAll(body, "''", "'")
}
