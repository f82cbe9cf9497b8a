package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The micro-parser understands a constrained function-call grammar embedded
// in literal strings: a bare literal-or-property token, or nested calls of
// the fixed filter functions, e.g. "substring(toupper(companyName),1,2)".
//
// Nested parentheses are linearized with a placeholder pass instead of a
// full grammar: the innermost parenthesized groups are repeatedly replaced
// by a delimiter token referencing the recorded group text, until no
// parentheses remain.

// exprDelim marks recorded group references. The macron is not meaningful
// in any supported expression text.
const exprDelim = "¯"

var (
	rxGroup      = regexp.MustCompile(`\(([^()]*)\)`)
	rxSingleArgs = regexp.MustCompile(`('[^']*'|[^,]+)`)
	rxDoubleArgs = regexp.MustCompile(`("[^"]*"|[^,]+)`)
	rxIdentifier = regexp.MustCompile(`(?i)^[a-z_][\w.$]*$`)
)

// parseContext carries the type-inference context of one parse: which side
// of a comparison the text sits on, the target data type hinted by the
// other side, and whether literal inference from the hint is suppressed
// (inside function arguments).
type parseContext struct {
	isRHS    bool
	dataType DataType
	noInfer  bool
}

// parseExpr parses expression text into an Expr. A nil, nil return is a
// soft failure (unresolvable function syntax); the caller decides whether
// that is a fallback or an error.
func parseExpr(source string, ctx parseContext) (Expr, error) {
	p := &textParser{}
	return p.expr(p.linearize(source), ctx)
}

type textParser struct {
	groups []string
}

// linearize strips nested parentheses by repeatedly replacing innermost
// groups with a delimiter token referencing the recorded group text.
func (p *textParser) linearize(source string) string {
	txt := source
	for {
		replaced := false
		txt = rxGroup.ReplaceAllStringFunc(txt, func(m string) string {
			replaced = true
			p.groups = append(p.groups, m[1:len(m)-1])
			return exprDelim + strconv.Itoa(len(p.groups)-1)
		})
		if !replaced {
			return txt
		}
	}
}

func (p *textParser) expr(txt string, ctx parseContext) (Expr, error) {
	parts := strings.Split(txt, exprDelim)
	if len(parts) == 1 {
		return p.literalOrProperty(strings.TrimSpace(txt), ctx)
	}

	return p.call(parts, ctx)
}

// call builds a function-call expression from the linearized parts: the
// text before the first placeholder is the function name, the referenced
// group is its argument list.
func (p *textParser) call(parts []string, ctx parseContext) (Expr, error) {
	name := strings.ToLower(strings.TrimSpace(parts[0]))
	fn, ok := fnTable[name]
	if !ok {
		return nil, nil
	}

	idx, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || idx >= len(p.groups) {
		return nil, nil
	}

	// Function arguments are parsed without the outer data-type hint so
	// that, e.g., the 1 and 2 in substring(companyName,1,2) are not
	// coerced to the comparison's target type.
	argCtx := parseContext{isRHS: ctx.isRHS, noInfer: true}

	var args []Expr
	for _, argSrc := range splitArgs(p.groups[idx]) {
		arg, err := p.expr(strings.TrimSpace(argSrc), argCtx)
		if err != nil {
			return nil, err
		}
		if arg == nil {
			return nil, nil
		}
		args = append(args, arg)
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("function '%s' does not take %d arguments", name, len(args))
	}

	return &Call{Name: name, Args: args, fn: fn}, nil
}

// splitArgs splits an argument list on commas that are not inside quoted
// substrings. Two alternate patterns are used, chosen by whether the text
// contains a single quote, to keep quoted commas intact.
func splitArgs(src string) []string {
	rx := rxDoubleArgs
	if strings.Contains(src, "'") {
		rx = rxSingleArgs
	}
	return rx.FindAllString(src, -1)
}

// literalOrProperty resolves a bare token. A matching pair of leading and
// trailing quote characters denotes a string literal; otherwise the side of
// the comparison decides: the left side names properties, the right side
// holds values. Schema resolution happens during validation, not here.
func (p *textParser) literalOrProperty(txt string, ctx parseContext) (Expr, error) {
	if txt == "" {
		return nil, nil
	}

	first := txt[0]
	if (first == '\'' || first == '"') && len(txt) > 1 && txt[len(txt)-1] == first {
		return p.quotedLiteral(txt[1:len(txt)-1], ctx)
	}

	if ctx.isRHS {
		return p.bareLiteral(txt, ctx)
	}

	if !rxIdentifier.MatchString(txt) {
		// Inside call arguments a bare token is a value either way, e.g.
		// the 1 and 2 in substring(companyName,1,2).
		if ctx.noInfer {
			return p.bareLiteral(txt, ctx)
		}
		return nil, nil
	}

	return &PropertyPath{Path: txt}, nil
}

func (p *textParser) quotedLiteral(unquoted string, ctx parseContext) (Expr, error) {
	if ctx.dataType != TypeUnknown && ctx.dataType != TypeString && !ctx.noInfer {
		v, err := ParseValue(unquoted, ctx.dataType)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: v, DataType: ctx.dataType}, nil
	}
	return &Literal{Value: unquoted, DataType: TypeString}, nil
}

func (p *textParser) bareLiteral(txt string, ctx parseContext) (Expr, error) {
	if ctx.dataType != TypeUnknown && !ctx.noInfer {
		v, err := ParseValue(txt, ctx.dataType)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: v, DataType: ctx.dataType}, nil
	}

	// A bare token keeps its textual value; only the data-type hint from
	// the other side of a comparison coerces it (above). GUID-shaped
	// tokens are tagged so they are not mistaken for plain strings.
	return &Literal{Value: txt, DataType: InferType(txt)}, nil
}
