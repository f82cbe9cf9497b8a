package filter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Options configures serialization. Server renders property paths under
// their server-side names; ExplicitDataType forces the data-type tag onto
// every literal, not just those constructed with one.
type Options struct {
	Server           bool
	ExplicitDataType bool
}

// Serialize renders a predicate as its canonical JSON value: the
// schema-agnostic document form that Normalize round-trips. ctx may be nil,
// a Schema, or a *Context carrying Options.
func Serialize(pred Predicate, ctx any) (any, error) {
	if pred == nil {
		return nil, nil
	}
	return serializer.Visit(pred, ctx)
}

// ToJSON renders a predicate as canonical JSON text.
func ToJSON(pred Predicate, ctx any) ([]byte, error) {
	v, err := Serialize(pred, ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

var serializer = &Backend[any]{Name: "serializer"}

// The handlers recurse through serializer.Visit, so assigning the table in
// the composite literal above would form an initialization cycle.
func init() {
	serializer.Handlers = map[Kind]func(Node, *Context) (any, error){
		KindPassthrough: func(n Node, _ *Context) (any, error) {
			return n.(*Passthrough).Text, nil
		},
		KindUnary:      serUnary,
		KindLogical:    serLogical,
		KindComparison: serComparison,
		KindQuantified: serQuantified,
		KindLiteral: func(n Node, c *Context) (any, error) {
			return serLiteral(n.(*Literal), c), nil
		},
		KindProperty: func(n Node, c *Context) (any, error) {
			return serPath(n.(*PropertyPath), c), nil
		},
		KindCall: func(n Node, c *Context) (any, error) {
			return callText(n.(*Call), c), nil
		},
	}
}

func serUnary(n Node, c *Context) (any, error) {
	u := n.(*Unary)
	operand, err := serializer.Visit(u.Operand, c)
	if err != nil {
		return nil, err
	}
	return map[string]any{string(u.Op): operand}, nil
}

func serLogical(n Node, c *Context) (any, error) {
	l := n.(*Logical)

	children := make([]any, len(l.Preds))
	for i, p := range l.Preds {
		v, err := serializer.Visit(p, c)
		if err != nil {
			return nil, err
		}
		children[i] = v
	}

	// A two-child conjunction canonicalizes to a single merged object when
	// the children are structurally compatible. Merge failure is not an
	// error; the explicit array form below carries the same meaning.
	if l.Op == OpAnd && len(children) == 2 {
		lm, lok := children[0].(map[string]any)
		rm, rok := children[1].(map[string]any)
		if lok && rok {
			if merged, ok := deepMerge(lm, rm); ok {
				return merged, nil
			}
		}
	}

	return map[string]any{string(l.Op): children}, nil
}

func serComparison(n Node, c *Context) (any, error) {
	cmp := n.(*Comparison)

	key, err := exprText(cmp.Left, c)
	if err != nil {
		return nil, err
	}

	right, err := serOperand(cmp.Right, c)
	if err != nil {
		return nil, err
	}

	// Implicit equality keeps the compact {property: value} shape.
	if cmp.Op == OpEqual {
		return map[string]any{key: right}, nil
	}
	return map[string]any{key: map[string]any{string(cmp.Op): right}}, nil
}

func serQuantified(n Node, c *Context) (any, error) {
	q := n.(*Quantified)

	key, err := exprText(q.Path, c)
	if err != nil {
		return nil, err
	}

	bodyCtx := &Context{Options: c.Options}
	if pp, ok := q.Path.(*PropertyPath); ok {
		bodyCtx.Schema = pp.target
	}
	body, err := serializer.Visit(q.Body, bodyCtx)
	if err != nil {
		return nil, err
	}

	return map[string]any{key: map[string]any{string(q.Op): body}}, nil
}

// serOperand renders a comparison operand. A property reference on the
// right side is wrapped so re-parsing does not mistake it for a literal.
func serOperand(e Expr, c *Context) (any, error) {
	switch e := e.(type) {
	case *PropertyPath:
		return map[string]any{"value": serPath(e, c), "isProperty": true}, nil
	case *Literal:
		return serLiteral(e, c), nil
	case *Call:
		return callText(e, c), nil
	}
	return nil, fmt.Errorf("unknown expression kind %s", e.Kind())
}

func serLiteral(lit *Literal, c *Context) any {
	v := encodeValue(lit.Value)
	if lit.Explicit || c.Options.ExplicitDataType {
		return map[string]any{"value": v, "dataType": string(lit.DataType)}
	}
	return v
}

func serPath(p *PropertyPath, c *Context) string {
	if c.Options.Server && c.Schema != nil {
		return c.Schema.ServerPath(p.Path)
	}
	return p.Path
}

// exprText renders the left side of a comparison or quantifier: a property
// path or the textual form of a function call.
func exprText(e Expr, c *Context) (string, error) {
	switch e := e.(type) {
	case *PropertyPath:
		return serPath(e, c), nil
	case *Call:
		return callText(e, c), nil
	}
	return "", fmt.Errorf("cannot key a serialized predicate on a %s expression", e.Kind())
}

// callText reconstructs the micro-parser's function-call grammar; this is
// its inverse and must round-trip.
func callText(call *Call, c *Context) string {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = argText(a, c)
	}
	return call.Name + "(" + strings.Join(args, ",") + ")"
}

func argText(e Expr, c *Context) string {
	switch e := e.(type) {
	case *PropertyPath:
		return serPath(e, c)
	case *Call:
		return callText(e, c)
	case *Literal:
		switch v := e.Value.(type) {
		case string:
			if strings.Contains(v, "'") {
				return `"` + v + `"`
			}
			return "'" + v + "'"
		case time.Time:
			return "'" + v.Format(time.RFC3339) + "'"
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func encodeValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return v
}

// deepMerge unions two JSON objects recursively. A key collision whose
// values are not both objects aborts the whole merge.
func deepMerge(l, r map[string]any) (map[string]any, bool) {
	out := make(map[string]any, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}
	for k, rv := range r {
		lv, exists := out[k]
		if !exists {
			out[k] = rv
			continue
		}
		lm, lok := lv.(map[string]any)
		rm, rok := rv.(map[string]any)
		if !lok || !rok {
			return nil, false
		}
		merged, ok := deepMerge(lm, rm)
		if !ok {
			return nil, false
		}
		out[k] = merged
	}
	return out, true
}

func render(n Node) string {
	var (
		v   any
		err error
	)
	if p, ok := n.(Predicate); ok {
		v, err = Serialize(p, nil)
	} else {
		v, err = serializer.Visit(n, nil)
	}
	if err != nil {
		return fmt.Sprintf("<invalid filter: %v>", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<invalid filter: %v>", err)
	}
	return string(b)
}

func (p *Passthrough) String() string { return render(p) }
func (p *Unary) String() string { return render(p) }
func (p *Logical) String() string { return render(p) }
func (p *Comparison) String() string { return render(p) }
func (p *Quantified) String() string { return render(p) }
func (e *Literal) String() string { return render(e) }
func (e *PropertyPath) String() string { return render(e) }
func (e *Call) String() string { return render(e) }
