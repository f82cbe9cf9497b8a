package filter

import (
	"fmt"
	"reflect"
	"strings"
)

// evalFn is a compiled expression: a pure function of the record.
type evalFn func(record any) (any, error)

// Compile compiles a validated predicate into a boolean function of the
// record. ctx may be nil, a Schema, or a *Context (to supply a custom
// Getter). A nil predicate is absent and matches every record.
func Compile(pred Predicate, ctx any) (func(record any) (bool, error), error) {
	if pred == nil {
		return func(any) (bool, error) { return true, nil }, nil
	}

	fn, err := evaluator.Visit(pred, ctx)
	if err != nil {
		return nil, err
	}

	return func(record any) (bool, error) {
		v, err := fn(record)
		if err != nil {
			return false, err
		}
		return toBool(v)
	}, nil
}

// evaluator compiles each node kind into a closure bottom-up; no handler
// touches global state, so compiled functions are safe for concurrent use.
var evaluator = &Backend[evalFn]{Name: "evaluator"}

// The handlers recurse through evaluator.Visit, so assigning the table in
// the composite literal above would form an initialization cycle.
func init() {
	evaluator.Handlers = map[Kind]func(Node, *Context) (evalFn, error){
		KindPassthrough: evalPassthrough,
		KindUnary:       evalUnary,
		KindLogical:     evalLogical,
		KindComparison:  evalComparison,
		KindQuantified:  evalQuantified,
		KindLiteral:     evalLiteral,
		KindProperty:    evalProperty,
		KindCall:        evalCall,
	}
}

func evalPassthrough(n Node, _ *Context) (evalFn, error) {
	return nil, fmt.Errorf("the passthrough filter '%s' has no local evaluation semantics", n.(*Passthrough).Text)
}

func evalUnary(n Node, c *Context) (evalFn, error) {
	u := n.(*Unary)

	operand, err := evaluator.Visit(u.Operand, c)
	if err != nil {
		return nil, err
	}

	return func(record any) (any, error) {
		v, err := operand(record)
		if err != nil {
			return nil, err
		}
		b, err := toBool(v)
		return !b, err
	}, nil
}

func evalLogical(n Node, c *Context) (evalFn, error) {
	l := n.(*Logical)

	children := make([]evalFn, len(l.Preds))
	for i, p := range l.Preds {
		fn, err := evaluator.Visit(p, c)
		if err != nil {
			return nil, err
		}
		children[i] = fn
	}

	// "and" folds with identity true, "or" with identity false. There are
	// no side effects, so stopping early cannot change the outcome.
	stop := l.Op == OpOr

	return func(record any) (any, error) {
		for _, fn := range children {
			v, err := fn(record)
			if err != nil {
				return nil, err
			}
			b, err := toBool(v)
			if err != nil {
				return nil, err
			}
			if b == stop {
				return stop, nil
			}
		}
		return !stop, nil
	}, nil
}

func evalComparison(n Node, c *Context) (evalFn, error) {
	cmp := n.(*Comparison)

	left, err := evaluator.Visit(cmp.Left, c)
	if err != nil {
		return nil, err
	}
	right, err := evaluator.Visit(cmp.Right, c)
	if err != nil {
		return nil, err
	}

	dt := exprType(cmp.Left)
	if dt == TypeUnknown {
		dt = exprType(cmp.Right)
	}

	opts := DefaultStringOptions
	if c.Schema != nil {
		opts = c.Schema.StringOptions()
	}

	compare, err := comparator(cmp.Op, dt, opts)
	if err != nil {
		return nil, err
	}

	return func(record any) (any, error) {
		lv, err := left(record)
		if err != nil {
			return nil, err
		}
		rv, err := right(record)
		if err != nil {
			return nil, err
		}
		return compare(lv, rv)
	}, nil
}

func evalQuantified(n Node, c *Context) (evalFn, error) {
	q := n.(*Quantified)

	coll, err := evaluator.Visit(q.Path, c)
	if err != nil {
		return nil, err
	}

	// The body runs against the collection's element type.
	bodyCtx := &Context{Getter: c.Getter}
	if pp, ok := q.Path.(*PropertyPath); ok {
		bodyCtx.Schema = pp.target
	}
	body, err := evaluator.Visit(q.Body, bodyCtx)
	if err != nil {
		return nil, err
	}

	all := q.Op == OpAll

	return func(record any) (any, error) {
		v, err := coll(record)
		if err != nil {
			return nil, err
		}
		for _, el := range toSlice(v) {
			bv, err := body(el)
			if err != nil {
				return nil, err
			}
			b, err := toBool(bv)
			if err != nil {
				return nil, err
			}
			if b != all {
				return !all, nil
			}
		}
		// any over an empty collection is false, all is true.
		return all, nil
	}, nil
}

func evalLiteral(n Node, _ *Context) (evalFn, error) {
	v := n.(*Literal).Value
	return func(any) (any, error) { return v, nil }, nil
}

func evalProperty(n Node, c *Context) (evalFn, error) {
	get := c.Getter
	if get == nil {
		get = MapGetter
	}

	path := n.(*PropertyPath).Path
	if !strings.Contains(path, ".") {
		return func(record any) (any, error) {
			v, _ := get(record, path)
			return v, nil
		}, nil
	}

	// Dotted paths walk the accessor segment by segment, short-circuiting
	// to an absent value when an intermediate segment is missing.
	segments := strings.Split(path, ".")
	return func(record any) (any, error) {
		v := record
		for _, seg := range segments {
			if v == nil {
				return nil, nil
			}
			next, ok := get(v, seg)
			if !ok {
				return nil, nil
			}
			v = next
		}
		return v, nil
	}, nil
}

func evalCall(n Node, c *Context) (evalFn, error) {
	call := n.(*Call)

	args := make([]evalFn, len(call.Args))
	for i, a := range call.Args {
		fn, err := evaluator.Visit(a, c)
		if err != nil {
			return nil, err
		}
		args[i] = fn
	}

	impl := call.fn.call

	return func(record any) (any, error) {
		vals := make([]any, len(args))
		for i, fn := range args {
			v, err := fn(record)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return impl(vals)
	}, nil
}

// comparator resolves the comparison function for an operator from the
// operand data type and the schema's string comparison policy.
func comparator(op Op, dt DataType, opts StringOptions) (func(l, r any) (any, error), error) {
	switch op {
	case OpStartsWith, OpEndsWith, OpContains:
		// Substring operators always honor the case policy, whatever the
		// declared data type.
		var test func(s, sub string) bool
		switch op {
		case OpStartsWith:
			test = strings.HasPrefix
		case OpEndsWith:
			test = strings.HasSuffix
		default:
			test = strings.Contains
		}
		return func(l, r any) (any, error) {
			ls, lok := l.(string)
			rs, rok := r.(string)
			if !lok || !rok {
				return false, nil
			}
			if !opts.CaseSensitive {
				ls, rs = strings.ToLower(ls), strings.ToLower(rs)
			}
			return test(ls, rs), nil
		}, nil

	case OpEqual, OpNotEqual:
		want := op == OpEqual
		if dt == TypeString {
			return func(l, r any) (any, error) {
				return stringEquals(l, r, opts) == want, nil
			}, nil
		}
		return func(l, r any) (any, error) {
			return valueEquals(l, r, dt) == want, nil
		}, nil

	case OpLessThan, OpLessEqualThan, OpGreaterThan, OpGreaterEqualThan:
		return func(l, r any) (any, error) {
			if l == nil || r == nil {
				return false, nil
			}
			n, err := compareValues(l, r, dt)
			if err != nil {
				return nil, err
			}
			switch op {
			case OpLessThan:
				return n < 0, nil
			case OpLessEqualThan:
				return n <= 0, nil
			case OpGreaterThan:
				return n > 0, nil
			}
			return n >= 0, nil
		}, nil
	}

	return nil, fmt.Errorf("unknown comparison operator '%s'", op)
}

// stringEquals compares string operands under the policy: optional SQL-92
// style trimming of trailing blanks, optional case folding.
func stringEquals(l, r any, opts StringOptions) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	ls, lok := l.(string)
	rs, rok := r.(string)
	if !lok || !rok {
		return false
	}
	if opts.TrimCompare {
		ls = strings.TrimRight(ls, " ")
		rs = strings.TrimRight(rs, " ")
	}
	if !opts.CaseSensitive {
		ls, rs = strings.ToLower(ls), strings.ToLower(rs)
	}
	return ls == rs
}

func valueEquals(l, r any, dt DataType) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if n, err := compareValues(l, r, dt); err == nil {
		return n == 0
	}
	// The == fallback would panic on non-comparable dynamic types such as
	// slices.
	if !reflect.TypeOf(l).Comparable() || !reflect.TypeOf(r).Comparable() {
		return false
	}
	return l == r
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("predicate did not evaluate to a boolean, got '%v' (%T)", v, v)
	}
	return b, nil
}

// toSlice flattens a collection value into its elements. A nil or
// non-collection value has no elements.
func toSlice(v any) []any {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return v
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
