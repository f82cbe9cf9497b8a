package filter

import (
	"fmt"
	"sort"
	"time"

	"github.com/valyala/fastjson"
)

// Normalize turns any supported input shape into a canonical predicate
// tree. Accepted shapes, checked in order:
//
//   - an existing Predicate, returned unchanged;
//   - a one-element []any, recursed into;
//   - a three-element []any [path, operator, value];
//   - a five-element []any [path, "any"|"all", path2, operator, value];
//   - a string, wrapped verbatim as passthrough text (never parsed);
//   - a map[string]any in the canonical JSON object form.
//
// A nil input is an absent predicate and normalizes to nil.
func Normalize(input any) (Predicate, error) {
	switch in := input.(type) {
	case nil:
		return nil, nil
	case Predicate:
		return in, nil
	case []any:
		return normalizeTuple(in)
	case string:
		return &Passthrough{Text: in}, nil
	case map[string]any:
		return normalizeMap(in)
	}

	return nil, fmt.Errorf("unable to resolve a predicate from input of type %T", input)
}

// Where is the multi-argument call form of Normalize:
// Where(path, operator, value) or Where(path, "any", path2, operator, value).
func Where(args ...any) (Predicate, error) {
	return Normalize(append([]any{}, args...))
}

// ParseJSON decodes a canonical JSON filter document and normalizes it.
// This is the inverse of Serialize and the entry point for documents read
// back from storage or interchange.
func ParseJSON(data []byte) (Predicate, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid filter document: %w", err)
	}
	return Normalize(fromJSONValue(v))
}

func fromJSONValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		m := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = fromJSONValue(val)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, 0, len(arr))
		for _, el := range arr {
			out = append(out, fromJSONValue(el))
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}

func normalizeTuple(arr []any) (Predicate, error) {
	switch len(arr) {
	case 1:
		return Normalize(arr[0])
	case 3:
		return normalizeTuple3(arr[0], arr[1], arr[2])
	case 5:
		// [path, any/all, path2, operator, value]: fold the tail into a
		// nested tuple under a quantifier.
		path, ok := arr[0].(string)
		if !ok {
			return nil, fmt.Errorf("quantifier path must be a string, got %T", arr[0])
		}
		op, err := resolveOp(KindQuantified, arr[1], false)
		if err != nil {
			return nil, err
		}
		body, err := normalizeTuple3(arr[2], arr[3], arr[4])
		if err != nil {
			return nil, err
		}
		return newQuantified(op, path, body)
	}

	return nil, fmt.Errorf("unable to resolve a predicate from a %d-element tuple", len(arr))
}

func normalizeTuple3(pathTok, opTok, value any) (Predicate, error) {
	path, ok := pathTok.(string)
	if !ok {
		return nil, fmt.Errorf("comparison path must be a string, got %T", pathTok)
	}

	if op, _ := resolveOp(KindQuantified, opTok, true); op != "" {
		body, err := Normalize(value)
		if err != nil {
			return nil, err
		}
		return newQuantified(op, path, body)
	}

	op, err := resolveOp(KindComparison, opTok, false)
	if err != nil {
		return nil, err
	}
	return newComparison(path, op, value)
}

// normalizeMap resolves the canonical object form. Two or more top-level
// keys combine into a single conjunction. Keys are visited in sorted order
// so the result is deterministic.
func normalizeMap(m map[string]any) (Predicate, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		p, err := normalizeEntry(k, m[k])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	return And(preds...), nil
}

// normalizeEntry resolves one key of the object form: a logical operator,
// the unary operator, or a property path whose value describes one or more
// predicates on that property.
func normalizeEntry(key string, value any) (Predicate, error) {
	if op, _ := resolveOp(KindLogical, key, true); op != "" {
		children, err := normalizeChildren(value)
		if err != nil {
			return nil, err
		}
		return newLogical(op, children), nil
	}

	if op, _ := resolveOp(KindUnary, key, true); op == OpNot {
		operand, err := Normalize(value)
		if err != nil {
			return nil, err
		}
		return Not(operand), nil
	}

	switch v := value.(type) {
	case []any:
		return nil, fmt.Errorf("unable to resolve a predicate after the phrase '%s'", key)
	case map[string]any:
		if !isLiteralWrapper(v) {
			return normalizeOperatorMap(key, v)
		}
	}

	// A plain value (or an explicit-literal wrapper) is an implicit
	// equality on the property.
	return newComparison(key, OpEqual, value)
}

// normalizeChildren collects the operands of a logical composite: either a
// single nested array of inputs or one direct input.
func normalizeChildren(value any) ([]Predicate, error) {
	inputs, ok := value.([]any)
	if !ok {
		inputs = []any{value}
	}

	children := make([]Predicate, 0, len(inputs))
	for _, in := range inputs {
		c, err := Normalize(in)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

// normalizeOperatorMap resolves a property's value object, whose keys are
// operator tokens. More than one entry combines with "and".
func normalizeOperatorMap(path string, ops map[string]any) (Predicate, error) {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, opTok := range keys {
		operand := ops[opTok]

		if op, _ := resolveOp(KindQuantified, opTok, true); op != "" {
			body, err := Normalize(operand)
			if err != nil {
				return nil, err
			}
			q, err := newQuantified(op, path, body)
			if err != nil {
				return nil, err
			}
			preds = append(preds, q)
			continue
		}

		op, err := resolveOp(KindComparison, opTok, false)
		if err != nil {
			return nil, err
		}
		c, err := newComparison(path, op, operand)
		if err != nil {
			return nil, err
		}
		preds = append(preds, c)
	}

	return And(preds...), nil
}

// newComparison builds a comparison from left-side expression text, a
// canonical operator and a raw right-side value.
func newComparison(lhs string, op Op, rhs any) (Predicate, error) {
	left, err := parseExpr(lhs, parseContext{})
	if err != nil {
		return nil, err
	}
	if left == nil {
		return nil, fmt.Errorf("unable to resolve the expression '%s'", lhs)
	}

	right, err := resolveValue(rhs)
	if err != nil {
		return nil, err
	}

	return &Comparison{Op: op, Left: left, Right: right}, nil
}

func newQuantified(op Op, path string, body Predicate) (Predicate, error) {
	if body == nil {
		return nil, fmt.Errorf("quantifier '%s' on '%s' has no body", op, path)
	}
	coll, err := parseExpr(path, parseContext{})
	if err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, fmt.Errorf("unable to resolve the expression '%s'", path)
	}
	return &Quantified{Op: op, Path: coll, Body: body}, nil
}

// resolveValue turns the right side of a comparison into an expression.
// Strings are run through the micro-parser; an explicit-literal wrapper
// keeps its data-type tag (or marks a property reference); anything else
// is a literal with an inferred type.
func resolveValue(v any) (Expr, error) {
	switch v := v.(type) {
	case Expr:
		return v, nil
	case map[string]any:
		if !isLiteralWrapper(v) {
			return nil, fmt.Errorf("unable to resolve a value from the object '%v'", v)
		}
		return resolveWrapper(v)
	case string:
		e, err := parseExpr(v, parseContext{isRHS: true})
		if err != nil {
			return nil, err
		}
		if e == nil {
			// Unresolvable function syntax on the right side falls back
			// to the raw text as a string literal.
			return &Literal{Value: v, DataType: TypeString}, nil
		}
		return e, nil
	case nil, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return &Literal{Value: v, DataType: InferType(v)}, nil
	}

	return nil, fmt.Errorf("unable to resolve a value from input of type %T", v)
}

func isLiteralWrapper(m map[string]any) bool {
	_, ok := m["value"]
	return ok
}

func resolveWrapper(m map[string]any) (Expr, error) {
	raw := m["value"]

	if isProp, _ := m["isProperty"].(bool); isProp {
		path, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("property reference value must be a string, got %T", raw)
		}
		return &PropertyPath{Path: path}, nil
	}

	tag, tagged := m["dataType"].(string)
	if !tagged {
		return &Literal{Value: raw, DataType: InferType(raw)}, nil
	}

	dt := DataType(tag)
	value, err := ParseValue(raw, dt)
	if err != nil {
		return nil, err
	}
	return &Literal{Value: value, DataType: dt, Explicit: true}, nil
}
