package filter

// Kind discriminates the node variants of a filter tree.
type Kind string

const (
	KindPassthrough Kind = "passthrough"
	KindUnary       Kind = "unary"
	KindLogical     Kind = "logical"
	KindComparison  Kind = "comparison"
	KindQuantified  Kind = "quantified"
	KindLiteral     Kind = "literal"
	KindProperty    Kind = "property"
	KindCall        Kind = "call"
)

// Node is any vertex of a filter tree. Nodes are immutable after
// construction except for validation-derived fields, which are written at
// most once per distinct schema.
type Node interface {
	Kind() Kind
	memo() *valMemo
}

// Predicate is a boolean-valued node: the thing a filter ultimately is.
type Predicate interface {
	Node
	And(others ...Predicate) Predicate
	Or(others ...Predicate) Predicate
	Not() Predicate
}

// Expr is a value-valued node, always an operand of a predicate.
type Expr interface {
	Node
	expr()
}

// valMemo records the schema a node was last validated against, so repeat
// backend invocations with the same schema skip re-validation.
type valMemo struct {
	schema    Schema
	validated bool
}

// Passthrough wraps pre-formed filter text verbatim. It can be serialized
// back out but has no local evaluation semantics.
type Passthrough struct {
	Text string

	m valMemo
}

// Unary negates its operand. The only canonical unary operator is "not".
type Unary struct {
	Op      Op
	Operand Predicate

	m valMemo
}

// Logical combines two or more predicates with "and" or "or". Construction
// collapses a single remaining child into that child, so a built Logical
// always holds at least two.
type Logical struct {
	Op    Op
	Preds []Predicate

	m valMemo
}

// Comparison applies a binary comparison operator to two expressions. The
// left side must denote a property or function, never a constant.
type Comparison struct {
	Op    Op
	Left  Expr
	Right Expr

	m valMemo
}

// Quantified tests Body against each element reachable through Path, a
// navigation (collection) property, with "any" or "all" semantics.
type Quantified struct {
	Op   Op
	Path Expr
	Body Predicate

	m valMemo
}

// Literal is a constant expression. DataType is inferred from Value unless
// the caller supplied it, in which case Explicit is set and serialization
// preserves the tag.
type Literal struct {
	Value    any
	DataType DataType
	Explicit bool

	m valMemo
}

// PropertyPath references a (possibly dotted) field on the record. Its data
// type is resolved during validation against a concrete schema and stays
// unresolved under an absent or anonymous schema.
type PropertyPath struct {
	Path string

	dataType DataType
	target   Schema

	m valMemo
}

// Call is an invocation of one of the fixed filter functions. The function
// entry, including the declared return type, is bound at construction;
// an unknown name never constructs.
type Call struct {
	Name string
	Args []Expr

	fn *fnEntry
	m  valMemo
}

func (p *Passthrough) Kind() Kind { return KindPassthrough }
func (p *Unary) Kind() Kind { return KindUnary }
func (p *Logical) Kind() Kind { return KindLogical }
func (p *Comparison) Kind() Kind { return KindComparison }
func (p *Quantified) Kind() Kind { return KindQuantified }
func (e *Literal) Kind() Kind { return KindLiteral }
func (e *PropertyPath) Kind() Kind { return KindProperty }
func (e *Call) Kind() Kind { return KindCall }

func (p *Passthrough) memo() *valMemo { return &p.m }
func (p *Unary) memo() *valMemo { return &p.m }
func (p *Logical) memo() *valMemo { return &p.m }
func (p *Comparison) memo() *valMemo { return &p.m }
func (p *Quantified) memo() *valMemo { return &p.m }
func (e *Literal) memo() *valMemo { return &e.m }
func (e *PropertyPath) memo() *valMemo { return &e.m }
func (e *Call) memo() *valMemo { return &e.m }

func (e *Literal) expr() {}
func (e *PropertyPath) expr() {}
func (e *Call) expr() {}

// ResolvedType reports the property's data type as resolved by the last
// validation, or TypeUnknown when the path was never resolved.
func (e *PropertyPath) ResolvedType() DataType { return e.dataType }

// ReturnType reports the declared return type of the called function.
func (e *Call) ReturnType() DataType { return e.fn.returnType }

// And combines predicates with logical conjunction. Nil inputs are
// filtered out; no inputs yields nil, a single input is returned unwrapped.
func And(preds ...Predicate) Predicate {
	return newLogical(OpAnd, preds)
}

// Or combines predicates with logical disjunction, with the same filtering
// and collapse rules as And.
func Or(preds ...Predicate) Predicate {
	return newLogical(OpOr, preds)
}

// Not negates a predicate. Not(nil) is nil.
func Not(pred Predicate) Predicate {
	if pred == nil {
		return nil
	}
	return &Unary{Op: OpNot, Operand: pred}
}

// newLogical flattens nil children and applies the collapse rule: zero
// children is an absent predicate, one child replaces the composite.
func newLogical(op Op, preds []Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		kept = append(kept, p)
	}

	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}

	return &Logical{Op: op, Preds: kept}
}

func (p *Passthrough) And(others ...Predicate) Predicate { return and(p, others) }
func (p *Unary) And(others ...Predicate) Predicate { return and(p, others) }
func (p *Logical) And(others ...Predicate) Predicate { return and(p, others) }
func (p *Comparison) And(others ...Predicate) Predicate { return and(p, others) }
func (p *Quantified) And(others ...Predicate) Predicate { return and(p, others) }

func (p *Passthrough) Or(others ...Predicate) Predicate { return or(p, others) }
func (p *Unary) Or(others ...Predicate) Predicate { return or(p, others) }
func (p *Logical) Or(others ...Predicate) Predicate { return or(p, others) }
func (p *Comparison) Or(others ...Predicate) Predicate { return or(p, others) }
func (p *Quantified) Or(others ...Predicate) Predicate { return or(p, others) }

func (p *Passthrough) Not() Predicate { return Not(p) }
func (p *Unary) Not() Predicate { return Not(p) }
func (p *Logical) Not() Predicate { return Not(p) }
func (p *Comparison) Not() Predicate { return Not(p) }
func (p *Quantified) Not() Predicate { return Not(p) }

func and(p Predicate, others []Predicate) Predicate {
	return And(append([]Predicate{p}, others...)...)
}

func or(p Predicate, others []Predicate) Predicate {
	return Or(append([]Predicate{p}, others...)...)
}

// exprType reports the best-known data type of an expression: a literal's
// tag, a resolved property's type, or a call's declared return type.
func exprType(e Expr) DataType {
	switch e := e.(type) {
	case *Literal:
		return e.DataType
	case *PropertyPath:
		return e.dataType
	case *Call:
		return e.fn.returnType
	}
	return TypeUnknown
}
