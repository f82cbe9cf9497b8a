package filter

import "fmt"

// validate checks a node (and its children) against a schema, memoizing the
// last schema validated against on the node itself. Re-validation with the
// same schema is a no-op; an absent schema always re-runs, which is itself
// nearly free since path resolution is skipped.
func validate(n Node, s Schema) error {
	if n == nil {
		return nil
	}

	m := n.memo()
	if s != nil && m.validated && m.schema == s {
		return nil
	}

	if err := validateNode(n, s); err != nil {
		return err
	}

	m.schema = s
	m.validated = true
	return nil
}

func validateNode(n Node, s Schema) error {
	switch n := n.(type) {
	case *Passthrough, *Literal:
		return nil

	case *Unary:
		return validate(n.Operand, s)

	case *Logical:
		for _, p := range n.Preds {
			if err := validate(p, s); err != nil {
				return err
			}
		}
		return nil

	case *Comparison:
		return validateComparison(n, s)

	case *Quantified:
		return validateQuantified(n, s)

	case *PropertyPath:
		return validateProperty(n, s)

	case *Call:
		for _, a := range n.Args {
			if err := validate(a, s); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("unknown node kind %s", n.Kind())
}

func validateComparison(c *Comparison, s Schema) error {
	if err := validate(c.Left, s); err != nil {
		return err
	}

	if lit, ok := c.Left.(*Literal); ok {
		return fmt.Errorf("the left side of a comparison must denote a property or function, got the literal '%v'", lit.Value)
	}

	leftType := exprType(c.Left)

	// Coerce a right-side literal using the left side's type as a hint. A
	// failed coercion is left for the evaluator to surface.
	if lit, ok := c.Right.(*Literal); ok && !lit.Explicit &&
		leftType != TypeUnknown && leftType != lit.DataType {
		if v, err := ParseValue(lit.Value, leftType); err == nil {
			lit.Value = v
			lit.DataType = leftType
		}
	}

	if err := validate(c.Right, s); err != nil {
		return err
	}

	// When the left side's type is still unknown (anonymous schema), the
	// right side's inferred type is the best information available.
	if leftType == TypeUnknown {
		if pp, ok := c.Left.(*PropertyPath); ok {
			pp.dataType = exprType(c.Right)
		}
	}

	return nil
}

func validateQuantified(q *Quantified, s Schema) error {
	if err := validate(q.Path, s); err != nil {
		return err
	}

	// The body is validated against the element type of the collection; an
	// absent or anonymous outer schema makes that element type anonymous
	// as well.
	var elem Schema
	if s != nil && !s.Anonymous() {
		pp, ok := q.Path.(*PropertyPath)
		if !ok {
			return fmt.Errorf("quantifier '%s' requires a property path, got a %s expression", q.Op, q.Path.Kind())
		}
		prop, ok := s.ResolveProperty(pp.Path)
		if !ok {
			return fmt.Errorf("unable to resolve property '%s' on type '%s'", pp.Path, s.Name())
		}
		if !prop.IsNavigation {
			return fmt.Errorf("property '%s' on type '%s' is not a collection", pp.Path, s.Name())
		}
		elem = prop.Target
	}

	return validate(q.Body, elem)
}

func validateProperty(p *PropertyPath, s Schema) error {
	if s == nil || s.Anonymous() {
		return nil
	}

	prop, ok := s.ResolveProperty(p.Path)
	if !ok {
		return fmt.Errorf("unable to resolve property '%s' on type '%s'", p.Path, s.Name())
	}

	if prop.IsNavigation {
		p.target = prop.Target
		return nil
	}

	p.dataType = prop.DataType
	return nil
}
