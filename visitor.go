package filter

import "fmt"

// Context is the state a backend invocation runs under. Schema may be nil
// (an absent schema). The remaining fields configure specific backends and
// are ignored by the others.
type Context struct {
	Schema Schema

	// Getter reads properties off records during evaluation. Nil means
	// MapGetter.
	Getter Getter

	// Options configures serialization.
	Options Options
}

// Backend is a named set of per-node-kind handlers realizing one traversal
// purpose. Visiting a node normalizes the context, validates the node
// against the context's schema exactly once per distinct schema, then
// dispatches on the node kind — so every handler sees a validated tree.
type Backend[R any] struct {
	Name     string
	Handlers map[Kind]func(Node, *Context) (R, error)
}

// normalizeContext accepts the supported context shapes: nil (absent
// schema), a bare Schema, or a *Context.
func normalizeContext(ctx any) (*Context, error) {
	switch c := ctx.(type) {
	case nil:
		return &Context{}, nil
	case *Context:
		if c == nil {
			return &Context{}, nil
		}
		return c, nil
	case Schema:
		return &Context{Schema: c}, nil
	}
	return nil, fmt.Errorf("context must be a Schema or *Context, got %T", ctx)
}

func (b *Backend[R]) Visit(n Node, ctx any) (R, error) {
	var zero R

	c, err := normalizeContext(ctx)
	if err != nil {
		return zero, err
	}

	if err := validate(n, c.Schema); err != nil {
		return zero, err
	}

	h, ok := b.Handlers[n.Kind()]
	if !ok {
		return zero, fmt.Errorf("backend '%s' cannot handle %s nodes", b.Name, n.Kind())
	}

	return h(n, c)
}
