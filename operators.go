package filter

import (
	"fmt"
	"strings"
)

// Op is the canonical key of an operator after alias resolution.
type Op string

const (
	OpAnd Op = "and"
	OpOr  Op = "or"

	OpNot Op = "not"

	OpEqual            Op = "eq"
	OpNotEqual         Op = "ne"
	OpLessThan         Op = "lt"
	OpLessEqualThan    Op = "le"
	OpGreaterThan      Op = "gt"
	OpGreaterEqualThan Op = "ge"
	OpStartsWith       Op = "startswith"
	OpEndsWith         Op = "endswith"
	OpContains         Op = "contains"

	OpAny Op = "any"
	OpAll Op = "all"
)

// opRegistry maps, per node kind, every accepted alias (lowercased) to its
// canonical operator. It is built once below and never mutated afterwards,
// so it is safe to share process-wide.
type opRegistry map[Kind]map[string]Op

var operators = buildOperators()

func buildOperators() opRegistry {
	r := opRegistry{}
	r.register(KindLogical, map[Op][]string{
		OpAnd: {"&&"},
		OpOr:  {"||"},
	})
	r.register(KindUnary, map[Op][]string{
		OpNot: {"!"},
	})
	r.register(KindComparison, map[Op][]string{
		OpEqual:            {"==", "="},
		OpNotEqual:         {"!="},
		OpLessThan:         {"<"},
		OpLessEqualThan:    {"<="},
		OpGreaterThan:      {">"},
		OpGreaterEqualThan: {">="},
		OpStartsWith:       nil,
		OpEndsWith:         nil,
		OpContains:         {"substringof"},
	})
	r.register(KindQuantified, map[Op][]string{
		OpAny: {"some"},
		OpAll: {"every"},
	})
	return r
}

func (r opRegistry) register(kind Kind, table map[Op][]string) {
	m := make(map[string]Op)
	for op, aliases := range table {
		m[string(op)] = op
		for _, a := range aliases {
			m[strings.ToLower(a)] = op
		}
	}
	r[kind] = m
}

// resolveOp resolves token, case-insensitively, to the canonical operator
// of the given node kind. token may already be a canonical Op. When
// okIfMissing is set an unknown token resolves to the empty Op with no
// error; otherwise it is a construction error.
func resolveOp(kind Kind, token any, okIfMissing bool) (Op, error) {
	var key string
	switch t := token.(type) {
	case Op:
		key = string(t)
	case string:
		key = t
	default:
		return "", fmt.Errorf("operator token must be a string, got %T", token)
	}

	op, ok := operators[kind][strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		if okIfMissing {
			return "", nil
		}
		return "", fmt.Errorf("unable to resolve operator '%s' for %s node", key, kind)
	}

	return op, nil
}
