package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// fnEntry describes one entry of the fixed function table: the declared
// return type used during validation, the accepted argument count, and the
// local implementation used by the evaluator.
type fnEntry struct {
	name       string
	returnType DataType
	minArgs    int
	maxArgs    int
	call       func(args []any) (any, error)
}

// fnTable is the closed set of callable filter functions. It is built once
// and never mutated, so it is safe to share process-wide.
var fnTable = buildFunctions()

func buildFunctions() map[string]*fnEntry {
	entries := []*fnEntry{
		{name: "toupper", returnType: TypeString, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			s, err := argString(args, 0)
			return strings.ToUpper(s), err
		}},
		{name: "tolower", returnType: TypeString, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			s, err := argString(args, 0)
			return strings.ToLower(s), err
		}},
		{name: "trim", returnType: TypeString, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			s, err := argString(args, 0)
			return strings.TrimSpace(s), err
		}},
		{name: "substring", returnType: TypeString, minArgs: 2, maxArgs: 3, call: fnSubstring},
		{name: "substringof", returnType: TypeBoolean, minArgs: 2, maxArgs: 2, call: func(args []any) (any, error) {
			find, err := argString(args, 0)
			if err != nil {
				return nil, err
			}
			source, err := argString(args, 1)
			if err != nil {
				return nil, err
			}
			return strings.Contains(source, find), nil
		}},
		{name: "length", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			s, err := argString(args, 0)
			return len(s), err
		}},
		{name: "concat", returnType: TypeString, minArgs: 2, maxArgs: -1, call: func(args []any) (any, error) {
			var b strings.Builder
			for i := range args {
				s, err := argString(args, i)
				if err != nil {
					return nil, err
				}
				b.WriteString(s)
			}
			return b.String(), nil
		}},
		{name: "replace", returnType: TypeString, minArgs: 3, maxArgs: 3, call: func(args []any) (any, error) {
			s, err := argString(args, 0)
			if err != nil {
				return nil, err
			}
			find, err := argString(args, 1)
			if err != nil {
				return nil, err
			}
			repl, err := argString(args, 2)
			if err != nil {
				return nil, err
			}
			return strings.ReplaceAll(s, find, repl), nil
		}},
		{name: "startswith", returnType: TypeBoolean, minArgs: 2, maxArgs: 2, call: func(args []any) (any, error) {
			s, prefix, err := argString2(args)
			return strings.HasPrefix(s, prefix), err
		}},
		{name: "endswith", returnType: TypeBoolean, minArgs: 2, maxArgs: 2, call: func(args []any) (any, error) {
			s, suffix, err := argString2(args)
			return strings.HasSuffix(s, suffix), err
		}},
		{name: "indexof", returnType: TypeInt32, minArgs: 2, maxArgs: 2, call: func(args []any) (any, error) {
			s, find, err := argString2(args)
			return strings.Index(s, find), err
		}},
		{name: "round", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			f, err := argNumber(args, 0)
			return int(math.Round(f)), err
		}},
		{name: "ceiling", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			f, err := argNumber(args, 0)
			return int(math.Ceil(f)), err
		}},
		{name: "floor", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			f, err := argNumber(args, 0)
			return int(math.Floor(f)), err
		}},
		{name: "second", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			t, err := argTime(args, 0)
			return t.Second(), err
		}},
		{name: "minute", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			t, err := argTime(args, 0)
			return t.Minute(), err
		}},
		{name: "day", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			t, err := argTime(args, 0)
			return t.Day(), err
		}},
		// month is 1-based: January is 1.
		{name: "month", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			t, err := argTime(args, 0)
			return int(t.Month()), err
		}},
		{name: "year", returnType: TypeInt32, minArgs: 1, maxArgs: 1, call: func(args []any) (any, error) {
			t, err := argTime(args, 0)
			return t.Year(), err
		}},
	}

	m := make(map[string]*fnEntry, len(entries))
	for _, e := range entries {
		m[e.name] = e
	}
	return m
}

// NewCall constructs a function-call expression. The name must be in the
// fixed function table; an unknown name is a construction error.
func NewCall(name string, args ...Expr) (*Call, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	fn, ok := fnTable[key]
	if !ok {
		return nil, fmt.Errorf("unknown function '%s'", name)
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("function '%s' does not take %d arguments", key, len(args))
	}
	return &Call{Name: key, Args: args, fn: fn}, nil
}

// substring(source, start[, length]), zero-based start.
func fnSubstring(args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	start, err := argNumber(args, 1)
	if err != nil {
		return nil, err
	}

	from := int(start)
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		from = len(s)
	}

	to := len(s)
	if len(args) == 3 {
		length, err := argNumber(args, 2)
		if err != nil {
			return nil, err
		}
		to = from + int(length)
		if to > len(s) {
			to = len(s)
		}
		if to < from {
			to = from
		}
	}

	return s[from:to], nil
}

func argString(args []any, i int) (string, error) {
	switch v := args[i].(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("argument %d must be a string, got %T", i+1, args[i])
}

func argString2(args []any) (string, string, error) {
	a, err := argString(args, 0)
	if err != nil {
		return "", "", err
	}
	b, err := argString(args, 1)
	return a, b, err
}

func argNumber(args []any, i int) (float64, error) {
	if f, ok := toFloat64(args[i]); ok {
		return f, nil
	}
	// Arguments parsed out of expression text arrive as strings.
	if s, ok := args[i].(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("argument %d must be a number, got %T", i+1, args[i])
}

func argTime(args []any, i int) (t time.Time, err error) {
	t, ok := toTime(args[i])
	if !ok {
		err = fmt.Errorf("argument %d must be a datetime, got %T", i+1, args[i])
	}
	return t, err
}
