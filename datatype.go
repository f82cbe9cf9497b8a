package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DataType names the value types the engine knows how to infer, parse and
// compare. TypeUnknown marks values whose type is resolved later (or never,
// under an anonymous schema).
type DataType string

const (
	TypeUnknown  DataType = ""
	TypeString   DataType = "string"
	TypeBoolean  DataType = "boolean"
	TypeInt32    DataType = "int32"
	TypeInt64    DataType = "int64"
	TypeFloat64  DataType = "float64"
	TypeDecimal  DataType = "decimal"
	TypeDateTime DataType = "datetime"
	TypeGUID     DataType = "guid"
)

var numericTypes = map[DataType]bool{
	TypeInt32:   true,
	TypeInt64:   true,
	TypeFloat64: true,
	TypeDecimal: true,
}

func (t DataType) isNumeric() bool {
	return numericTypes[t]
}

var guidRegexp = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// InferType infers a data type from a raw Go value.
func InferType(v any) DataType {
	switch v := v.(type) {
	case nil:
		return TypeUnknown
	case string:
		if guidRegexp.MatchString(v) {
			return TypeGUID
		}
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, uint8, uint16:
		return TypeInt32
	case int64, uint32, uint64, uint:
		return TypeInt64
	case float32, float64:
		return TypeFloat64
	case time.Time:
		return TypeDateTime
	}
	return TypeUnknown
}

// ParseValue coerces a raw value into the given data type. An unknown
// target type leaves the value untouched.
func ParseValue(raw any, t DataType) (any, error) {
	switch t {
	case TypeUnknown:
		return raw, nil
	case TypeString, TypeGUID:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return fmt.Sprint(raw), nil
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	case TypeInt32, TypeInt64:
		switch v := raw.(type) {
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s literal '%s'", t, v)
			}
			return n, nil
		default:
			if f, ok := toFloat64(raw); ok {
				return int64(f), nil
			}
		}
	case TypeFloat64, TypeDecimal:
		switch v := raw.(type) {
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s literal '%s'", t, v)
			}
			return f, nil
		default:
			if f, ok := toFloat64(raw); ok {
				return f, nil
			}
		}
	case TypeDateTime:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("invalid datetime literal '%s'", v)
			}
			return ts, nil
		}
	}

	return nil, fmt.Errorf("cannot parse '%v' as %s", raw, t)
}

// compareValues orders two values of the given (possibly unknown) type.
// It returns <0, 0 or >0 in the usual way.
func compareValues(l, r any, t DataType) (int, error) {
	if t.isNumeric() || t == TypeUnknown {
		if lf, ok := toFloat64(l); ok {
			if rf, ok := toFloat64(r); ok {
				switch {
				case lf < rf:
					return -1, nil
				case lf > rf:
					return 1, nil
				}
				return 0, nil
			}
		}
		if t != TypeUnknown {
			return 0, fmt.Errorf("cannot compare '%v' and '%v' as %s", l, r, t)
		}
	}

	if t == TypeDateTime || t == TypeUnknown {
		if lt, ok := toTime(l); ok {
			if rt, ok := toTime(r); ok {
				switch {
				case lt.Before(rt):
					return -1, nil
				case lt.After(rt):
					return 1, nil
				}
				return 0, nil
			}
		}
		if t != TypeUnknown {
			return 0, fmt.Errorf("cannot compare '%v' and '%v' as %s", l, r, t)
		}
	}

	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		return strings.Compare(ls, rs), nil
	}

	return 0, fmt.Errorf("cannot compare '%v' (%T) and '%v' (%T)", l, l, r, r)
}

func toFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
