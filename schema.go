package filter

// Schema describes the entity type a filter tree is validated against.
// Implementations live outside the engine; the schema/ package provides a
// ready-made one.
type Schema interface {
	// Name identifies the type in validation errors.
	Name() string

	// ResolveProperty resolves a dotted property path declared on this
	// type. The second result is false when no such property exists.
	ResolveProperty(path string) (Property, bool)

	// Anonymous reports whether the type carries no declared properties,
	// in which case path resolution and type inference are skipped.
	Anonymous() bool

	// ServerPath translates a property path to its server-side spelling.
	ServerPath(path string) string

	// StringOptions is the string comparison policy applied to string
	// operands of predicates validated against this schema.
	StringOptions() StringOptions
}

// Property is the result of resolving a path against a Schema: either a
// data property with a concrete type, or a navigation property pointing at
// another entity type (a collection, for the purposes of quantifiers).
type Property struct {
	DataType     DataType
	IsNavigation bool
	Target       Schema
}

// StringOptions is the policy for comparing string operands.
// TrimCompare requests SQL-92 style trimming of trailing blanks on both
// sides before the comparison.
type StringOptions struct {
	CaseSensitive bool
	TrimCompare   bool
}

// DefaultStringOptions matches common query-service behavior:
// case-insensitive, trailing blanks ignored.
var DefaultStringOptions = StringOptions{CaseSensitive: false, TrimCompare: true}

// Getter reads a single (non-dotted) property off a record. The second
// result is false when the record has no such property.
type Getter func(record any, name string) (any, bool)

// MapGetter reads properties from map[string]any records. It is the
// getter used when the caller does not supply one.
func MapGetter(record any, name string) (any, bool) {
	m, ok := record.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}
