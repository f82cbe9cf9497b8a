package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_parseExpr(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		ctx      parseContext
		expected Expr
	}{
		{
			name:     "bare token is a property on the left side",
			source:   "shipCity",
			expected: &PropertyPath{Path: "shipCity"},
		},
		{
			name:     "bare token is a literal on the right side",
			source:   "Chicago",
			ctx:      parseContext{isRHS: true},
			expected: &Literal{Value: "Chicago", DataType: TypeString},
		},
		{
			name:     "quoted token is a string literal on either side",
			source:   "'Chicago'",
			expected: &Literal{Value: "Chicago", DataType: TypeString},
		},
		{
			name:     "double-quoted token",
			source:   `"Chicago"`,
			ctx:      parseContext{isRHS: true},
			expected: &Literal{Value: "Chicago", DataType: TypeString},
		},
		{
			name:   "data-type hint coerces a bare right-side token",
			source: "100",
			ctx:    parseContext{isRHS: true, dataType: TypeFloat64},
			expected: &Literal{
				Value:    float64(100),
				DataType: TypeFloat64,
			},
		},
		{
			name:     "dotted identifier is a property path",
			source:   "customer.city",
			expected: &PropertyPath{Path: "customer.city"},
		},
		{
			name:     "non-identifier text soft-fails on the left side",
			source:   "ship city",
			expected: nil,
		},
		{
			name:   "single function call",
			source: "toupper(shipCity)",
			expected: mustCall(t, "toupper",
				&PropertyPath{Path: "shipCity"},
			),
		},
		{
			name:   "left-side numeric call arguments are literals",
			source: "substring(companyName,1,2)",
			expected: mustCall(t, "substring",
				&PropertyPath{Path: "companyName"},
				&Literal{Value: "1", DataType: TypeString},
				&Literal{Value: "2", DataType: TypeString},
			),
		},
		{
			name:   "nested calls with untyped numeric arguments",
			source: "substring(toupper(companyName),1,2)",
			expected: mustCall(t, "substring",
				mustCall(t, "toupper", &PropertyPath{Path: "companyName"}),
				&Literal{Value: "1", DataType: TypeString},
				&Literal{Value: "2", DataType: TypeString},
			),
		},
		{
			name:   "quoted commas do not split arguments",
			source: "replace(companyName,'a,b','c')",
			expected: mustCall(t, "replace",
				&PropertyPath{Path: "companyName"},
				&Literal{Value: "a,b", DataType: TypeString},
				&Literal{Value: "c", DataType: TypeString},
			),
		},
		{
			name:   "function name is case-insensitive",
			source: "TOUPPER(shipCity)",
			expected: mustCall(t, "toupper",
				&PropertyPath{Path: "shipCity"},
			),
		},
		{
			name:     "unknown function soft-fails",
			source:   "foo(bar)",
			expected: nil,
		},
		{
			name:     "prose with parentheses soft-fails",
			source:   "Crowe & Co (Ltd)",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExpr(tt.source, tt.ctx)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(got, tt.expected, cmpNodes()...); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func Test_parseExpr_badArgCount(t *testing.T) {
	_, err := parseExpr("substring(companyName)", parseContext{})
	if err == nil {
		t.Error("expected an argument-count error, got none")
	}
}

func Test_splitArgs(t *testing.T) {
	tests := []struct {
		source   string
		expected []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"a,'b,c',d", []string{"a", "'b,c'", "d"}},
		{`a,"b,c",d`, []string{"a", `"b,c"`, "d"}},
		{"one", []string{"one"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(splitArgs(tt.source), tt.expected); diff != "" {
			t.Errorf("splitArgs(%q): %s", tt.source, diff)
		}
	}
}

func mustCall(t *testing.T, name string, args ...Expr) *Call {
	t.Helper()
	c, err := NewCall(name, args...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// cmpNodes compares trees structurally, ignoring validation memos and the
// bound function-table entries.
func cmpNodes() []cmp.Option {
	return []cmp.Option{
		cmp.AllowUnexported(
			Passthrough{}, Unary{}, Logical{}, Comparison{},
			Quantified{}, Literal{}, PropertyPath{}, Call{},
		),
		cmp.FilterPath(func(p cmp.Path) bool {
			last := p.Last().String()
			return last == ".m" || last == ".fn"
		}, cmp.Ignore()),
	}
}
