package filter

import (
	"testing"
	"time"
)

func Test_functions(t *testing.T) {
	record := map[string]any{
		"name":      "acme corp",
		"city":      "Berlin",
		"region":    "EU",
		"price":     2.6,
		"shippedAt": time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC),
	}

	tests := []struct {
		expr     string
		value    any
		expected bool
	}{
		{"toupper(name)", "ACME CORP", true},
		{"tolower(city)", "berlin", true},
		{"trim(concat(' ',name))", "acme corp", true},
		{"length(city)", 6, true},
		{"length(city)", 5, false},
		{"substring(name,5)", "corp", true},
		{"substring(name,0,4)", "acme", true},
		{"substring(name,100)", "", true},
		{"substringof('corp',name)", true, true},
		{"substringof('xyz',name)", false, true},
		{"concat(city,', ',region)", "Berlin, EU", true},
		{"replace(name,' ','-')", "acme-corp", true},
		{"startswith(name,'acme')", true, true},
		{"endswith(name,'corp')", true, true},
		{"indexof(name,'corp')", 5, true},
		{"indexof(name,'xyz')", -1, true},
		{"round(price)", 3, true},
		{"ceiling(price)", 3, true},
		{"floor(price)", 2, true},
		{"second(shippedAt)", 45, true},
		{"minute(shippedAt)", 30, true},
		{"day(shippedAt)", 15, true},
		{"month(shippedAt)", 3, true},
		{"year(shippedAt)", 2025, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := Normalize(map[string]any{tt.expr: tt.value})
			if err != nil {
				t.Fatal(err)
			}

			fn, err := Compile(pred, nil)
			if err != nil {
				t.Fatal(err)
			}

			got, err := fn(record)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func Test_NewCall(t *testing.T) {
	call, err := NewCall("TOUPPER", &PropertyPath{Path: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if call.Name != "toupper" {
		t.Errorf("name was not normalized: %s", call.Name)
	}
	if call.ReturnType() != TypeString {
		t.Errorf("unexpected return type %s", call.ReturnType())
	}

	if _, err := NewCall("bogus"); err == nil {
		t.Error("expected an error for an unknown function, got none")
	}
	if _, err := NewCall("length"); err == nil {
		t.Error("expected an arity error, got none")
	}
	if _, err := NewCall("substring", &PropertyPath{Path: "a"}, &Literal{Value: "0"},
		&Literal{Value: "1"}, &Literal{Value: "2"}); err == nil {
		t.Error("expected an arity error, got none")
	}
}
