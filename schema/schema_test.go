package schema

import (
	"testing"

	"github.com/jvitoroc/filter"
)

func newOrderType() (*EntityType, *EntityType) {
	customer := New("Customer").
		AddProperty("name", filter.TypeString).
		AddProperty("city", filter.TypeString)

	detail := New("OrderDetail").
		AddProperty("quantity", filter.TypeInt32).
		AddProperty("unitPrice", filter.TypeFloat64)

	order := New("Order").
		AddProperty("freight", filter.TypeFloat64).
		AddProperty("shipCity", filter.TypeString).
		AddNavigation("customer", customer).
		AddNavigation("details", detail).
		SetServerName("freight", "Freight").
		SetServerName("customer", "Customer")
	return order, detail
}

func Test_ResolveProperty(t *testing.T) {
	order, detail := newOrderType()

	tests := []struct {
		name     string
		path     string
		ok       bool
		dataType filter.DataType
		target   *EntityType
	}{
		{
			name:     "data property",
			path:     "freight",
			ok:       true,
			dataType: filter.TypeFloat64,
		},
		{
			name:   "navigation property",
			path:   "details",
			ok:     true,
			target: detail,
		},
		{
			name:     "dotted path through a navigation",
			path:     "customer.city",
			ok:       true,
			dataType: filter.TypeString,
		},
		{
			name: "unknown property",
			path: "weight",
		},
		{
			name: "unknown segment under a navigation",
			path: "customer.zip",
		},
		{
			name: "dotted path through a data property",
			path: "freight.amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := order.ResolveProperty(tt.path)
			if ok != tt.ok {
				t.Fatalf("got ok=%v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.DataType != tt.dataType {
				t.Errorf("got data type %q, want %q", got.DataType, tt.dataType)
			}
			if tt.target != nil && (!got.IsNavigation || got.Target != filter.Schema(tt.target)) {
				t.Errorf("expected a navigation targeting %s", tt.target.Name())
			}
		})
	}
}

func Test_ServerPath(t *testing.T) {
	order, _ := newOrderType()

	tests := []struct {
		path     string
		expected string
	}{
		{"freight", "Freight"},
		{"shipCity", "shipCity"},
		{"customer.city", "Customer.city"},
		{"unknown.path", "unknown.path"},
	}

	for _, tt := range tests {
		if got := order.ServerPath(tt.path); got != tt.expected {
			t.Errorf("ServerPath(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func Test_Anonymous(t *testing.T) {
	if !New("Empty").Anonymous() {
		t.Error("a type with no properties must be anonymous")
	}
	if New("Order").AddProperty("freight", filter.TypeFloat64).Anonymous() {
		t.Error("a type with properties must not be anonymous")
	}
}

func Test_StringOptions(t *testing.T) {
	order := New("Order")
	if got := order.StringOptions(); got != filter.DefaultStringOptions {
		t.Errorf("unexpected default policy %+v", got)
	}

	order.SetStringOptions(filter.StringOptions{CaseSensitive: true})
	if !order.StringOptions().CaseSensitive {
		t.Error("policy override was not applied")
	}
}

func Test_validateAgainstEntityType(t *testing.T) {
	order, _ := newOrderType()

	pred, err := filter.Where("customer.city", "eq", "Chicago")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := filter.Compile(pred, order); err != nil {
		t.Fatal(err)
	}

	pred, err = filter.Where("weight", "gt", 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := filter.Compile(pred, order); err == nil {
		t.Error("expected an unresolvable property error, got none")
	}
}
