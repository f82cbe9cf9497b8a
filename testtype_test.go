package filter

// testType is a minimal Schema for in-package tests; the schema package
// provides the real implementation and has its own tests.
type testType struct {
	name        string
	props       map[string]Property
	serverNames map[string]string
	opts        StringOptions
}

func (t *testType) Name() string { return t.name }

func (t *testType) Anonymous() bool { return len(t.props) == 0 }

func (t *testType) ResolveProperty(path string) (Property, bool) {
	p, ok := t.props[path]
	return p, ok
}

func (t *testType) ServerPath(path string) string {
	if s, ok := t.serverNames[path]; ok {
		return s
	}
	return path
}

func (t *testType) StringOptions() StringOptions { return t.opts }

func newOrderType() *testType {
	customer := &testType{
		name: "Customer",
		props: map[string]Property{
			"name": {DataType: TypeString},
			"city": {DataType: TypeString},
		},
		opts: DefaultStringOptions,
	}

	detail := &testType{
		name: "OrderDetail",
		props: map[string]Property{
			"quantity":  {DataType: TypeInt32},
			"unitPrice": {DataType: TypeFloat64},
		},
		opts: DefaultStringOptions,
	}

	return &testType{
		name: "Order",
		props: map[string]Property{
			"freight":       {DataType: TypeFloat64},
			"shipCity":      {DataType: TypeString},
			"shippedAt":     {DataType: TypeDateTime},
			"companyName":   {DataType: TypeString},
			"customer":      {IsNavigation: true, Target: customer},
			"customer.name": {DataType: TypeString},
			"customer.city": {DataType: TypeString},
			"details":       {IsNavigation: true, Target: detail},
		},
		serverNames: map[string]string{
			"freight":  "Freight",
			"shipCity": "ShipCity",
		},
		opts: DefaultStringOptions,
	}
}
