package models

import "testing"

func TestEffectiveMaxQuantityDefaultsToOne(t *testing.T) {
	o := Option{ID: "opt-a"}
	if got := o.EffectiveMaxQuantity(); got != 1 {
		t.Errorf("EffectiveMaxQuantity() = %d, want 1", got)
	}

	o.MaxQuantity = 3
	if got := o.EffectiveMaxQuantity(); got != 3 {
		t.Errorf("EffectiveMaxQuantity() = %d, want 3", got)
	}
}

func TestIsRadio(t *testing.T) {
	g := OptionGroup{MaxSelections: 1}
	if !g.IsRadio() {
		t.Error("IsRadio() = false for MaxSelections 1, want true")
	}
	g.MaxSelections = 2
	if g.IsRadio() {
		t.Error("IsRadio() = true for MaxSelections 2, want false")
	}
	g.MaxSelections = 0
	if g.IsRadio() {
		t.Error("IsRadio() = true for unbounded group, want false")
	}
}

func TestEffectiveMin(t *testing.T) {
	g := OptionGroup{IsRequired: true}
	if got := g.EffectiveMin(); got != 1 {
		t.Errorf("EffectiveMin() = %d for required group, want 1", got)
	}

	g.MinSelections = 2
	if got := g.EffectiveMin(); got != 2 {
		t.Errorf("EffectiveMin() = %d, want 2", got)
	}

	g = OptionGroup{MinSelections: 0}
	if got := g.EffectiveMin(); got != 0 {
		t.Errorf("EffectiveMin() = %d for optional group, want 0", got)
	}
}

func TestDefaultVariationID(t *testing.T) {
	item := MenuItem{}
	if got := item.DefaultVariationID(); got != "" {
		t.Errorf("DefaultVariationID() = %q for item without variations, want empty", got)
	}

	item.Variations = []Variation{{ID: "var-a"}, {ID: "var-b"}}
	if got := item.DefaultVariationID(); got != "var-a" {
		t.Errorf("DefaultVariationID() = %q, want the first declared", got)
	}
}

func TestValidateMenuItem(t *testing.T) {
	item := &MenuItem{ID: "item-1", Name: "Pizza", BasePrice: 10}
	if err := ValidateMenuItem(item); err != nil {
		t.Errorf("ValidateMenuItem() error for valid item: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*MenuItem)
	}{
		{"missing id", func(i *MenuItem) { i.ID = "" }},
		{"missing name", func(i *MenuItem) { i.Name = "" }},
		{"negative price", func(i *MenuItem) { i.BasePrice = -1 }},
		{"group without id", func(i *MenuItem) {
			i.OptionGroups = []OptionGroup{{Name: "Toppings"}}
		}},
		{"option without id", func(i *MenuItem) {
			i.OptionGroups = []OptionGroup{{ID: "grp-1", Options: []Option{{Name: "Cheese"}}}}
		}},
	}
	for _, tc := range cases {
		bad := &MenuItem{ID: "item-1", Name: "Pizza", BasePrice: 10}
		tc.mutate(bad)
		if err := ValidateMenuItem(bad); err == nil {
			t.Errorf("%s: ValidateMenuItem() accepted an invalid item", tc.name)
		}
	}
}

func TestCheckoutSessionHelpers(t *testing.T) {
	s := &CheckoutSession{OrderID: "order-1", Status: CheckoutStatusOpen}
	if s.HasAddress() {
		t.Error("HasAddress() = true without an address")
	}
	if s.HasPaymentMethod() {
		t.Error("HasPaymentMethod() = true without a method")
	}
	if s.IsTerminal() {
		t.Error("IsTerminal() = true for an open session")
	}

	s.SelectedAddress = &Address{ID: "addr-1"}
	s.Invoice.PaymentMethod = PaymentOffline
	if !s.HasAddress() || !s.HasPaymentMethod() {
		t.Error("expected address and payment helpers to report true")
	}

	s.Status = CheckoutStatusConfirmed
	if !s.IsTerminal() {
		t.Error("IsTerminal() = false for a confirmed session")
	}
}
