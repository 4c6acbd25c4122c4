package configurator

import (
	"testing"

	"bistro/internal/models"
)

// pizzaItem builds the fixture used across the configurator tests: a base
// price of 10.00, a size variation, a required crust radio and a bounded
// toppings group with one stepper option.
func pizzaItem() *models.MenuItem {
	return &models.MenuItem{
		ID:        "item-pizza",
		Name:      "Pizza",
		BasePrice: 10.00,
		Variations: []models.Variation{
			{ID: "var-regular", Name: "Regular", PriceAdjustment: 0},
			{ID: "var-large", Name: "Large", PriceAdjustment: 1.50},
		},
		OptionGroups: []models.OptionGroup{
			{
				ID: "grp-crust", Name: "Crust", IsRequired: true, MaxSelections: 1, IsActive: true,
				Options: []models.Option{
					{ID: "opt-thin", Name: "Thin", IsActive: true},
					{ID: "opt-thick", Name: "Thick", PriceAdjustment: 0.75, IsActive: true},
				},
			},
			{
				ID: "grp-toppings", Name: "Toppings", MaxSelections: 2, IsActive: true,
				Options: []models.Option{
					{ID: "opt-cheese", Name: "Extra Cheese", PriceAdjustment: 0.50, MaxQuantity: 3, IsActive: true},
					{ID: "opt-olives", Name: "Olives", PriceAdjustment: 0.40, IsActive: true},
					{ID: "opt-mushroom", Name: "Mushroom", PriceAdjustment: 0.60, IsActive: true},
				},
			},
		},
	}
}

func TestValidateRequiredGroup(t *testing.T) {
	item := pizzaItem()
	selections := make(SelectionState)

	result := Validate(item, selections)
	if result.IsValid {
		t.Fatal("Validate() accepted an empty required group")
	}
	if result.Message != "Crust is required" {
		t.Errorf("Validate() message = %q, want %q", result.Message, "Crust is required")
	}

	selections.Toggle(item.FindGroup("grp-crust"), item.FindGroup("grp-crust").FindOption("opt-thin"))
	result = Validate(item, selections)
	if !result.IsValid {
		t.Errorf("Validate() rejected a satisfied required group: %q", result.Message)
	}
}

func TestValidateFirstViolationWins(t *testing.T) {
	item := pizzaItem()
	// Make both groups violate: crust empty, toppings over its cap.
	selections := SelectionState{
		"grp-toppings": {"opt-cheese": 1, "opt-olives": 1, "opt-mushroom": 1},
	}

	result := Validate(item, selections)
	if result.IsValid {
		t.Fatal("Validate() accepted two violated groups")
	}
	// Groups are checked in declared order; the crust message must win.
	if result.Message != "Crust is required" {
		t.Errorf("Validate() message = %q, want the first declared group's violation", result.Message)
	}
}

func TestValidateRulePrecedence(t *testing.T) {
	item := &models.MenuItem{
		ID: "item-x", Name: "X",
		OptionGroups: []models.OptionGroup{
			{
				ID: "grp-sides", Name: "Sides", IsRequired: true, MinSelections: 2, MaxSelections: 3, IsActive: true,
				Options: []models.Option{
					{ID: "opt-a", IsActive: true},
					{ID: "opt-b", IsActive: true},
					{ID: "opt-c", IsActive: true},
					{ID: "opt-d", IsActive: true},
				},
			},
		},
	}

	cases := []struct {
		name       string
		selections SelectionState
		want       string
	}{
		{"empty reports required before minimum", SelectionState{}, "Sides is required"},
		{"below minimum", SelectionState{"grp-sides": {"opt-a": 1}}, "select at least 2 from Sides"},
		{"above maximum", SelectionState{"grp-sides": {"opt-a": 1, "opt-b": 1, "opt-c": 1, "opt-d": 1}}, "select at most 3 from Sides"},
	}
	for _, tc := range cases {
		result := Validate(item, tc.selections)
		if result.IsValid {
			t.Errorf("%s: Validate() = valid, want %q", tc.name, tc.want)
			continue
		}
		if result.Message != tc.want {
			t.Errorf("%s: Validate() message = %q, want %q", tc.name, result.Message, tc.want)
		}
	}
}

func TestValidateSkipsInactiveGroups(t *testing.T) {
	item := pizzaItem()
	item.OptionGroups[0].IsActive = false

	result := Validate(item, make(SelectionState))
	if !result.IsValid {
		t.Errorf("Validate() enforced an inactive group: %q", result.Message)
	}
}

func TestValidateQuantityDoesNotInflateCount(t *testing.T) {
	item := pizzaItem()
	// One distinct topping at quantity 3 is one selection, not three.
	selections := SelectionState{
		"grp-crust":    {"opt-thin": 1},
		"grp-toppings": {"opt-cheese": 3},
	}

	result := Validate(item, selections)
	if !result.IsValid {
		t.Errorf("Validate() counted quantity as distinct selections: %q", result.Message)
	}
}
