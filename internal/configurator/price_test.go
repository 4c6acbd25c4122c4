package configurator

import (
	"math"
	"testing"
)

func TestComputeTotal(t *testing.T) {
	item := pizzaItem()
	selections := SelectionState{
		"grp-toppings": {"opt-cheese": 2},
	}

	// 10.00 base + 1.50 large + 2 x 0.50 cheese = 12.50
	got := ComputeTotal(item, "var-large", selections, 1)
	if math.Abs(got-12.50) > 1e-9 {
		t.Errorf("ComputeTotal() = %.2f, want 12.50", got)
	}
}

func TestComputeTotalScalesLinearly(t *testing.T) {
	item := pizzaItem()
	selections := SelectionState{
		"grp-crust":    {"opt-thick": 1},
		"grp-toppings": {"opt-cheese": 3, "opt-olives": 1},
	}

	unit := ComputeTotal(item, "var-regular", selections, 1)
	for q := 2; q <= 5; q++ {
		got := ComputeTotal(item, "var-regular", selections, q)
		want := unit * float64(q)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("ComputeTotal(quantity=%d) = %.2f, want %.2f", q, got, want)
		}
	}
}

func TestComputeTotalIgnoresUnknownIDs(t *testing.T) {
	item := pizzaItem()
	selections := SelectionState{
		"grp-toppings": {"opt-retired": 4},
		"grp-gone":     {"opt-whatever": 1},
	}

	// Stale ids must contribute nothing, and an unknown variation falls back
	// to the bare base price.
	got := ComputeTotal(item, "var-retired", selections, 1)
	if math.Abs(got-10.00) > 1e-9 {
		t.Errorf("ComputeTotal() = %.2f, want 10.00", got)
	}
}

func TestComputeTotalNoVariations(t *testing.T) {
	item := pizzaItem()
	item.Variations = nil

	got := ComputeTotal(item, "", make(SelectionState), 2)
	if math.Abs(got-20.00) > 1e-9 {
		t.Errorf("ComputeTotal() = %.2f, want 20.00", got)
	}
}
