package configurator

import (
	"testing"
)

func TestToggleRadioReplacesPrevious(t *testing.T) {
	item := pizzaItem()
	crust := item.FindGroup("grp-crust")
	selections := make(SelectionState)

	selections.Toggle(crust, crust.FindOption("opt-thin"))
	selections.Toggle(crust, crust.FindOption("opt-thick"))

	if selections.Count("grp-crust") != 1 {
		t.Fatalf("radio group holds %d selections, want 1", selections.Count("grp-crust"))
	}
	if selections.Quantity("grp-crust", "opt-thick") != 1 {
		t.Error("expected opt-thick to be the surviving selection")
	}
	if selections.Quantity("grp-crust", "opt-thin") != 0 {
		t.Error("expected opt-thin to be replaced")
	}
}

func TestToggleOnOff(t *testing.T) {
	item := pizzaItem()
	toppings := item.FindGroup("grp-toppings")
	selections := make(SelectionState)

	if outcome := selections.Toggle(toppings, toppings.FindOption("opt-olives")); outcome != ChangeApplied {
		t.Fatalf("toggle on = %v, want ChangeApplied", outcome)
	}
	if outcome := selections.Toggle(toppings, toppings.FindOption("opt-olives")); outcome != ChangeApplied {
		t.Fatalf("toggle off = %v, want ChangeApplied", outcome)
	}
	if selections.Count("grp-toppings") != 0 {
		t.Errorf("group holds %d selections after toggle off, want 0", selections.Count("grp-toppings"))
	}
}

func TestIncrementQuantityCap(t *testing.T) {
	item := pizzaItem()
	toppings := item.FindGroup("grp-toppings")
	cheese := toppings.FindOption("opt-cheese") // MaxQuantity 3
	selections := make(SelectionState)

	for i := 0; i < 3; i++ {
		if outcome := selections.Increment(toppings, cheese); outcome != ChangeApplied {
			t.Fatalf("increment %d = %v, want ChangeApplied", i+1, outcome)
		}
	}
	if outcome := selections.Increment(toppings, cheese); outcome != ChangeIgnored {
		t.Errorf("increment past cap = %v, want ChangeIgnored", outcome)
	}
	if got := selections.Quantity("grp-toppings", "opt-cheese"); got != 3 {
		t.Errorf("quantity = %d, want 3", got)
	}
}

func TestIncrementDefaultQuantityCapIsOne(t *testing.T) {
	item := pizzaItem()
	toppings := item.FindGroup("grp-toppings")
	olives := toppings.FindOption("opt-olives") // no MaxQuantity set
	selections := make(SelectionState)

	selections.Increment(toppings, olives)
	if outcome := selections.Increment(toppings, olives); outcome != ChangeIgnored {
		t.Errorf("second increment = %v, want ChangeIgnored", outcome)
	}
}

func TestIncrementGroupFull(t *testing.T) {
	item := pizzaItem()
	toppings := item.FindGroup("grp-toppings") // MaxSelections 2
	selections := make(SelectionState)

	selections.Increment(toppings, toppings.FindOption("opt-cheese"))
	selections.Increment(toppings, toppings.FindOption("opt-olives"))

	if outcome := selections.Increment(toppings, toppings.FindOption("opt-mushroom")); outcome != ChangeGroupFull {
		t.Errorf("third distinct option = %v, want ChangeGroupFull", outcome)
	}
	if selections.Count("grp-toppings") != 2 {
		t.Errorf("group holds %d selections, want 2", selections.Count("grp-toppings"))
	}

	// Raising an already-selected option is not a new distinct selection and
	// must still work in a full group.
	if outcome := selections.Increment(toppings, toppings.FindOption("opt-cheese")); outcome != ChangeApplied {
		t.Errorf("increment of existing selection in full group = %v, want ChangeApplied", outcome)
	}
}

func TestDecrement(t *testing.T) {
	item := pizzaItem()
	toppings := item.FindGroup("grp-toppings")
	cheese := toppings.FindOption("opt-cheese")
	selections := make(SelectionState)

	if outcome := selections.Decrement(toppings, cheese); outcome != ChangeIgnored {
		t.Errorf("decrement of unselected option = %v, want ChangeIgnored", outcome)
	}

	selections.Increment(toppings, cheese)
	selections.Increment(toppings, cheese)
	selections.Decrement(toppings, cheese)
	if got := selections.Quantity("grp-toppings", "opt-cheese"); got != 1 {
		t.Errorf("quantity = %d, want 1", got)
	}

	selections.Decrement(toppings, cheese)
	if selections.Count("grp-toppings") != 0 {
		t.Error("expected the entry to be removed at quantity zero")
	}
}

func TestCloneIsDeep(t *testing.T) {
	item := pizzaItem()
	toppings := item.FindGroup("grp-toppings")
	selections := make(SelectionState)
	selections.Increment(toppings, toppings.FindOption("opt-cheese"))

	clone := selections.Clone()
	clone.Increment(toppings, toppings.FindOption("opt-cheese"))

	if got := selections.Quantity("grp-toppings", "opt-cheese"); got != 1 {
		t.Errorf("original quantity = %d after mutating clone, want 1", got)
	}
}
