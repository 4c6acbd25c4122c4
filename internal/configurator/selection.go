package configurator

import "bistro/internal/models"

// SelectionState maps option group id to the chosen options of that group,
// each with a quantity of at least 1. Absence of a key means unselected.
// The distinct-key count of a group's inner map is its selection count;
// quantity magnitude never inflates that count.
type SelectionState map[string]map[string]int

// ChangeOutcome reports what a selection-change attempt did.
type ChangeOutcome int

const (
	// ChangeApplied means the state was updated.
	ChangeApplied ChangeOutcome = iota
	// ChangeIgnored means the attempt was silently rejected
	// (quantity underflow or overflow past the option's cap).
	ChangeIgnored
	// ChangeGroupFull means a new distinct option was rejected because the
	// group already holds its maximum number of distinct selections.
	ChangeGroupFull
)

// Clone returns a deep copy of the selection state.
func (s SelectionState) Clone() SelectionState {
	out := make(SelectionState, len(s))
	for gid, opts := range s {
		inner := make(map[string]int, len(opts))
		for oid, qty := range opts {
			inner[oid] = qty
		}
		out[gid] = inner
	}
	return out
}

// Count returns the number of distinct options selected in a group.
func (s SelectionState) Count(groupID string) int {
	return len(s[groupID])
}

// Quantity returns the selected quantity for an option, 0 if unselected.
func (s SelectionState) Quantity(groupID, optionID string) int {
	return s[groupID][optionID]
}

// Toggle flips a toggle-style option on or off. For a radio group the whole
// group map is replaced with the new option atomically rather than removing
// the old entry first, so the group never transits through an empty state
// that would violate a required-group rule.
func (s SelectionState) Toggle(group *models.OptionGroup, option *models.Option) ChangeOutcome {
	if s[group.ID][option.ID] > 0 {
		return s.remove(group.ID, option.ID)
	}
	if group.IsRadio() {
		s[group.ID] = map[string]int{option.ID: 1}
		return ChangeApplied
	}
	return s.addDistinct(group, option.ID, 1)
}

// Increment raises a stepper option's quantity by one. Stepping past the
// option's quantity cap is rejected silently; adding a new distinct option
// to a group already at its distinct-selection cap reports ChangeGroupFull.
func (s SelectionState) Increment(group *models.OptionGroup, option *models.Option) ChangeOutcome {
	cur := s[group.ID][option.ID]
	if cur >= option.EffectiveMaxQuantity() {
		return ChangeIgnored
	}
	if cur == 0 {
		if group.IsRadio() {
			s[group.ID] = map[string]int{option.ID: 1}
			return ChangeApplied
		}
		return s.addDistinct(group, option.ID, 1)
	}
	s[group.ID][option.ID] = cur + 1
	return ChangeApplied
}

// Decrement lowers a stepper option's quantity by one, removing the entry
// at zero. Stepping below zero is rejected silently.
func (s SelectionState) Decrement(group *models.OptionGroup, option *models.Option) ChangeOutcome {
	cur := s[group.ID][option.ID]
	if cur <= 0 {
		return ChangeIgnored
	}
	if cur == 1 {
		return s.remove(group.ID, option.ID)
	}
	s[group.ID][option.ID] = cur - 1
	return ChangeApplied
}

func (s SelectionState) addDistinct(group *models.OptionGroup, optionID string, qty int) ChangeOutcome {
	if group.MaxSelections > 0 && len(s[group.ID]) >= group.MaxSelections {
		return ChangeGroupFull
	}
	if s[group.ID] == nil {
		s[group.ID] = make(map[string]int)
	}
	s[group.ID][optionID] = qty
	return ChangeApplied
}

func (s SelectionState) remove(groupID, optionID string) ChangeOutcome {
	delete(s[groupID], optionID)
	if len(s[groupID]) == 0 {
		delete(s, groupID)
	}
	return ChangeApplied
}
