package configurator

import (
	"fmt"

	"bistro/internal/models"
)

// Result is the outcome of validating an item's selections.
type Result struct {
	IsValid bool
	Message string
}

// Validate checks the selections against every option group's cardinality
// rules. Groups are visited in their declared order and the first violation
// wins; no aggregation is done, so the message identifies exactly one rule.
// Per group the precedence is: required, then minimum, then maximum.
func Validate(item *models.MenuItem, selections SelectionState) Result {
	for i := range item.OptionGroups {
		group := &item.OptionGroups[i]
		if !group.IsActive {
			continue
		}
		count := selections.Count(group.ID)
		minCount := group.EffectiveMin()
		if group.IsRequired && count < 1 {
			return Result{Message: fmt.Sprintf("%s is required", group.Name)}
		}
		if count < minCount {
			return Result{Message: fmt.Sprintf("select at least %d from %s", minCount, group.Name)}
		}
		if group.MaxSelections > 0 && count > group.MaxSelections {
			return Result{Message: fmt.Sprintf("select at most %d from %s", group.MaxSelections, group.Name)}
		}
	}
	return Result{IsValid: true}
}

// maxSelectionsMessage is the transient message shown when a new distinct
// option is rejected from a group already at its distinct-selection cap.
func maxSelectionsMessage(group *models.OptionGroup) string {
	return fmt.Sprintf("you can select at most %d from %s", group.MaxSelections, group.Name)
}
