package configurator

import "bistro/internal/models"

// ComputeTotal returns the preview price for a configured item:
//
//	(base + variation adjustment + sum of option adjustment x quantity) x item quantity
//
// Pure and deterministic. Ids in the selection state that the item snapshot
// no longer knows contribute 0, so a stale selection surviving an item-data
// refresh cannot poison the total. The value is advisory only; the invoice
// the backend returns is authoritative and may legitimately differ.
func ComputeTotal(item *models.MenuItem, variationID string, selections SelectionState, quantity int) float64 {
	unit := item.BasePrice
	if v := item.FindVariation(variationID); v != nil {
		unit += v.PriceAdjustment
	}
	for groupID, opts := range selections {
		group := item.FindGroup(groupID)
		if group == nil {
			continue
		}
		for optionID, qty := range opts {
			option := group.FindOption(optionID)
			if option == nil {
				continue
			}
			unit += option.PriceAdjustment * float64(qty)
		}
	}
	return unit * float64(quantity)
}
