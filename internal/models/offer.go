package models

// OfferType distinguishes how an offer changes the invoice.
type OfferType string

const (
	OfferPercentage   OfferType = "percentage"
	OfferFlat         OfferType = "flat"
	OfferFreeAddition OfferType = "FREE_ITEM_ADDITION"
)

// Offer is an eligible discount the backend reports for an order.
type Offer struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        OfferType `json:"type"`
	Value       float64   `json:"value"` // percentage or flat amount
	FreeItemID  string    `json:"free_item_id"`
	Description string    `json:"description"`
}

// RequiresConfiguration reports whether the offer needs a secondary item
// configuration step before it can be applied.
func (o *Offer) RequiresConfiguration() bool {
	return o.Type == OfferFreeAddition
}
