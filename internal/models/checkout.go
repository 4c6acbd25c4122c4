package models

import "time"

// OrderMode is how the customer receives the order.
type OrderMode string

const (
	ModeUnset    OrderMode = ""
	ModePickup   OrderMode = "pickup"
	ModeDelivery OrderMode = "delivery"
)

// PaymentMethod is how the customer pays for the order.
type PaymentMethod string

const (
	PaymentNone    PaymentMethod = ""
	PaymentOnline  PaymentMethod = "online"
	PaymentOffline PaymentMethod = "offline"
)

// CheckoutStatus represents the lifecycle of a checkout session as the
// backend reports it.
type CheckoutStatus string

const (
	CheckoutStatusOpen      CheckoutStatus = "open"
	CheckoutStatusConfirmed CheckoutStatus = "confirmed"
	CheckoutStatusCancelled CheckoutStatus = "cancelled"
)

// CheckoutSession mirrors the server-owned checkout aggregate. The client
// never mutates it directly; every change goes through a named backend
// mutator followed by a full re-fetch.
type CheckoutSession struct {
	OrderID          string         `json:"order_id"`
	Status           CheckoutStatus `json:"status"`
	Mode             OrderMode      `json:"mode"`
	PickupTime       *time.Time     `json:"pickup_time"` // nil means ASAP (delivery only)
	SelectedAddress  *Address       `json:"selected_address"`
	QuoteCreated     bool           `json:"quote_created"`
	DeliveryProvider string         `json:"delivery_provider"`
	Invoice          Invoice        `json:"invoice"`
	RestaurantNote   string         `json:"restaurant_note"`
	DeliveryNote     string         `json:"delivery_note"`
	Items            []CartItem     `json:"items"`
}

// Invoice carries the backend-computed money fields. The client treats every
// value here as authoritative.
type Invoice struct {
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	DeliveryFee   float64       `json:"delivery_fee"`
	Tip           float64       `json:"tip"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	AppliedOffer  string        `json:"applied_offer"`
}

// CartItem is one configured line in the checkout's cart mirror.
type CartItem struct {
	ID          string             `json:"id"`
	MenuItemID  string             `json:"menu_item_id"`
	Name        string             `json:"name"`
	VariationID string             `json:"variation_id"`
	Options     []CartItemOption   `json:"options"`
	Quantity    int                `json:"quantity"`
	UnitPrice   float64            `json:"unit_price"`
	LineTotal   float64            `json:"line_total"`
}

// CartItemOption records one selected option with its quantity.
type CartItemOption struct {
	GroupID  string `json:"group_id"`
	OptionID string `json:"option_id"`
	Quantity int    `json:"quantity"`
}

// Address is a saved delivery destination.
type Address struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Phone   string `json:"phone"`
}

// Branch carries the operating hours needed for slot generation.
// Times are "HH:MM" strings in the branch's local day.
type Branch struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
}

// HasAddress reports whether the session has a selected delivery address.
func (s *CheckoutSession) HasAddress() bool {
	return s.SelectedAddress != nil && s.SelectedAddress.ID != ""
}

// HasPaymentMethod reports whether a payment method has been chosen.
func (s *CheckoutSession) HasPaymentMethod() bool {
	return s.Invoice.PaymentMethod != PaymentNone
}

// IsTerminal reports whether the session can no longer be mutated.
func (s *CheckoutSession) IsTerminal() bool {
	return s.Status == CheckoutStatusConfirmed || s.Status == CheckoutStatusCancelled
}
