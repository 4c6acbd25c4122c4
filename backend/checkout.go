package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bistro/internal/configurator"
	"bistro/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const taxRate = 0.08

// asapGrace separates an ASAP pickup timestamp (sent as "now") from a
// genuinely scheduled slot during lead-time re-validation.
const asapGrace = time.Minute

// stubOffers is the offer catalog the stub reports for every order.
var stubOffers = []models.Offer{
	{ID: "offer-10pct", Code: "TEN", Name: "10% off", Type: models.OfferPercentage, Value: 10},
	{ID: "offer-5off", Code: "FIVER", Name: "5.00 off", Type: models.OfferFlat, Value: 5},
	{ID: "offer-free-bread", Code: "BREAD", Name: "Free garlic bread", Type: models.OfferFreeAddition, FreeItemID: "item-garlic-bread"},
}

var providerFees = map[string]float64{
	"doordash": 3.99,
	"ubereats": 4.99,
}

// InitializeCheckoutRoutes configures the checkout mutator endpoints.
func InitializeCheckoutRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", CreateCheckout)
	router.GET("/checkout/:orderID", GetCheckout)
	router.POST("/checkout/:orderID/mode", SetMode)
	router.POST("/checkout/:orderID/address", SelectAddress)
	router.POST("/checkout/:orderID/quote", RequestQuote)
	router.POST("/checkout/:orderID/tip", SetTip)
	router.POST("/checkout/:orderID/payment-method", SetPaymentMethod)
	router.POST("/checkout/:orderID/instructions", SetInstructions)
	router.GET("/checkout/:orderID/offers", GetOffers)
	router.POST("/checkout/:orderID/offers/apply", ApplyOffer)
	router.POST("/checkout/:orderID/offers/remove", RemoveOffer)
	router.POST("/checkout/:orderID/confirm", ConfirmOrder)
	router.POST("/checkout/:orderID/cancel", CancelCheckout)
	router.POST("/payments/charge", Charge)
}

func newID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// loadOpenCheckout fetches a checkout that can still be mutated. A missing
// or terminated checkout answers with the no_active_checkout code so the
// client renders its fatal-session state.
func loadOpenCheckout(c *gin.Context) (*Checkout, bool) {
	var co Checkout
	err := GetDB().Preload("Items").Where("order_id = ?", c.Param("orderID")).First(&co).Error
	if err != nil || co.Status != "open" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active checkout found", "code": "no_active_checkout"})
		return nil, false
	}
	return &co, true
}

// CreateCheckout opens a new checkout session with the demo cart.
func CreateCheckout(c *gin.Context) {
	co := Checkout{
		OrderID: newID("order"),
		Status:  "open",
		Items: []CheckoutItem{
			{ItemID: newID("line"), MenuItemID: "item-margherita", Name: "Margherita Pizza", Quantity: 1, UnitPrice: 12.50},
		},
	}
	if err := GetDB().Create(&co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, buildSession(&co))
}

// GetCheckout returns the canonical checkout session.
func GetCheckout(c *gin.Context) {
	var co Checkout
	err := GetDB().Preload("Items").Where("order_id = ?", c.Param("orderID")).First(&co).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active checkout found", "code": "no_active_checkout"})
		return
	}
	c.JSON(http.StatusOK, buildSession(&co))
}

// SetMode sets the order mode. Pickup must carry a timestamp, delivery may
// carry null meaning ASAP. Scheduled times are re-validated against the
// mode's lead time here regardless of what the client checked.
func SetMode(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		Mode       string     `json:"mode"`
		PickupTime *time.Time `json:"pickup_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lead time.Duration
	switch req.Mode {
	case "pickup":
		if req.PickupTime == nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "pickup requires a pickup_time"})
			return
		}
		lead = 30 * time.Minute
	case "delivery":
		lead = 45 * time.Minute
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order mode"})
		return
	}

	if req.PickupTime != nil {
		now := time.Now()
		t := *req.PickupTime
		if t.After(now.Add(asapGrace)) && t.Before(now.Add(lead)) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "requested time is too soon",
				"code":  "pickup_time_too_soon",
			})
			return
		}
	}

	co.Mode = req.Mode
	co.PickupTime = req.PickupTime
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// SelectAddress attaches a saved address to the checkout. Selecting an
// address invalidates any previous quote.
func SelectAddress(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		AddressID string `json:"address_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var addr SavedAddress
	if err := GetDB().Where("address_id = ?", req.AddressID).First(&addr).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
		return
	}

	co.AddressID = req.AddressID
	co.QuoteCreated = false
	co.DeliveryFee = 0
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// RequestQuote runs delivery eligibility for the selected address and, when
// it passes, records the normalized provider and fee.
func RequestQuote(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if co.AddressID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "no address selected",
			"code":  "invalid_delivery_parameters",
		})
		return
	}
	var addr SavedAddress
	if err := GetDB().Where("address_id = ?", co.AddressID).First(&addr).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
		return
	}

	// Stub eligibility rules: far zip codes are out of range, and an
	// address without a phone cannot be dispatched.
	if addr.ZipCode >= "90000" {
		failQuote(c, co, "address is out of the delivery area", "distance_too_long")
		return
	}
	if addr.Phone == "" {
		failQuote(c, co, "address is missing delivery details", "invalid_delivery_parameters")
		return
	}

	provider := strings.ToLower(req.Provider)
	if _, known := providerFees[provider]; !known {
		provider = "doordash"
	}

	co.Provider = provider
	co.DeliveryFee = providerFees[provider]
	co.QuoteCreated = true
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": provider, "fee": co.DeliveryFee})
}

func failQuote(c *gin.Context, co *Checkout, message, code string) {
	co.QuoteCreated = false
	co.Provider = ""
	co.DeliveryFee = 0
	GetDB().Save(co)
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": message, "code": code})
}

// SetTip sets the tip amount.
func SetTip(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "tip must not be negative"})
		return
	}
	co.Tip = req.Amount
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// SetPaymentMethod sets the payment method.
func SetPaymentMethod(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		Method string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Method != "online" && req.Method != "offline" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown payment method"})
		return
	}
	co.PaymentMethod = req.Method
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// SetInstructions updates the free-text notes.
func SetInstructions(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		RestaurantNote string `json:"restaurant_note"`
		DeliveryNote   string `json:"delivery_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co.RestaurantNote = req.RestaurantNote
	co.DeliveryNote = req.DeliveryNote
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// GetOffers lists the offers the order is eligible for.
func GetOffers(c *gin.Context) {
	if _, ok := loadOpenCheckout(c); !ok {
		return
	}
	c.JSON(http.StatusOK, stubOffers)
}

// ApplyOffer applies an offer. Free-item offers must arrive with a
// configuration that satisfies the free item's option rules; the stub
// re-validates it with the same rules engine the client uses.
func ApplyOffer(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	var req struct {
		OfferID     string                  `json:"offer_id"`
		VariationID string                  `json:"variation_id"`
		FreeItemID  string                  `json:"free_item_id"`
		Options     []models.CartItemOption `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if co.AppliedOffer != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "an offer is already applied"})
		return
	}

	var offer *models.Offer
	for i := range stubOffers {
		if stubOffers[i].ID == req.OfferID {
			offer = &stubOffers[i]
			break
		}
	}
	if offer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
		return
	}

	if offer.Type == models.OfferFreeAddition {
		item, found := catalog[offer.FreeItemID]
		if !found {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "free item missing from catalog"})
			return
		}
		selections := make(configurator.SelectionState)
		for _, opt := range req.Options {
			if selections[opt.GroupID] == nil {
				selections[opt.GroupID] = make(map[string]int)
			}
			selections[opt.GroupID][opt.OptionID] = opt.Quantity
		}
		if result := configurator.Validate(&item, selections); !result.IsValid {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Message})
			return
		}
		optionsJSON, _ := json.Marshal(req.Options)
		free := CheckoutItem{
			CheckoutID:  co.ID,
			ItemID:      newID("line"),
			MenuItemID:  item.ID,
			Name:        item.Name,
			VariationID: req.VariationID,
			OptionsJSON: string(optionsJSON),
			Quantity:    1,
			UnitPrice:   0,
			IsFreeItem:  true,
		}
		if err := GetDB().Create(&free).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	co.AppliedOffer = offer.ID
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// RemoveOffer removes the active offer and any free item it added.
func RemoveOffer(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	GetDB().Where("checkout_id = ? AND is_free_item = ?", co.ID, true).Delete(&CheckoutItem{})
	co.AppliedOffer = ""
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// ConfirmOrder confirms a checkout once it is complete.
func ConfirmOrder(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	if co.Mode == "" || co.PaymentMethod == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "checkout is not complete"})
		return
	}
	if co.Mode == "delivery" && (co.AddressID == "" || !co.QuoteCreated) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "delivery details are not complete"})
		return
	}
	co.Status = "confirmed"
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// CancelCheckout cancels a checkout.
func CancelCheckout(c *gin.Context) {
	co, ok := loadOpenCheckout(c)
	if !ok {
		return
	}
	co.Status = "cancelled"
	if err := GetDB().Save(co).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildSession(co))
}

// Charge interprets a tokenized payment. The token "tok-declined" simulates
// a gateway decline.
func Charge(c *gin.Context) {
	var req struct {
		OrderID string  `json:"order_id"`
		Token   string  `json:"token"`
		Amount  float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment token"})
		return
	}
	if req.Token == "tok-declined" {
		c.JSON(http.StatusOK, gin.H{"code": "declined", "message": "card was declined"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "approved", "message": "payment approved"})
}

// buildSession projects a stored checkout into the wire shape. All money
// fields are recomputed here; the backend is the pricing authority.
func buildSession(co *Checkout) models.CheckoutSession {
	session := models.CheckoutSession{
		OrderID:          co.OrderID,
		Status:           models.CheckoutStatus(co.Status),
		Mode:             models.OrderMode(co.Mode),
		PickupTime:       co.PickupTime,
		QuoteCreated:     co.QuoteCreated,
		DeliveryProvider: co.Provider,
		RestaurantNote:   co.RestaurantNote,
		DeliveryNote:     co.DeliveryNote,
	}

	if co.AddressID != "" {
		var addr SavedAddress
		if err := GetDB().Where("address_id = ?", co.AddressID).First(&addr).Error; err == nil {
			a := toAddress(addr)
			session.SelectedAddress = &a
		}
	}

	var subtotal float64
	for _, item := range co.Items {
		var options []models.CartItemOption
		if item.OptionsJSON != "" {
			json.Unmarshal([]byte(item.OptionsJSON), &options)
		}
		lineTotal := item.UnitPrice * float64(item.Quantity)
		subtotal += lineTotal
		session.Items = append(session.Items, models.CartItem{
			ID:          item.ItemID,
			MenuItemID:  item.MenuItemID,
			Name:        item.Name,
			VariationID: item.VariationID,
			Options:     options,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   lineTotal,
		})
	}

	var discount float64
	for _, offer := range stubOffers {
		if offer.ID != co.AppliedOffer {
			continue
		}
		switch offer.Type {
		case models.OfferPercentage:
			discount = subtotal * offer.Value / 100
		case models.OfferFlat:
			discount = offer.Value
		}
	}
	if discount > subtotal {
		discount = subtotal
	}

	deliveryFee := 0.0
	if co.Mode == "delivery" && co.QuoteCreated {
		deliveryFee = co.DeliveryFee
	}
	tax := (subtotal - discount) * taxRate

	session.Invoice = models.Invoice{
		Subtotal:      subtotal,
		Tax:           tax,
		DeliveryFee:   deliveryFee,
		Tip:           co.Tip,
		Discount:      discount,
		Total:         subtotal - discount + tax + deliveryFee + co.Tip,
		PaymentMethod: models.PaymentMethod(co.PaymentMethod),
		AppliedOffer:  co.AppliedOffer,
	}
	return session
}
