package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles requests to the bistro storefront API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	UseMock    bool
}

// NewApiClient creates a new storefront client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("BISTRO_STOREFRONT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		UseMock: false, // Default to trying the real server first
	}

	// Verify connectivity - if server is not available, use mock data
	if !client.ping() {
		fmt.Printf("Warning: storefront at %s is not available. Using mock data.\n", baseURL)
		client.UseMock = true
	}

	return client
}

// ping checks if the storefront server is available
func (c *ApiClient) ping() bool {
	resp, err := http.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Invoice carries the server-computed money fields
type Invoice struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	DeliveryFee   float64 `json:"delivery_fee"`
	Tip           float64 `json:"tip"`
	Discount      float64 `json:"discount"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"payment_method"`
	AppliedOffer  string  `json:"applied_offer"`
}

// CartItem is one configured line in the cart
type CartItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Address is a saved delivery destination with its validation state
type Address struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Phone   string `json:"phone"`
	State   string `json:"state"`
}

// Offer is an eligible discount
type Offer struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	FreeItemID string  `json:"free_item_id"`
}

// Session mirrors the server-owned checkout state
type Session struct {
	OrderID          string     `json:"order_id"`
	Status           string     `json:"status"`
	Mode             string     `json:"mode"`
	PickupTime       *time.Time `json:"pickup_time"`
	SelectedAddress  *Address   `json:"selected_address"`
	QuoteCreated     bool       `json:"quote_created"`
	DeliveryProvider string     `json:"delivery_provider"`
	Invoice          Invoice    `json:"invoice"`
	Items            []CartItem `json:"items"`
}

// Steps is the derived wizard position
type Steps struct {
	Phase     string  `json:"phase"`
	Active    int     `json:"active"`
	Completed [4]bool `json:"completed"`
}

// CheckoutView is the storefront's combined checkout payload
type CheckoutView struct {
	Session  Session `json:"session"`
	Steps    Steps   `json:"steps"`
	InFlight bool    `json:"in_flight"`
	Provider string  `json:"provider"`
}

// Attach starts driving a checkout on the storefront
func (c *ApiClient) Attach(orderID string) (*CheckoutView, error) {
	if c.UseMock {
		return c.mockCheckout(orderID), nil
	}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/attach", orderID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetCheckout retrieves the current checkout view
func (c *ApiClient) GetCheckout(orderID string) (*CheckoutView, error) {
	if c.UseMock {
		return c.mockCheckout(orderID), nil
	}
	var view CheckoutView
	if err := c.get(fmt.Sprintf("/api/checkout/%s", orderID), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetSlots retrieves today's schedulable times for a mode
func (c *ApiClient) GetSlots(orderID, mode string) ([]string, error) {
	if c.UseMock {
		return []string{"12:00", "12:30", "13:00", "13:30"}, nil
	}
	var out struct {
		Slots []string `json:"slots"`
	}
	if err := c.get(fmt.Sprintf("/api/checkout/%s/slots?mode=%s", orderID, mode), &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

// SetMode sets pickup or delivery; an empty slot means ASAP
func (c *ApiClient) SetMode(orderID, mode, slot string) (*CheckoutView, error) {
	if c.UseMock {
		view := c.mockCheckout(orderID)
		view.Session.Mode = mode
		return view, nil
	}
	body := map[string]string{"mode": mode, "slot": slot}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/mode", orderID), body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetAddresses lists saved addresses with their validation states
func (c *ApiClient) GetAddresses(orderID string) ([]Address, error) {
	if c.UseMock {
		return []Address{
			{ID: "addr-home", Name: "Home", Street: "12 Vine St", City: "Springfield", ZipCode: "10001", Phone: "555-0100", State: "unchecked"},
			{ID: "addr-office", Name: "Office", Street: "400 Main Ave", City: "Springfield", ZipCode: "10002", Phone: "555-0101", State: "unchecked"},
		}, nil
	}
	var out []Address
	if err := c.get(fmt.Sprintf("/api/checkout/%s/addresses", orderID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SelectAddress validates an address and requests a delivery quote
func (c *ApiClient) SelectAddress(orderID, addressID string) (*CheckoutView, error) {
	if c.UseMock {
		return c.mockCheckout(orderID), nil
	}
	body := map[string]string{"address_id": addressID}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/address", orderID), body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// SetProvider picks the delivery provider; empty means auto-select
func (c *ApiClient) SetProvider(orderID, provider string) error {
	if c.UseMock {
		return nil
	}
	body := map[string]string{"provider": provider}
	return c.post(fmt.Sprintf("/api/checkout/%s/provider", orderID), body, nil)
}

// SetTip sets the tip amount
func (c *ApiClient) SetTip(orderID string, amount float64) (*CheckoutView, error) {
	if c.UseMock {
		view := c.mockCheckout(orderID)
		view.Session.Invoice.Tip = amount
		return view, nil
	}
	body := map[string]float64{"amount": amount}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/tip", orderID), body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// SetPaymentMethod sets online or offline payment
func (c *ApiClient) SetPaymentMethod(orderID, method string) (*CheckoutView, error) {
	if c.UseMock {
		view := c.mockCheckout(orderID)
		view.Session.Invoice.PaymentMethod = method
		return view, nil
	}
	body := map[string]string{"method": method}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/payment-method", orderID), body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetOffers lists the eligible offers
func (c *ApiClient) GetOffers(orderID string) ([]Offer, error) {
	if c.UseMock {
		return []Offer{
			{ID: "offer-10pct", Code: "TEN", Name: "10% off", Type: "percentage", Value: 10},
			{ID: "offer-5off", Code: "FIVER", Name: "5.00 off", Type: "flat", Value: 5},
		}, nil
	}
	var out []Offer
	if err := c.get(fmt.Sprintf("/api/checkout/%s/offers", orderID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyOffer applies a simple offer (free-item offers need the web flow)
func (c *ApiClient) ApplyOffer(orderID string, offer Offer) (*CheckoutView, error) {
	if c.UseMock {
		view := c.mockCheckout(orderID)
		view.Session.Invoice.AppliedOffer = offer.ID
		return view, nil
	}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/offers/apply", orderID), offer, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// RemoveOffer removes the active offer
func (c *ApiClient) RemoveOffer(orderID string) (*CheckoutView, error) {
	if c.UseMock {
		return c.mockCheckout(orderID), nil
	}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/offers/remove", orderID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Confirm places the order
func (c *ApiClient) Confirm(orderID string) (*CheckoutView, error) {
	if c.UseMock {
		view := c.mockCheckout(orderID)
		view.Session.Status = "confirmed"
		return view, nil
	}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/confirm", orderID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Cancel abandons the checkout
func (c *ApiClient) Cancel(orderID string) (*CheckoutView, error) {
	if c.UseMock {
		view := c.mockCheckout(orderID)
		view.Session.Status = "cancelled"
		return view, nil
	}
	var view CheckoutView
	if err := c.post(fmt.Sprintf("/api/checkout/%s/cancel", orderID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *ApiClient) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request failed: %s", apiErrorMessage(body, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *ApiClient) post(path string, payload, out interface{}) error {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return err
		}
	} else {
		buf.WriteString("{}")
	}

	req, err := http.NewRequest("POST", c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request failed: %s", apiErrorMessage(body, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func apiErrorMessage(body []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("status code %d", status)
}

// mockCheckout generates a checkout view for offline demos
func (c *ApiClient) mockCheckout(orderID string) *CheckoutView {
	return &CheckoutView{
		Session: Session{
			OrderID: orderID,
			Status:  "open",
			Items: []CartItem{
				{ID: "line-1", Name: "Margherita Pizza", Quantity: 1, UnitPrice: 12.50, LineTotal: 12.50},
			},
			Invoice: Invoice{
				Subtotal: 12.50,
				Tax:      1.00,
				Total:    13.50,
			},
		},
		Steps: Steps{Phase: "active", Active: 1},
	}
}
