// Package client is the JSON/HTTP client for the remote order-management
// backend. It is a thin request wrapper: every call maps to exactly one
// backend endpoint and no state is kept between calls. Authoritative state
// always lives on the server; callers re-fetch the checkout session after
// every mutator.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"bistro/internal/models"
)

// Error codes the backend attaches to failed mutator calls. The delivery
// orchestrator uses these to pick a user-facing message.
const (
	CodeDistanceTooLong       = "distance_too_long"
	CodeInvalidDeliveryParams = "invalid_delivery_parameters"
	CodeNoActiveCheckout      = "no_active_checkout"
	CodeSlotTooSoon           = "pickup_time_too_soon"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// ErrorCode extracts the backend error code from an error, if present.
func ErrorCode(err error) string {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Code
	}
	return ""
}

// IsNoCheckout reports whether an error means the checkout session is gone
// on the server (expired or never created). Callers render a full-page
// error state for this instead of a dismissible notification.
func IsNoCheckout(err error) bool {
	return ErrorCode(err) == CodeNoActiveCheckout
}

// ApiClient handles API requests to the order-management backend.
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	AuthToken  string
}

// NewApiClient creates a new API client. The base URL comes from
// BISTRO_API_URL when set.
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("BISTRO_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return NewApiClientWithURL(baseURL)
}

// NewApiClientWithURL creates a client against an explicit base URL.
func NewApiClientWithURL(baseURL string) *ApiClient {
	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
	}
}

// Ping checks if the backend is reachable.
func (c *ApiClient) Ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// GetMenuItem fetches the full configuration snapshot for one item.
func (c *ApiClient) GetMenuItem(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.get(fmt.Sprintf("/api/v1/menu/items/%s", id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBranch fetches the branch with its operating hours.
func (c *ApiClient) GetBranch() (*models.Branch, error) {
	var branch models.Branch
	if err := c.get("/api/v1/branch", &branch); err != nil {
		return nil, err
	}
	return &branch, nil
}

// GetCheckout re-fetches the canonical checkout session.
func (c *ApiClient) GetCheckout(orderID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := c.get(fmt.Sprintf("/api/v1/checkout/%s", orderID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SetModeRequest is the payload for the order-mode mutator. PickupTime is
// a non-null timestamp for pickup (ASAP is encoded as "now") and null for
// delivery ASAP.
type SetModeRequest struct {
	Mode       models.OrderMode `json:"mode"`
	PickupTime *time.Time       `json:"pickup_time"`
}

// SetMode sets the order mode and scheduled time on the backend.
func (c *ApiClient) SetMode(orderID string, req SetModeRequest) error {
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/mode", orderID), req, nil)
}

// SelectAddress attaches a saved address to the checkout.
func (c *ApiClient) SelectAddress(orderID, addressID string) error {
	body := map[string]string{"address_id": addressID}
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/address", orderID), body, nil)
}

// QuoteResult is what the delivery-provider quote call returns. Provider
// carries any normalization the backend applied to the requested provider.
type QuoteResult struct {
	Provider string  `json:"provider"`
	Fee      float64 `json:"fee"`
}

// RequestDeliveryQuote asks the backend for a delivery quote, optionally
// hinting a provider.
func (c *ApiClient) RequestDeliveryQuote(orderID, provider string) (*QuoteResult, error) {
	body := map[string]string{"provider": provider}
	var quote QuoteResult
	if err := c.post(fmt.Sprintf("/api/v1/checkout/%s/quote", orderID), body, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetProviders lists the delivery providers available for the branch.
func (c *ApiClient) GetProviders() ([]string, error) {
	var providers []string
	if err := c.get("/api/v1/providers", &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// SetTip sets the tip amount on the checkout.
func (c *ApiClient) SetTip(orderID string, amount float64) error {
	body := map[string]float64{"amount": amount}
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/tip", orderID), body, nil)
}

// SetPaymentMethod sets the payment method on the checkout.
func (c *ApiClient) SetPaymentMethod(orderID string, method models.PaymentMethod) error {
	body := map[string]models.PaymentMethod{"method": method}
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/payment-method", orderID), body, nil)
}

// SetInstructions updates the free-text restaurant and delivery notes.
func (c *ApiClient) SetInstructions(orderID, restaurantNote, deliveryNote string) error {
	body := map[string]string{
		"restaurant_note": restaurantNote,
		"delivery_note":   deliveryNote,
	}
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/instructions", orderID), body, nil)
}

// GetOffers lists the offers the order is eligible for.
func (c *ApiClient) GetOffers(orderID string) ([]models.Offer, error) {
	var offers []models.Offer
	if err := c.get(fmt.Sprintf("/api/v1/checkout/%s/offers", orderID), &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// ApplyOfferRequest is the payload for the offer-apply mutator. The
// variation and option fields are only set for offers that required a
// secondary item configuration.
type ApplyOfferRequest struct {
	OfferID     string                  `json:"offer_id"`
	Code        string                  `json:"code,omitempty"`
	FreeItemID  string                  `json:"free_item_id,omitempty"`
	VariationID string                  `json:"variation_id,omitempty"`
	Options     []models.CartItemOption `json:"options,omitempty"`
}

// ApplyOffer applies an offer to the checkout.
func (c *ApiClient) ApplyOffer(orderID string, req ApplyOfferRequest) error {
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/offers/apply", orderID), req, nil)
}

// RemoveOffer removes the active offer from the checkout.
func (c *ApiClient) RemoveOffer(orderID string) error {
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/offers/remove", orderID), struct{}{}, nil)
}

// ConfirmOrder confirms the checkout, terminating the session.
func (c *ApiClient) ConfirmOrder(orderID string) error {
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/confirm", orderID), struct{}{}, nil)
}

// CancelCheckout cancels the checkout, terminating the session.
func (c *ApiClient) CancelCheckout(orderID string) error {
	return c.post(fmt.Sprintf("/api/v1/checkout/%s/cancel", orderID), struct{}{}, nil)
}

// GetAddresses lists the customer's saved addresses.
func (c *ApiClient) GetAddresses() ([]models.Address, error) {
	var addresses []models.Address
	if err := c.get("/api/v1/addresses", &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress saves a new address and returns it with its assigned id.
func (c *ApiClient) CreateAddress(addr *models.Address) (*models.Address, error) {
	var created models.Address
	if err := c.post("/api/v1/addresses", addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ChargeRequest submits an opaque gateway token for an online payment.
// The client never sees raw card data; tokenization happens in the gateway
// SDK and only the resulting nonce travels here.
type ChargeRequest struct {
	OrderID string  `json:"order_id"`
	Token   string  `json:"token"`
	Amount  float64 `json:"amount"`
}

// ChargeResult is the gateway response code as relayed by the backend.
type ChargeResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Charge submits a tokenized payment for the order.
func (c *ApiClient) Charge(req ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.post("/api/v1/payments/charge", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ApiClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *ApiClient) post(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *ApiClient) do(req *http.Request, out interface{}) error {
	if c.AuthToken != "" {
		req.Header.Set("Authorization", c.AuthToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
			apiErr.Message = string(body)
		}
		return apiErr
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
