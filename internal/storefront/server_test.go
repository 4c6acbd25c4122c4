package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bistro/internal/client"
	"bistro/internal/models"
	"bistro/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// sharedMetrics registers the prometheus collectors once for the whole test
// binary; registering twice on the default registry panics.
var sharedMetrics = monitoring.NewMetrics()

// backendStub is an in-memory order-management backend behind httptest.
type backendStub struct {
	mu sync.Mutex

	session      models.CheckoutSession
	modeRequests []map[string]interface{}
	gone         bool

	checkoutDelay time.Duration
	checkoutLoads int
	itemFetches   int
}

func newBackendStub() *backendStub {
	return &backendStub{
		session: models.CheckoutSession{
			OrderID: "order-1",
			Status:  models.CheckoutStatusOpen,
			Invoice: models.Invoice{Subtotal: 12.50, Total: 13.50},
		},
	}
}

func (b *backendStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/menu/items/item-pizza", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.itemFetches++
		b.mu.Unlock()
		json.NewEncoder(w).Encode(models.MenuItem{
			ID: "item-pizza", Name: "Pizza", BasePrice: 10.00,
			Variations: []models.Variation{
				{ID: "var-regular", Name: "Regular"},
				{ID: "var-large", Name: "Large", PriceAdjustment: 1.50},
			},
			OptionGroups: []models.OptionGroup{
				{
					ID: "grp-toppings", Name: "Toppings", MaxSelections: 2, IsActive: true,
					Options: []models.Option{
						{ID: "opt-cheese", Name: "Extra Cheese", PriceAdjustment: 0.50, MaxQuantity: 3, IsActive: true},
						{ID: "opt-olives", Name: "Olives", PriceAdjustment: 0.40, IsActive: true},
						{ID: "opt-mushroom", Name: "Mushroom", PriceAdjustment: 0.60, IsActive: true},
					},
				},
			},
		})
	})
	mux.HandleFunc("/api/v1/branch", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Branch{ID: "branch-main", OpeningTime: "00:00", ClosingTime: "23:59"})
	})
	mux.HandleFunc("/api/v1/checkout/order-1", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		delay := b.checkoutDelay
		b.checkoutLoads++
		b.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gone {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": "No active checkout found", "code": "no_active_checkout"}`)
			return
		}
		json.NewEncoder(w).Encode(b.session)
	})
	mux.HandleFunc("/api/v1/checkout/order-1/mode", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.modeRequests = append(b.modeRequests, body)
		b.session.Mode = models.OrderMode(body["mode"].(string))
		b.mu.Unlock()
		fmt.Fprint(w, "{}")
	})
	mux.HandleFunc("/api/v1/checkout/order-expired", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "No active checkout found", "code": "no_active_checkout"}`)
	})
	return mux
}

// newTestServer wires a storefront against a stub backend.
func newTestServer(t *testing.T) (*Server, *backendStub, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := newBackendStub()
	backend := httptest.NewServer(stub.handler())
	server := NewServer(client.NewApiClientWithURL(backend.URL), sharedMetrics)
	return server, stub, func() {
		server.Close()
		backend.Close()
	}
}

func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	} else {
		body.WriteString("{}")
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigureFlow(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "POST", "/api/configure/item-pizza/start", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var started struct {
		ConfigID string  `json:"config_id"`
		Total    float64 `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.NotEmpty(t, started.ConfigID)
	assert.Equal(t, 10.00, started.Total)

	// Large variation plus two cheese: 10.00 + 1.50 + 2 x 0.50 = 12.50
	doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "variation", "variation_id": "var-large"})
	doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "increment", "group_id": "grp-toppings", "option_id": "opt-cheese"})
	w = doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "increment", "group_id": "grp-toppings", "option_id": "opt-cheese"})
	assert.Equal(t, http.StatusOK, w.Code)

	var state struct {
		Total   float64 `json:"total"`
		IsValid bool    `json:"is_valid"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 12.50, state.Total)
	assert.True(t, state.IsValid)

	w = doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/close", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(server.Router(), "GET", "/api/configure/"+started.ConfigID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigureGroupFullError(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "POST", "/api/configure/item-pizza/start", nil)
	var started struct {
		ConfigID string `json:"config_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &started)

	doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "toggle", "group_id": "grp-toppings", "option_id": "opt-cheese"})
	doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "toggle", "group_id": "grp-toppings", "option_id": "opt-olives"})
	w = doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "toggle", "group_id": "grp-toppings", "option_id": "opt-mushroom"})

	var state struct {
		GroupErrors map[string]string `json:"group_errors"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Contains(t, state.GroupErrors, "grp-toppings")

	doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/close", nil)
}

func TestConfigureUnknownAction(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "POST", "/api/configure/item-pizza/start", nil)
	var started struct {
		ConfigID string `json:"config_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &started)

	w = doJSON(server.Router(), "POST", "/api/configure/"+started.ConfigID+"/change",
		map[string]string{"action": "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachAndGetCheckout(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Session models.CheckoutSession `json:"session"`
		Steps   struct {
			Phase  string `json:"Phase"`
			Active int    `json:"Active"`
		} `json:"steps"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "order-1", view.Session.OrderID)
	assert.Equal(t, "active", view.Steps.Phase)
	assert.Equal(t, 1, view.Steps.Active)

	w = doJSON(server.Router(), "GET", "/api/checkout/order-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAttachConcurrentKeepsOneSession(t *testing.T) {
	server, stub, teardown := newTestServer(t)
	defer teardown()

	// Slow the session load so both requests pass the already-attached
	// check before either stores a bundle.
	stub.mu.Lock()
	stub.checkoutDelay = 50 * time.Millisecond
	stub.mu.Unlock()

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])

	// Exactly one bundle survives; the losing session is closed before it
	// ever starts polling.
	server.mu.Lock()
	assert.Len(t, server.sessions, 1)
	server.mu.Unlock()

	w := doJSON(server.Router(), "POST", "/api/checkout/order-1/detach", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	server.mu.Lock()
	assert.Len(t, server.sessions, 0)
	server.mu.Unlock()
}

func TestBeginFreeItemReturnsSnapshot(t *testing.T) {
	server, stub, teardown := newTestServer(t)
	defer teardown()

	doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
	w := doJSON(server.Router(), "POST", "/api/checkout/order-1/offers/free-item/begin",
		models.Offer{ID: "offer-free-pizza", Code: "PIZZA", Type: models.OfferFreeAddition, FreeItemID: "item-pizza"})
	assert.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Item  *models.MenuItem `json:"item"`
		Total float64          `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	if assert.NotNil(t, payload.Item) {
		assert.Equal(t, "item-pizza", payload.Item.ID)
	}

	// The response reuses the snapshot the configuration flow fetched.
	stub.mu.Lock()
	assert.Equal(t, 1, stub.itemFetches)
	stub.mu.Unlock()
}

func TestCheckoutNotAttached(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "GET", "/api/checkout/order-unattached", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(server.Router(), "POST", "/api/checkout/order-unattached/tip",
		map[string]float64{"amount": 2.00})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachExpiredCheckout(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "POST", "/api/checkout/order-expired/attach", nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestSetModePickupASAP(t *testing.T) {
	server, stub, teardown := newTestServer(t)
	defer teardown()

	doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
	w := doJSON(server.Router(), "POST", "/api/checkout/order-1/mode",
		map[string]string{"mode": "pickup"})
	assert.Equal(t, http.StatusOK, w.Code)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Len(t, stub.modeRequests, 1)
	// ASAP pickup carries a concrete timestamp, never null.
	assert.NotNil(t, stub.modeRequests[0]["pickup_time"])
}

func TestSetModeDeliveryASAP(t *testing.T) {
	server, stub, teardown := newTestServer(t)
	defer teardown()

	doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
	w := doJSON(server.Router(), "POST", "/api/checkout/order-1/mode",
		map[string]string{"mode": "delivery"})
	assert.Equal(t, http.StatusOK, w.Code)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Len(t, stub.modeRequests, 1)
	assert.Nil(t, stub.modeRequests[0]["pickup_time"])
}

func TestSetModeUnknown(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
	w := doJSON(server.Router(), "POST", "/api/checkout/order-1/mode",
		map[string]string{"mode": "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlotsEndpoint(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	doJSON(server.Router(), "POST", "/api/checkout/order-1/attach", nil)
	w := doJSON(server.Router(), "GET", "/api/checkout/order-1/slots?mode=pickup", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var payload map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	// The key is always present; an empty day serializes it as null.
	assert.Contains(t, payload, "slots")
}

func TestStatusEndpoint(t *testing.T) {
	server, _, teardown := newTestServer(t)
	defer teardown()

	w := doJSON(server.Router(), "GET", "/api/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var snapshot map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Contains(t, snapshot, "uptime_seconds")
}
