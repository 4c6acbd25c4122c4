// Package storefront is the gin facade the web UI talks to. Handlers are
// thin: they translate HTTP requests into orchestrator calls and project
// the re-fetched canonical checkout state back out, over REST and over a
// websocket push channel.
package storefront

import (
	"net/http"
	"sync"

	"bistro/internal/checkout"
	"bistro/internal/client"
	"bistro/internal/configurator"
	"bistro/internal/delivery"
	"bistro/internal/models"
	"bistro/internal/monitoring"
	"bistro/internal/offers"

	"github.com/gin-gonic/gin"
)

// Server hosts the storefront API.
type Server struct {
	router  *gin.Engine
	api     *client.ApiClient
	metrics *monitoring.Metrics

	mu       sync.Mutex
	sessions map[string]*sessionBundle
	configs  map[string]*configState
	nextCfg  int
}

// sessionBundle groups the orchestrators driving one checkout.
type sessionBundle struct {
	session  *checkout.Session
	delivery *delivery.Orchestrator
	offers   *offers.Orchestrator
	hub      *wsHub
}

// configState is one in-progress item configuration.
type configState struct {
	id   string
	item *models.MenuItem
	cfg  *configurator.Configurator
}

// NewServer creates the storefront server.
func NewServer(api *client.ApiClient, metrics *monitoring.Metrics) *Server {
	s := &Server{
		router:   gin.Default(),
		api:      api,
		metrics:  metrics,
		sessions: make(map[string]*sessionBundle),
		configs:  make(map[string]*configState),
	}
	s.setupRoutes()
	return s
}

// Router returns the gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "bistro storefront is running"})
	})
	s.router.GET("/ws/:orderID", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/items/:id", s.handleGetItem)

		api.POST("/configure/:cfgID/start", s.handleConfigureStart)
		api.GET("/configure/:cfgID", s.handleConfigureState)
		api.POST("/configure/:cfgID/change", s.handleConfigureChange)
		api.POST("/configure/:cfgID/close", s.handleConfigureClose)

		co := api.Group("/checkout/:orderID")
		{
			co.POST("/attach", s.handleAttach)
			co.GET("", s.handleGetCheckout)
			co.GET("/slots", s.handleSlots)
			co.POST("/mode", s.handleSetMode)
			co.GET("/addresses", s.handleListAddresses)
			co.POST("/addresses", s.handleCreateAddress)
			co.POST("/provider", s.handleSetProvider)
			co.POST("/address", s.handleSelectAddress)
			co.POST("/tip", s.handleSetTip)
			co.POST("/payment-method", s.handleSetPaymentMethod)
			co.POST("/instructions", s.handleSetInstructions)
			co.GET("/offers", s.handleListOffers)
			co.POST("/offers/apply", s.handleApplyOffer)
			co.POST("/offers/free-item/begin", s.handleBeginFreeItem)
			co.POST("/offers/free-item/complete", s.handleCompleteFreeItem)
			co.POST("/offers/remove", s.handleRemoveOffer)
			co.POST("/pay", s.handlePay)
			co.POST("/confirm", s.handleConfirm)
			co.POST("/cancel", s.handleCancel)
			co.POST("/detach", s.handleDetach)
		}
	}
}

// bundle returns the orchestrator bundle for an order, if attached.
func (s *Server) bundle(orderID string) (*sessionBundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.sessions[orderID]
	return b, ok
}

// Close tears down every attached session and its timers.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.sessions {
		b.session.Close()
		b.hub.closeAll()
		delete(s.sessions, id)
	}
	for id, cs := range s.configs {
		cs.cfg.Close()
		delete(s.configs, id)
	}
}
