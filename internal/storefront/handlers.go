package storefront

import (
	"errors"
	"net/http"
	"time"

	"bistro/internal/checkout"
	"bistro/internal/client"
	"bistro/internal/delivery"
	"bistro/internal/gateway"
	"bistro/internal/models"
	"bistro/internal/offers"
	"bistro/internal/schedule"

	"github.com/gin-gonic/gin"
)

const pollInterval = 30 * time.Second

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleGetItem(c *gin.Context) {
	item, err := s.api.GetMenuItem(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// handleAttach starts driving a checkout: the session is loaded, background
// polling begins, and updates flow to any websocket subscribers.
func (s *Server) handleAttach(c *gin.Context) {
	orderID := c.Param("orderID")

	if b, ok := s.bundle(orderID); ok {
		c.JSON(http.StatusOK, checkoutView(b))
		return
	}

	session := checkout.NewSession(s.api, orderID, s.metrics)
	if err := session.Load(); err != nil {
		respondError(c, err)
		return
	}
	b := &sessionBundle{
		session:  session,
		delivery: delivery.NewOrchestrator(s.api, session),
		offers:   offers.NewOrchestrator(s.api, session),
		hub:      newWSHub(),
	}
	session.OnUpdate(func(cs models.CheckoutSession, steps checkout.StepState) {
		b.hub.broadcast(sessionUpdate{Session: cs, Steps: steps})
	})

	// A concurrent attach for the same order may have stored a bundle while
	// this one was loading; the stored one wins and this one is discarded.
	// Polling only starts on the stored bundle, so the loser leaves no
	// goroutine behind.
	s.mu.Lock()
	if existing, ok := s.sessions[orderID]; ok {
		s.mu.Unlock()
		session.Close()
		c.JSON(http.StatusOK, checkoutView(existing))
		return
	}
	s.sessions[orderID] = b
	s.mu.Unlock()
	session.StartPolling(pollInterval)

	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleDetach(c *gin.Context) {
	orderID := c.Param("orderID")
	s.mu.Lock()
	b, ok := s.sessions[orderID]
	if ok {
		delete(s.sessions, orderID)
	}
	s.mu.Unlock()
	if ok {
		b.session.Close()
		b.offers.AbandonFreeItem()
		b.hub.closeAll()
	}
	c.JSON(http.StatusOK, gin.H{"message": "detached"})
}

func (s *Server) handleGetCheckout(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleSlots(c *gin.Context) {
	mode := models.OrderMode(c.DefaultQuery("mode", string(models.ModePickup)))
	branch, err := s.api.GetBranch()
	if err != nil {
		respondError(c, err)
		return
	}
	slots, err := schedule.GenerateSlots(branch.OpeningTime, branch.ClosingTime, time.Now(), schedule.LeadTimeFor(mode))
	if err != nil {
		respondError(c, err)
		return
	}
	// An empty slice is a valid answer: nothing can be honored today.
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (s *Server) handleSetMode(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var req struct {
		Mode models.OrderMode `json:"mode"`
		Slot string           `json:"slot"` // "HH:MM"; empty means ASAP
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var scheduled *time.Time
	if req.Slot != "" {
		instant, err := schedule.SlotInstant(req.Slot, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot"})
			return
		}
		scheduled = &instant
	}

	var err error
	switch req.Mode {
	case models.ModePickup:
		err = b.session.SetPickupMode(scheduled)
	case models.ModeDelivery:
		err = b.session.SetDeliveryMode(scheduled)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order mode"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleListAddresses(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	addresses, err := b.delivery.Addresses()
	if err != nil {
		respondError(c, err)
		return
	}
	type annotated struct {
		models.Address
		State delivery.CheckState `json:"state"`
	}
	out := make([]annotated, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, annotated{Address: a, State: b.delivery.AddressState(a.ID)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateAddress(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := b.delivery.CreateAddress(&addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleSetProvider(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var req struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var err error
	if req.Provider == "" {
		_, err = b.delivery.EnsureProvider()
	} else {
		err = b.delivery.SetProvider(req.Provider)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": b.delivery.Provider()})
}

func (s *Server) handleSelectAddress(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var req struct {
		AddressID string `json:"address_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := b.delivery.SelectAddress(req.AddressID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleSetTip(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := b.session.SetTip(req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleSetPaymentMethod(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var req struct {
		Method models.PaymentMethod `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := b.session.SetPaymentMethod(req.Method); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleSetInstructions(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
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
	if err := b.session.SetInstructions(req.RestaurantNote, req.DeliveryNote); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleListOffers(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	eligible, err := b.offers.Eligible()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eligible)
}

func (s *Server) handleApplyOffer(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var offer models.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := b.offers.Apply(offer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleBeginFreeItem(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var offer models.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := b.offers.BeginFreeItem(offer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": cfg.Item(), "total": cfg.Total()})
}

func (s *Server) handleCompleteFreeItem(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	if err := b.offers.CompleteFreeItem(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleRemoveOffer(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	if err := b.offers.Remove(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handlePay(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	current, err := b.session.Current()
	if err != nil {
		respondError(c, err)
		return
	}
	processor := gateway.NewProcessor(s.api)
	if err := processor.Pay(current.OrderID, current.Invoice.Total, gateway.TokenResult{Token: req.Token}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment accepted"})
}

func (s *Server) handleConfirm(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	if err := b.session.Confirm(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

func (s *Server) handleCancel(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}
	if err := b.session.Cancel(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(b))
}

// checkoutView projects the session and its derived step for the UI.
func checkoutView(b *sessionBundle) gin.H {
	current, err := b.session.Current()
	if err != nil {
		return gin.H{"error": err.Error()}
	}
	return gin.H{
		"session":   current,
		"steps":     b.session.Steps(),
		"in_flight": b.session.InFlight(),
		"provider":  b.delivery.Provider(),
	}
}

// respondError maps orchestrator errors onto HTTP responses. Fatal session
// errors get 410 so the UI renders the full-page empty state; guard
// rejections get 409 so the UI simply ignores the click.
func respondError(c *gin.Context, err error) {
	var vErr *delivery.ValidationError
	switch {
	case errors.Is(err, checkout.ErrActionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrSessionGone), client.IsNoCheckout(err):
		c.JSON(http.StatusGone, gin.H{"error": "no active checkout"})
	case errors.Is(err, schedule.ErrSlotTooSoon):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vErr.Message, "code": vErr.Code, "address_id": vErr.AddressID})
	case errors.Is(err, delivery.ErrNoProvider), errors.Is(err, delivery.ErrAddressInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, offers.ErrOfferActive), errors.Is(err, offers.ErrConfigurationInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
