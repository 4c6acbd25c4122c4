package checkout

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bistro/internal/client"
	"bistro/internal/models"
	"bistro/internal/monitoring"
	"bistro/internal/schedule"
)

// ActionKind tags the checkout mutator a user action maps to. Exactly one
// action may be in flight at a time; this is the whole concurrency model of
// the flow, so a second click while a call is outstanding is ignored rather
// than queued.
type ActionKind string

const (
	ActionNone          ActionKind = ""
	ActionSetMode       ActionKind = "set_mode"
	ActionSelectAddress ActionKind = "select_address"
	ActionSetTip        ActionKind = "set_tip"
	ActionSetPayment    ActionKind = "set_payment_method"
	ActionInstructions  ActionKind = "set_instructions"
	ActionApplyOffer    ActionKind = "apply_offer"
	ActionRemoveOffer   ActionKind = "remove_offer"
	ActionConfirm       ActionKind = "confirm_order"
	ActionCancel        ActionKind = "cancel_checkout"
)

// ErrActionInFlight is returned when a mutator is attempted while another
// one is still outstanding.
var ErrActionInFlight = errors.New("another checkout action is in progress")

// ErrSessionGone is returned once the backend reports no active checkout;
// the session is unusable afterwards and the caller renders a full-page
// error state.
var ErrSessionGone = errors.New("checkout session no longer exists")

// Backend is the slice of the order-management API the session needs.
// *client.ApiClient satisfies it.
type Backend interface {
	GetCheckout(orderID string) (*models.CheckoutSession, error)
	SetMode(orderID string, req client.SetModeRequest) error
	SetTip(orderID string, amount float64) error
	SetPaymentMethod(orderID string, method models.PaymentMethod) error
	SetInstructions(orderID, restaurantNote, deliveryNote string) error
	ConfirmOrder(orderID string) error
	CancelCheckout(orderID string) error
}

// Session drives one checkout flow against the backend. It mirrors the
// server-owned checkout session, recomputes the derived step on every fetch,
// and serializes all mutators behind a single in-flight action token.
type Session struct {
	backend Backend
	orderID string
	metrics *monitoring.Metrics
	now     func() time.Time

	mu       sync.Mutex
	session  *models.CheckoutSession
	inFlight ActionKind
	gone     bool

	onUpdate func(models.CheckoutSession, StepState)

	pollStop chan struct{}
	pollOnce sync.Once
}

// NewSession creates a session driver for an order. Call Load before use.
func NewSession(backend Backend, orderID string, metrics *monitoring.Metrics) *Session {
	return &Session{
		backend:  backend,
		orderID:  orderID,
		metrics:  metrics,
		now:      time.Now,
		pollStop: make(chan struct{}),
	}
}

// OnUpdate registers a callback invoked with a copy of the session and its
// derived step after every successful fetch. Used by the storefront to push
// updates to the UI.
func (s *Session) OnUpdate(fn func(models.CheckoutSession, StepState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// OrderID returns the order this session drives.
func (s *Session) OrderID() string {
	return s.orderID
}

// Load fetches the canonical session state from the backend.
func (s *Session) Load() error {
	return s.refetch()
}

// Current returns a copy of the last known-good server session.
func (s *Session) Current() (models.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return models.CheckoutSession{}, ErrSessionGone
	}
	if s.session == nil {
		return models.CheckoutSession{}, fmt.Errorf("session not loaded")
	}
	return *s.session, nil
}

// Steps returns the derived step projection of the current session.
func (s *Session) Steps() StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeriveStep(s.session)
}

// InFlight returns the action currently outstanding, if any. UI controls
// for all mutating actions are disabled while this is non-empty.
func (s *Session) InFlight() ActionKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// SetPickupMode switches the order to pickup. Pickup has no null-ASAP
// concept: an unscheduled pickup sends the current timestamp, never null.
func (s *Session) SetPickupMode(scheduled *time.Time) error {
	pickupTime := scheduled
	if pickupTime == nil {
		now := s.now()
		pickupTime = &now
	}
	if scheduled != nil {
		if err := schedule.ValidateSlot(*scheduled, s.now(), schedule.PickupLeadTime); err != nil {
			return err
		}
	}
	return s.Run(ActionSetMode, func() error {
		return s.backend.SetMode(s.orderID, client.SetModeRequest{
			Mode:       models.ModePickup,
			PickupTime: pickupTime,
		})
	})
}

// SetDeliveryMode switches the order to delivery. A nil scheduled time means
// ASAP and is sent as null; this asymmetry with pickup is deliberate.
func (s *Session) SetDeliveryMode(scheduled *time.Time) error {
	if scheduled != nil {
		if err := schedule.ValidateSlot(*scheduled, s.now(), schedule.DeliveryLeadTime); err != nil {
			return err
		}
	}
	return s.Run(ActionSetMode, func() error {
		return s.backend.SetMode(s.orderID, client.SetModeRequest{
			Mode:       models.ModeDelivery,
			PickupTime: scheduled,
		})
	})
}

// SetTip sets the tip amount. The local invoice is updated optimistically
// for responsiveness; a failure rolls it back before the resynchronizing
// re-fetch.
func (s *Session) SetTip(amount float64) error {
	revert := s.optimistic(func(cs *models.CheckoutSession) func() {
		prev := cs.Invoice.Tip
		cs.Invoice.Tip = amount
		return func() { cs.Invoice.Tip = prev }
	})
	err := s.Run(ActionSetTip, func() error {
		return s.backend.SetTip(s.orderID, amount)
	})
	if err != nil {
		revert()
	}
	return err
}

// SetPaymentMethod sets the payment method.
func (s *Session) SetPaymentMethod(method models.PaymentMethod) error {
	return s.Run(ActionSetPayment, func() error {
		return s.backend.SetPaymentMethod(s.orderID, method)
	})
}

// SetInstructions updates the restaurant and delivery notes.
func (s *Session) SetInstructions(restaurantNote, deliveryNote string) error {
	return s.Run(ActionInstructions, func() error {
		return s.backend.SetInstructions(s.orderID, restaurantNote, deliveryNote)
	})
}

// Confirm confirms the order, terminating the session lifecycle.
func (s *Session) Confirm() error {
	return s.Run(ActionConfirm, func() error {
		return s.backend.ConfirmOrder(s.orderID)
	})
}

// Cancel cancels the checkout, terminating the session lifecycle.
func (s *Session) Cancel() error {
	return s.Run(ActionCancel, func() error {
		return s.backend.CancelCheckout(s.orderID)
	})
}

// Run executes one logical checkout action under the single-flight guard:
// acquire the token, run the mutator, then re-fetch the canonical session
// regardless of outcome so local state always reflects the last known-good
// server response. Sub-flows (address validation, offers) run their
// dependent calls inside fn so the whole sequence holds the token.
func (s *Session) Run(kind ActionKind, fn func() error) error {
	if err := s.begin(kind); err != nil {
		return err
	}
	defer s.end()

	if s.metrics != nil {
		s.metrics.ActionStarted(string(kind))
	}
	start := time.Now()
	err := fn()
	if s.metrics != nil {
		s.metrics.ActionFinished(string(kind), err == nil, time.Since(start))
	}

	if refetchErr := s.refetch(); refetchErr != nil {
		if err == nil {
			err = refetchErr
		}
		// After a failed mutator the re-fetch is best effort; the local
		// state keeps the last known-good server response.
	}
	return err
}

func (s *Session) begin(kind ActionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return ErrSessionGone
	}
	if s.inFlight != ActionNone {
		return ErrActionInFlight
	}
	s.inFlight = kind
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight = ActionNone
	s.mu.Unlock()
}

// optimistic applies a local mutation and returns its revert closure. The
// mutation only runs when a session is loaded; the revert is a no-op
// otherwise.
func (s *Session) optimistic(apply func(*models.CheckoutSession) func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.gone {
		return func() {}
	}
	revert := apply(s.session)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session != nil {
			revert()
		}
	}
}

func (s *Session) refetch() error {
	fetched, err := s.backend.GetCheckout(s.orderID)
	if err != nil {
		if client.IsNoCheckout(err) {
			s.mu.Lock()
			s.gone = true
			s.mu.Unlock()
			return ErrSessionGone
		}
		return err
	}

	s.mu.Lock()
	s.session = fetched
	notify := s.onUpdate
	snapshot := *fetched
	steps := DeriveStep(fetched)
	s.mu.Unlock()

	// A confirmed or cancelled checkout never changes again; stop polling it.
	if fetched.IsTerminal() {
		s.Close()
	}

	if notify != nil {
		notify(snapshot, steps)
	}
	return nil
}

// StartPolling re-fetches the session periodically while the user is idle.
// A tick is suppressed when a user-initiated mutation is in flight so the
// poll never interleaves with it.
func (s *Session) StartPolling(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				busy := s.inFlight != ActionNone || s.gone
				s.mu.Unlock()
				if busy {
					continue
				}
				if err := s.refetch(); err != nil && !errors.Is(err, ErrSessionGone) {
					log.Printf("checkout poll failed: %v", err)
				}
			case <-s.pollStop:
				return
			}
		}
	}()
}

// Close stops background polling. Safe to call more than once.
func (s *Session) Close() {
	s.pollOnce.Do(func() { close(s.pollStop) })
}
