// Package offers fetches and applies checkout offers. Simple discount
// offers apply in one backend call; free-item offers route through a
// secondary item-configuration flow and are only applied once that
// configuration validates.
package offers

import (
	"errors"
	"fmt"
	"sync"

	"bistro/internal/checkout"
	"bistro/internal/client"
	"bistro/internal/configurator"
	"bistro/internal/models"
)

var (
	// ErrOfferActive means an offer is already applied; only one may be
	// active at a time and the UI must block applying another.
	ErrOfferActive = errors.New("an offer is already applied")
	// ErrNoPendingConfiguration means CompleteFreeItem was called without
	// a configuration flow in progress.
	ErrNoPendingConfiguration = errors.New("no free-item configuration in progress")
	// ErrConfigurationInvalid means the free-item selections do not
	// satisfy the item's option rules; the offer was not applied.
	ErrConfigurationInvalid = errors.New("free item configuration is incomplete")
)

// Backend is the slice of the order-management API the orchestrator needs.
// *client.ApiClient satisfies it.
type Backend interface {
	GetOffers(orderID string) ([]models.Offer, error)
	GetMenuItem(id string) (*models.MenuItem, error)
	ApplyOffer(orderID string, req client.ApplyOfferRequest) error
	RemoveOffer(orderID string) error
}

// Orchestrator drives offer application for one checkout session.
type Orchestrator struct {
	backend Backend
	session *checkout.Session

	mu      sync.Mutex
	pending *pendingFreeItem
}

type pendingFreeItem struct {
	offer models.Offer
	cfg   *configurator.Configurator
}

// NewOrchestrator creates an offer orchestrator bound to a session.
func NewOrchestrator(backend Backend, session *checkout.Session) *Orchestrator {
	return &Orchestrator{backend: backend, session: session}
}

// Eligible lists the offers the order qualifies for.
func (o *Orchestrator) Eligible() ([]models.Offer, error) {
	return o.backend.GetOffers(o.session.OrderID())
}

// Apply applies a simple discount offer in a single backend call followed
// by the full checkout re-fetch. Offers that require configuration must go
// through BeginFreeItem/CompleteFreeItem instead.
func (o *Orchestrator) Apply(offer models.Offer) error {
	if offer.RequiresConfiguration() {
		return fmt.Errorf("offer %s requires item configuration", offer.ID)
	}
	if err := o.ensureNoActiveOffer(); err != nil {
		return err
	}
	return o.session.Run(checkout.ActionApplyOffer, func() error {
		return o.backend.ApplyOffer(o.session.OrderID(), client.ApplyOfferRequest{
			OfferID: offer.ID,
			Code:    offer.Code,
		})
	})
}

// BeginFreeItem starts the secondary configuration flow for a free-item
// offer: the free item's full configuration is fetched and handed to the
// caller as a configurator. The offer is not applied yet.
func (o *Orchestrator) BeginFreeItem(offer models.Offer) (*configurator.Configurator, error) {
	if !offer.RequiresConfiguration() {
		return nil, fmt.Errorf("offer %s does not include a free item", offer.ID)
	}
	if err := o.ensureNoActiveOffer(); err != nil {
		return nil, err
	}
	item, err := o.backend.GetMenuItem(offer.FreeItemID)
	if err != nil {
		return nil, err
	}
	cfg := configurator.New(item)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending != nil {
		o.pending.cfg.Close()
	}
	o.pending = &pendingFreeItem{offer: offer, cfg: cfg}
	return cfg, nil
}

// CompleteFreeItem validates the pending free-item configuration and, only
// when valid, submits the offer with the chosen variation and options
// attached. An invalid configuration never reaches the backend.
func (o *Orchestrator) CompleteFreeItem() error {
	o.mu.Lock()
	pending := o.pending
	o.mu.Unlock()
	if pending == nil {
		return ErrNoPendingConfiguration
	}

	if result := pending.cfg.Validate(); !result.IsValid {
		return fmt.Errorf("%w: %s", ErrConfigurationInvalid, result.Message)
	}
	variationID, _, _ := pending.cfg.Snapshot()

	err := o.session.Run(checkout.ActionApplyOffer, func() error {
		return o.backend.ApplyOffer(o.session.OrderID(), client.ApplyOfferRequest{
			OfferID:     pending.offer.ID,
			Code:        pending.offer.Code,
			FreeItemID:  pending.offer.FreeItemID,
			VariationID: variationID,
			Options:     pending.cfg.SelectedOptions(),
		})
	})
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
	pending.cfg.Close()
	return nil
}

// AbandonFreeItem discards a pending free-item configuration flow.
func (o *Orchestrator) AbandonFreeItem() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending != nil {
		o.pending.cfg.Close()
		o.pending = nil
	}
}

// Remove removes the active offer. The session re-fetch after the call is
// what restores the undiscounted invoice.
func (o *Orchestrator) Remove() error {
	return o.session.Run(checkout.ActionRemoveOffer, func() error {
		return o.backend.RemoveOffer(o.session.OrderID())
	})
}

func (o *Orchestrator) ensureNoActiveOffer() error {
	current, err := o.session.Current()
	if err != nil {
		return err
	}
	if current.Invoice.AppliedOffer != "" {
		return ErrOfferActive
	}
	return nil
}
