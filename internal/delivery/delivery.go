// Package delivery sequences address selection, provider selection and
// delivery-quote validation for delivery-mode checkouts. Validity of an
// address against the current provider is a transient client-side
// annotation; nothing here is persisted.
package delivery

import (
	"errors"
	"sync"

	"bistro/internal/checkout"
	"bistro/internal/client"
	"bistro/internal/models"
)

// CheckState is the transient validation state of one address.
type CheckState string

const (
	StateUnchecked CheckState = "unchecked"
	StateChecking  CheckState = "checking"
	StateValid     CheckState = "valid"
	StateInvalid   CheckState = "invalid"
)

// preferredProvider is auto-selected when available and none is chosen.
const preferredProvider = "doordash"

var (
	// ErrNoProvider means address validation was attempted before a
	// delivery provider was chosen. The UI prompts for one; the
	// orchestrator never picks silently on this path.
	ErrNoProvider = errors.New("select a delivery provider first")
	// ErrAddressInvalid means the address already failed validation and
	// cannot be reselected until the provider or the address changes.
	ErrAddressInvalid = errors.New("address already failed validation for this provider")
	// ErrNoProvidersAvailable means the branch has no delivery providers.
	ErrNoProvidersAvailable = errors.New("no delivery providers available")
)

// ValidationError is a classified address-validation failure. The code only
// selects the user-facing message; the state transition is the same for
// every failure.
type ValidationError struct {
	AddressID string
	Code      string
	Message   string
	Cause     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Cause }

func messageFor(code string) string {
	switch code {
	case client.CodeDistanceTooLong:
		return "this address is too far away for delivery"
	case client.CodeInvalidDeliveryParams:
		return "delivery is not possible to this address"
	default:
		return "could not validate this address for delivery"
	}
}

// Backend is the slice of the order-management API the orchestrator needs.
// *client.ApiClient satisfies it.
type Backend interface {
	SelectAddress(orderID, addressID string) error
	RequestDeliveryQuote(orderID, provider string) (*client.QuoteResult, error)
	GetProviders() ([]string, error)
	GetAddresses() ([]models.Address, error)
	CreateAddress(addr *models.Address) (*models.Address, error)
}

// Orchestrator tracks per-address validation outcomes and drives the
// select-then-quote sequence under the checkout session's action guard.
type Orchestrator struct {
	backend Backend
	session *checkout.Session

	mu        sync.Mutex
	provider  string
	states    map[string]CheckState
	currentID string
}

// NewOrchestrator creates a delivery orchestrator bound to a session.
func NewOrchestrator(backend Backend, session *checkout.Session) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		session: session,
		states:  make(map[string]CheckState),
	}
}

// Provider returns the provider of record, if any.
func (o *Orchestrator) Provider() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.provider
}

// AddressState returns the validation state of an address.
func (o *Orchestrator) AddressState(addressID string) CheckState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.states[addressID]; ok {
		return st
	}
	return StateUnchecked
}

// Addresses lists the customer's saved addresses.
func (o *Orchestrator) Addresses() ([]models.Address, error) {
	return o.backend.GetAddresses()
}

// CreateAddress saves a new address. The new address starts unchecked.
func (o *Orchestrator) CreateAddress(addr *models.Address) (*models.Address, error) {
	return o.backend.CreateAddress(addr)
}

// EnsureProvider picks a provider when none is chosen yet: doordash when
// present, otherwise the first available. Called on entry to the delivery
// details step, never from the address-selection path.
func (o *Orchestrator) EnsureProvider() (string, error) {
	o.mu.Lock()
	if o.provider != "" {
		p := o.provider
		o.mu.Unlock()
		return p, nil
	}
	o.mu.Unlock()

	providers, err := o.backend.GetProviders()
	if err != nil {
		return "", err
	}
	if len(providers) == 0 {
		return "", ErrNoProvidersAvailable
	}
	chosen := providers[0]
	for _, p := range providers {
		if p == preferredProvider {
			chosen = p
			break
		}
	}

	o.mu.Lock()
	o.provider = chosen
	o.mu.Unlock()
	return chosen, nil
}

// SetProvider changes the provider of record. Previous invalid annotations
// are void against the new provider, and a currently selected address is
// automatically re-validated rather than left stale.
func (o *Orchestrator) SetProvider(provider string) error {
	o.mu.Lock()
	o.provider = provider
	o.states = make(map[string]CheckState)
	current := o.currentID
	o.mu.Unlock()

	if current == "" {
		return nil
	}
	return o.SelectAddress(current)
}

// SelectAddress validates an address for delivery: mark it checking, attach
// it to the checkout, then request a quote from the provider of record. The
// quote call only runs after the address call succeeds, because a quote is
// meaningless without a confirmed address. On success the address is valid
// and any provider normalization from the quote is recorded; on failure the
// address is invalid and the provider of record is cleared.
func (o *Orchestrator) SelectAddress(addressID string) error {
	o.mu.Lock()
	if o.provider == "" {
		o.mu.Unlock()
		return ErrNoProvider
	}
	if o.states[addressID] == StateInvalid {
		o.mu.Unlock()
		return ErrAddressInvalid
	}
	provider := o.provider
	o.states[addressID] = StateChecking
	o.currentID = addressID
	o.mu.Unlock()

	var quote *client.QuoteResult
	err := o.session.Run(checkout.ActionSelectAddress, func() error {
		if err := o.backend.SelectAddress(o.session.OrderID(), addressID); err != nil {
			return err
		}
		var err error
		quote, err = o.backend.RequestDeliveryQuote(o.session.OrderID(), provider)
		return err
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	if errors.Is(err, checkout.ErrActionInFlight) || errors.Is(err, checkout.ErrSessionGone) {
		// Not a verdict on the address; it was never checked.
		o.states[addressID] = StateUnchecked
		return err
	}
	if err != nil {
		o.states[addressID] = StateInvalid
		o.provider = ""
		code := client.ErrorCode(err)
		return &ValidationError{
			AddressID: addressID,
			Code:      code,
			Message:   messageFor(code),
			Cause:     err,
		}
	}
	o.states[addressID] = StateValid
	if quote != nil && quote.Provider != "" {
		o.provider = quote.Provider
	}
	return nil
}
