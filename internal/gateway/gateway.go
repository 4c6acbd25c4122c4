// Package gateway consumes the payment gateway's tokenization result. Card
// fields are collected and tokenized inside the gateway SDK; this package
// only ever sees the opaque token and relays it to the backend charge
// endpoint, interpreting the response code as success or decline.
package gateway

import (
	"errors"
	"fmt"

	"bistro/internal/client"
)

// Response codes the backend relays from the gateway.
const (
	CodeApproved = "approved"
	CodeDeclined = "declined"
)

// ErrDeclined means the gateway rejected the charge.
var ErrDeclined = errors.New("payment was declined")

// TokenResult is the outcome of the gateway SDK's tokenization callback.
type TokenResult struct {
	Token string
	Err   error
}

// ChargeBackend is the backend charge endpoint. *client.ApiClient
// satisfies it.
type ChargeBackend interface {
	Charge(req client.ChargeRequest) (*client.ChargeResult, error)
}

// Processor submits tokenized payments.
type Processor struct {
	backend ChargeBackend
}

// NewProcessor creates a payment processor.
func NewProcessor(backend ChargeBackend) *Processor {
	return &Processor{backend: backend}
}

// Pay submits the tokenization result for an order. A tokenization failure
// is surfaced before any network call; a declined response code maps to
// ErrDeclined.
func (p *Processor) Pay(orderID string, amount float64, result TokenResult) error {
	if result.Err != nil {
		return fmt.Errorf("card tokenization failed: %w", result.Err)
	}
	if result.Token == "" {
		return errors.New("card tokenization returned no token")
	}

	charge, err := p.backend.Charge(client.ChargeRequest{
		OrderID: orderID,
		Token:   result.Token,
		Amount:  amount,
	})
	if err != nil {
		return err
	}
	switch charge.Code {
	case CodeApproved:
		return nil
	case CodeDeclined:
		return fmt.Errorf("%w: %s", ErrDeclined, charge.Message)
	default:
		return fmt.Errorf("unexpected gateway response code %q", charge.Code)
	}
}
