package checkout

import "bistro/internal/models"

// Step identifies one stage of the checkout flow.
type Step int

const (
	StepNone        Step = 0
	StepOrderType   Step = 1
	StepModeDetails Step = 2
	StepPayment     Step = 3
)

// Phase is the coarse lifecycle of the checkout flow.
type Phase string

const (
	PhaseNone      Phase = "no_checkout"
	PhaseActive    Phase = "active"
	PhaseConfirmed Phase = "confirmed"
	PhaseCancelled Phase = "cancelled"
)

// StepState is the projection of a server checkout session onto the
// three-step flow. It is recomputed from the latest fetched session on
// every relevant event; the client never tracks its own step enum, so the
// believed step can never diverge from server-actual progress.
type StepState struct {
	Phase     Phase
	Active    Step
	Completed [4]bool // indexed by Step, index 0 unused
}

// DeriveStep projects a checkout session onto the step flow. The decision
// table is evaluated top to bottom and the first match wins:
//
//	mode unset                                  -> active step 1
//	delivery and (no address or no quote)       -> active step 2
//	pickup and no payment method                -> active step 2
//	otherwise                                   -> active step 3
//
// Pickup counts step 2 as complete as soon as the mode is set, because
// pickup always carries at least an implicit ASAP time.
func DeriveStep(session *models.CheckoutSession) StepState {
	if session == nil || session.OrderID == "" {
		return StepState{Phase: PhaseNone}
	}
	switch session.Status {
	case models.CheckoutStatusConfirmed:
		return StepState{Phase: PhaseConfirmed}
	case models.CheckoutStatusCancelled:
		return StepState{Phase: PhaseCancelled}
	}

	state := StepState{Phase: PhaseActive}
	state.Completed[StepOrderType] = session.Mode != models.ModeUnset
	switch session.Mode {
	case models.ModePickup:
		state.Completed[StepModeDetails] = true
	case models.ModeDelivery:
		state.Completed[StepModeDetails] = session.HasAddress() && session.QuoteCreated
	}
	state.Completed[StepPayment] = session.HasPaymentMethod()

	switch {
	case session.Mode == models.ModeUnset:
		state.Active = StepOrderType
	case session.Mode == models.ModeDelivery && (!session.HasAddress() || !session.QuoteCreated):
		state.Active = StepModeDetails
	case session.Mode == models.ModePickup && !session.HasPaymentMethod():
		state.Active = StepModeDetails
	default:
		state.Active = StepPayment
	}
	return state
}

// Visitable reports whether the user may open a step: step 1 always, any
// later step only once the step before it is complete. Editing a completed
// step is allowed and does not destroy later completed steps.
func (s StepState) Visitable(step Step) bool {
	if s.Phase != PhaseActive {
		return false
	}
	switch step {
	case StepOrderType:
		return true
	case StepModeDetails:
		return s.Completed[StepOrderType]
	case StepPayment:
		return s.Completed[StepModeDetails]
	}
	return false
}
