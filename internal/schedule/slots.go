// Package schedule computes the pickup and delivery time windows a branch
// can honor today. Slot generation is a pure function of the branch hours,
// the current time and a mode-specific lead time; it holds no state and is
// recomputed on every evaluation.
package schedule

import (
	"fmt"
	"time"

	"bistro/internal/models"
)

const (
	// boundaryBuffer is trimmed inward from both the opening and closing
	// bounds before any slot is offered.
	boundaryBuffer = 30 * time.Minute
	// slotInterval is the spacing between offered slots.
	slotInterval = 30 * time.Minute

	// PickupLeadTime is the minimum notice for a scheduled pickup.
	PickupLeadTime = 30 * time.Minute
	// DeliveryLeadTime is the minimum notice for a scheduled delivery.
	DeliveryLeadTime = 45 * time.Minute
)

// ErrSlotTooSoon is returned when a previously valid slot no longer clears
// the lead-time requirement at submission time.
var ErrSlotTooSoon = fmt.Errorf("selected time slot is too soon")

// LeadTimeFor returns the scheduling lead time for an order mode.
func LeadTimeFor(mode models.OrderMode) time.Duration {
	if mode == models.ModeDelivery {
		return DeliveryLeadTime
	}
	return PickupLeadTime
}

// GenerateSlots returns the "HH:MM" slots a branch can offer today.
// openingTime and closingTime are "HH:MM" in the branch's local day; a close
// at or before the open is treated as next-day. Both bounds are buffered
// inward by 30 minutes, the earliest offerable instant is
// max(bufferedOpen, now+leadTime) rounded up to a 30-minute boundary, and
// slots are emitted at 30-minute spacing while they stay at or before the
// buffered close. An empty result is a valid outcome, not an error: it means
// no slot can be honored today.
func GenerateSlots(openingTime, closingTime string, now time.Time, leadTime time.Duration) ([]string, error) {
	open, err := atClock(now, openingTime)
	if err != nil {
		return nil, fmt.Errorf("invalid opening time: %w", err)
	}
	close, err := atClock(now, closingTime)
	if err != nil {
		return nil, fmt.Errorf("invalid closing time: %w", err)
	}
	if !close.After(open) {
		close = close.Add(24 * time.Hour)
	}

	bufferedOpen := open.Add(boundaryBuffer)
	bufferedClose := close.Add(-boundaryBuffer)

	earliest := now.Add(leadTime)
	if bufferedOpen.After(earliest) {
		earliest = bufferedOpen
	}
	earliest = roundUp(earliest, slotInterval)

	var slots []string
	for t := earliest; !t.After(bufferedClose); t = t.Add(slotInterval) {
		slots = append(slots, t.Format("15:04"))
	}
	return slots, nil
}

// ValidateSlot re-checks a chosen slot immediately before submission. The
// backend enforces lead time as well; this check exists so a slot gone stale
// between selection and submit fails fast without a network call.
func ValidateSlot(slot time.Time, now time.Time, leadTime time.Duration) error {
	if slot.Before(now.Add(leadTime)) {
		return ErrSlotTooSoon
	}
	return nil
}

// SlotInstant resolves an "HH:MM" slot string against today's date. Slots
// past midnight of an overnight window land on the next day.
func SlotInstant(slot string, now time.Time) (time.Time, error) {
	t, err := atClock(now, slot)
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(now.Add(-12 * time.Hour)) {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

func roundUp(t time.Time, interval time.Duration) time.Time {
	rounded := t.Truncate(interval)
	if rounded.Before(t) {
		rounded = rounded.Add(interval)
	}
	return rounded
}
