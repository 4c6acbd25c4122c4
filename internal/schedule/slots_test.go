package schedule

import (
	"testing"
	"time"

	"bistro/internal/models"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 31, hour, min, 0, 0, time.UTC)
}

func TestGenerateSlotsMorning(t *testing.T) {
	// 09:00-21:00 branch at 08:00 with a 30m lead: first slot is the
	// buffered open (09:30), last is the buffered close (20:30).
	slots, err := GenerateSlots("09:00", "21:00", at(8, 0), PickupLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("GenerateSlots() returned no slots")
	}
	if slots[0] != "09:30" {
		t.Errorf("first slot = %q, want %q", slots[0], "09:30")
	}
	if slots[len(slots)-1] != "20:30" {
		t.Errorf("last slot = %q, want %q", slots[len(slots)-1], "20:30")
	}
	if len(slots) != 23 {
		t.Errorf("slot count = %d, want 23", len(slots))
	}
}

func TestGenerateSlotsMidDayRoundsUp(t *testing.T) {
	// At 13:10 with a 30m lead the earliest honorable instant is 13:40,
	// rounded up to the 14:00 boundary.
	slots, err := GenerateSlots("09:00", "21:00", at(13, 10), PickupLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("GenerateSlots() returned no slots")
	}
	if slots[0] != "14:00" {
		t.Errorf("first slot = %q, want %q", slots[0], "14:00")
	}
}

func TestGenerateSlotsExactBoundaryNotRounded(t *testing.T) {
	// 13:00 + 30m lead lands exactly on 13:30; no extra interval is added.
	slots, err := GenerateSlots("09:00", "21:00", at(13, 0), PickupLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if slots[0] != "13:30" {
		t.Errorf("first slot = %q, want %q", slots[0], "13:30")
	}
}

func TestGenerateSlotsNearClose(t *testing.T) {
	// At 20:50 the lead pushes past the buffered close; nothing can be
	// honored and that is a valid empty answer, not an error.
	slots, err := GenerateSlots("09:00", "21:00", at(20, 50), PickupLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("slot count = %d, want 0 near close", len(slots))
	}
}

func TestGenerateSlotsDeliveryLead(t *testing.T) {
	// The 45m delivery lead at 13:10 reaches 13:55, rounding up to 14:00.
	slots, err := GenerateSlots("09:00", "21:00", at(13, 10), DeliveryLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if slots[0] != "14:00" {
		t.Errorf("first slot = %q, want %q", slots[0], "14:00")
	}

	// At 13:50 the delivery lead reaches 14:35 and rounds up to 15:00,
	// while the pickup lead would still allow 14:30.
	slots, err = GenerateSlots("09:00", "21:00", at(13, 50), DeliveryLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if slots[0] != "15:00" {
		t.Errorf("first delivery slot = %q, want %q", slots[0], "15:00")
	}
}

func TestGenerateSlotsOvernightClose(t *testing.T) {
	// A close at or before the open means next-day close: 18:00-02:00
	// offers slots through midnight up to the buffered 01:30.
	slots, err := GenerateSlots("18:00", "02:00", at(23, 0), PickupLeadTime)
	if err != nil {
		t.Fatalf("GenerateSlots() error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("GenerateSlots() returned no slots for overnight window")
	}
	if slots[0] != "23:30" {
		t.Errorf("first slot = %q, want %q", slots[0], "23:30")
	}
	if slots[len(slots)-1] != "01:30" {
		t.Errorf("last slot = %q, want %q", slots[len(slots)-1], "01:30")
	}
}

func TestGenerateSlotsInvalidClock(t *testing.T) {
	if _, err := GenerateSlots("9am", "21:00", at(12, 0), PickupLeadTime); err == nil {
		t.Error("GenerateSlots() accepted a malformed opening time")
	}
	if _, err := GenerateSlots("09:00", "25:99", at(12, 0), PickupLeadTime); err == nil {
		t.Error("GenerateSlots() accepted a malformed closing time")
	}
}

func TestValidateSlot(t *testing.T) {
	now := at(12, 0)

	if err := ValidateSlot(at(12, 45), now, PickupLeadTime); err != nil {
		t.Errorf("ValidateSlot() rejected a slot beyond the lead: %v", err)
	}
	if err := ValidateSlot(at(12, 15), now, PickupLeadTime); err != ErrSlotTooSoon {
		t.Errorf("ValidateSlot() = %v, want ErrSlotTooSoon", err)
	}
	// Landing exactly on now+lead is acceptable.
	if err := ValidateSlot(at(12, 30), now, PickupLeadTime); err != nil {
		t.Errorf("ValidateSlot() rejected the exact lead boundary: %v", err)
	}
}

func TestLeadTimeFor(t *testing.T) {
	if got := LeadTimeFor(models.ModePickup); got != PickupLeadTime {
		t.Errorf("LeadTimeFor(pickup) = %v, want %v", got, PickupLeadTime)
	}
	if got := LeadTimeFor(models.ModeDelivery); got != DeliveryLeadTime {
		t.Errorf("LeadTimeFor(delivery) = %v, want %v", got, DeliveryLeadTime)
	}
}

func TestSlotInstant(t *testing.T) {
	now := at(23, 0)

	instant, err := SlotInstant("23:30", now)
	if err != nil {
		t.Fatalf("SlotInstant() error: %v", err)
	}
	if instant.Day() != now.Day() || instant.Hour() != 23 || instant.Minute() != 30 {
		t.Errorf("SlotInstant(23:30) = %v, want same-day 23:30", instant)
	}

	// A post-midnight slot of an overnight window lands on the next day.
	instant, err = SlotInstant("01:30", now)
	if err != nil {
		t.Fatalf("SlotInstant() error: %v", err)
	}
	if !instant.After(now) {
		t.Errorf("SlotInstant(01:30) = %v, want an instant after %v", instant, now)
	}
}
