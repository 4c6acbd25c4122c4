package monitoring

import (
	"testing"
	"time"
)

// The prometheus collectors register on the default registry, so the
// package shares one Metrics across tests.
var m = NewMetrics()

func TestMetrics_Snapshot(t *testing.T) {
	m.ActionStarted("set_tip")
	m.ActionFinished("set_tip", true, 20*time.Millisecond)

	snapshot := m.Snapshot()

	value, exists := snapshot["set_tip_total"]
	if !exists {
		t.Fatalf("Expected 'set_tip_total' to be present in snapshot, but it was not")
	}
	if value.(int64) < 1 {
		t.Errorf("Expected 'set_tip_total' to be at least 1, but got %v", value)
	}

	// Check uptime presence
	_, exists = snapshot["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in snapshot, but it was not")
	}
}

func TestMetrics_RecordsFailures(t *testing.T) {
	m.ActionStarted("confirm_order")
	m.ActionFinished("confirm_order", false, 35*time.Millisecond)

	snapshot := m.Snapshot()

	value, exists := snapshot["confirm_order_failures"]
	if !exists {
		t.Fatalf("Expected 'confirm_order_failures' to be present in snapshot, but it was not")
	}
	if value.(int64) < 1 {
		t.Errorf("Expected 'confirm_order_failures' to be at least 1, but got %v", value)
	}

	// A successful run must not add a failure
	m.ActionStarted("set_tip")
	m.ActionFinished("set_tip", true, 10*time.Millisecond)
	snapshot = m.Snapshot()
	if _, exists := snapshot["set_tip_failures"]; exists {
		t.Error("Expected no 'set_tip_failures' entry for successful actions")
	}
}
