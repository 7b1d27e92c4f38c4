package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestDialogueMetricsObserve(t *testing.T) {
	m := NewDialogueMetrics(prometheus.NewRegistry())
	m.ObserveTurn("name", "advanced", 0.01)
	m.ObserveTurn("name", "advanced", 0.02)
	m.ObserveBooking("booked")
	m.ObserveNotification("sms", nil)
	m.ObserveNotification("sms", errors.New("timeout"))

	if got := counterValue(t, m.turnsTotal.WithLabelValues("name", "advanced")); got != 2 {
		t.Fatalf("expected 2 turns, got %v", got)
	}
	if got := counterValue(t, m.bookingsTotal.WithLabelValues("booked")); got != 1 {
		t.Fatalf("expected 1 booking, got %v", got)
	}
	if got := counterValue(t, m.notificationsTotal.WithLabelValues("sms", "failed")); got != 1 {
		t.Fatalf("expected 1 failed send, got %v", got)
	}
}

func TestRegisterActiveSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterActiveSessions(reg, func() int { return 3 })

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 1 || families[0].GetName() != "jenny_session_active" {
		t.Fatalf("unexpected families %v", families)
	}
	if got := families[0].GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected gauge 3, got %v", got)
	}
}

func TestRegisterLedgerSize(t *testing.T) {
	reg := prometheus.NewRegistry()
	n := 0
	RegisterLedgerSize(reg, func() int { return n })
	n = 2

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 1 || families[0].GetName() != "jenny_booking_ledger_size" {
		t.Fatalf("unexpected families %v", families)
	}
	if got := families[0].GetMetric()[0].GetGauge().GetValue(); got != 2 {
		t.Fatalf("expected gauge 2, got %v", got)
	}
}

func TestDialogueMetricsNilSafe(t *testing.T) {
	var m *DialogueMetrics
	m.ObserveTurn("start", "greeting", 0.1)
	m.ObserveBooking("slot_full")
	m.ObserveNotification("email", nil)
}
