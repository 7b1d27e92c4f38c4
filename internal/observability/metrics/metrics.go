package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogueMetrics exposes counters/histograms for the booking dialogue.
type DialogueMetrics struct {
	turnsTotal         *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	stepLatency        *prometheus.HistogramVec
}

func NewDialogueMetrics(reg prometheus.Registerer) *DialogueMetrics {
	m := &DialogueMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jenny",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Dialogue turns by stage and outcome",
		}, []string{"stage", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jenny",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by result",
		}, []string{"result"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jenny",
			Subsystem: "notify",
			Name:      "sends_total",
			Help:      "Confirmation sends by channel and status",
		}, []string{"channel", "status"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jenny",
			Subsystem: "dialogue",
			Name:      "step_latency_seconds",
			Help:      "Latency of a single dialogue turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.notificationsTotal, m.stepLatency)
	return m
}

// RegisterActiveSessions exports a gauge read from count on every scrape.
func RegisterActiveSessions(reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "jenny",
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently held by the session store",
	}, func() float64 { return float64(count()) }))
}

// RegisterLedgerSize exports the number of bookings held in process memory.
func RegisterLedgerSize(reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "jenny",
		Subsystem: "booking",
		Name:      "ledger_size",
		Help:      "Bookings held by the in-memory ledger",
	}, func() float64 { return float64(count()) }))
}

func (m *DialogueMetrics) ObserveTurn(stage, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(stage, outcome).Inc()
	m.stepLatency.WithLabelValues(stage).Observe(seconds)
}

func (m *DialogueMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *DialogueMetrics) ObserveNotification(channel string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(channel, status).Inc()
}
