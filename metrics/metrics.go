package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	WagersPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolita_wagers_placed_total",
			Help: "Total number of wagers placed",
		},
		[]string{"bet_type"},
	)

	WagersCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bolita_wagers_cancelled_total",
			Help: "Total number of wagers cancelled before close",
		},
	)

	WagersSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolita_wagers_settled_total",
			Help: "Total number of wagers settled",
		},
		[]string{"outcome"},
	)

	PrizesPaidTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolita_prizes_paid_minor_units_total",
			Help: "Total prize amounts credited, in minor units per currency",
		},
		[]string{"currency"},
	)

	OpenSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bolita_open_sessions",
			Help: "Number of sessions currently accepting wagers",
		},
	)

	SchedulerTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bolita_scheduler_ticks_total",
			Help: "Total number of scheduler ticks",
		},
	)

	PaymentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolita_payment_requests_total",
			Help: "Total number of payment requests filed",
		},
		[]string{"type"},
	)
)

func RecordWagerPlaced(betType string) {
	WagersPlacedTotal.WithLabelValues(betType).Inc()
}

func RecordWagerCancelled() {
	WagersCancelledTotal.Inc()
}

func RecordSettlement(won bool) {
	outcome := "lost"
	if won {
		outcome = "won"
	}
	WagersSettledTotal.WithLabelValues(outcome).Inc()
}

func RecordPrize(currency string, amount int64) {
	PrizesPaidTotal.WithLabelValues(currency).Add(float64(amount))
}

func RecordPaymentRequest(requestType string) {
	PaymentRequestsTotal.WithLabelValues(requestType).Inc()
}

// Serve exposes the /metrics endpoint on addr. It blocks, so callers run it
// in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server stopped")
	}
}
