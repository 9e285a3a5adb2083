package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the engine's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	NumbersCalled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bingo",
			Name:      "numbers_called_total",
			Help:      "Total number of bingo numbers called across sessions.",
		},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bingo",
			Name:      "sessions_completed_total",
			Help:      "Completed sessions by outcome.",
		},
		[]string{"outcome"},
	)

	WinChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bingo",
			Name:      "win_checks_total",
			Help:      "Win verification requests by result.",
		},
		[]string{"result"},
	)

	LedgerRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bingo",
			Name:      "ledger_retries_total",
			Help:      "Ledger write attempts that had to be retried.",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bingo",
			Name:      "active_sessions",
			Help:      "Sessions created and not yet completed.",
		},
	)
)

func init() {
	Registry.MustRegister(
		NumbersCalled,
		SessionsCompleted,
		WinChecks,
		LedgerRetries,
		ActiveSessions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
