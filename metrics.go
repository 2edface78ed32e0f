package anvil

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for dispatch status.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

var (
	arenasCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anvil_arenas_created_total",
			Help: "Total number of execution arenas created.",
		},
	)

	dispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anvil_dispatches_total",
			Help: "Total number of parallel dispatches.",
		},
		[]string{"arena", "status"},
	)

	dispatchItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anvil_dispatch_items_total",
			Help: "Total number of work items dispatched.",
		},
		[]string{"arena"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anvil_dispatch_duration_seconds",
			Help:    "Wall-clock duration of parallel dispatches, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"arena"},
	)

	activeDispatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "anvil_active_dispatches",
			Help: "Number of dispatches currently in flight.",
		},
	)
)

func init() {
	prometheus.MustRegister(arenasCreatedTotal)
	prometheus.MustRegister(dispatchesTotal)
	prometheus.MustRegister(dispatchItemsTotal)
	prometheus.MustRegister(dispatchDuration)
	prometheus.MustRegister(activeDispatches)
}
