package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the tracker's prometheus metrics
type Metrics struct {
	Polls                prometheus.Counter
	PollFailures         *prometheus.CounterVec
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter
	TrackedFlights       prometheus.Gauge
	Subscriptions        *prometheus.CounterVec
	Lookups              *prometheus.CounterVec
}

// NewMetrics registers the metrics with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Polls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "The total number of upstream polls of tracked flights",
		}),
		PollFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Failed polls of tracked flights",
		}, []string{"reason"}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications handed to the sink",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications the sink failed to deliver",
		}),
		TrackedFlights: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_flights",
			Help:      "Number of flights currently tracked",
		}),
		Subscriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_requests_total",
			Help:      "Track and untrack requests by outcome",
		}, []string{"op", "result"}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Flight lookups by cache result",
		}, []string{"cache"}),
	}
}
