// Package metrics exports Prometheus counters for the API surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	quotesAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qotd_quotes_added_total",
			Help: "Total quotes persisted",
		},
	)
	quotesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qotd_quotes_rejected_total",
			Help: "Total quote submissions rejected by validation",
		},
	)
	quotesServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qotd_random_quotes_served_total",
			Help: "Total random quote reads served",
		},
	)
	subscriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qotd_subscriptions_total",
			Help: "Total subscription changes",
		},
		[]string{"action"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qotd_http_requests_total",
			Help: "Total HTTP requests by status class",
		},
		[]string{"status"},
	)
)

func init() {
	registry.MustRegister(
		quotesAdded,
		quotesRejected,
		quotesServed,
		subscriptions,
		httpRequests,
	)
}

func IncQuotesAdded(n int) { quotesAdded.Add(float64(n)) }

func IncQuotesRejected(n int) { quotesRejected.Add(float64(n)) }

func IncQuoteServed() { quotesServed.Inc() }

func IncSubscribed() { subscriptions.WithLabelValues("subscribed").Inc() }

func IncUnsubscribed() { subscriptions.WithLabelValues("unsubscribed").Inc() }

func IncHTTPStatus(class string) { httpRequests.WithLabelValues(class).Inc() }

// Handler returns the scrape endpoint for this package's registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
