package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "classifications_total", Help: "Classifier calls by model and outcome"},
		[]string{"model", "outcome"},
	)
	ClassificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classification_duration_seconds",
			Help:    "Classifier call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "result_cache_lookups_total", Help: "Result cache lookups by outcome"},
		[]string{"result"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trading signals produced"},
		[]string{"symbol", "signal"},
	)
	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_size",
			Help:    "Number of items per scoring batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		},
	)
	WebhookAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_attempts_total", Help: "Webhook delivery attempts by outcome"},
		[]string{"outcome"},
	)
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by terminal state"},
		[]string{"state"},
	)
	StreamMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "stream_messages_total", Help: "Headline stream messages by outcome"},
		[]string{"outcome"},
	)
	FeedItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_items_total", Help: "RSS items submitted for scoring"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(
		ClassificationsTotal,
		ClassificationDuration,
		CacheLookupsTotal,
		SignalsTotal,
		BatchSize,
		WebhookAttemptsTotal,
		WebhookDeliveriesTotal,
		StreamMessagesTotal,
		FeedItemsTotal,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
