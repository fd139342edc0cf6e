package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nibog",
			Name:      "notifications_total",
			Help:      "Count of notification attempts by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	dispatchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nibog",
			Name:      "dispatch_runs_total",
			Help:      "Count of bulk dispatch runs by channel and final status.",
		},
		[]string{"channel", "status"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nibog",
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of bulk dispatch runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900},
		},
		[]string{"channel"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nibog",
			Name:      "bookings_created_total",
			Help:      "Count of bookings created through the public form.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nibog",
			Name:      "cache_lookups_total",
			Help:      "Public content cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(notifications, dispatchRuns, dispatchDuration, bookingsCreated, cacheLookups)
	})
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func IncNotification(channel string, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	notifications.WithLabelValues(channel, outcome).Inc()
}

func ObserveDispatch(channel, status string, took time.Duration) {
	dispatchRuns.WithLabelValues(channel, status).Inc()
	dispatchDuration.WithLabelValues(channel).Observe(took.Seconds())
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}
