package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-wide profile counters and HTTP latency.
type Metrics struct {
	ProfilesCreated     prometheus.Counter
	ProfilesUpdated     prometheus.Counter
	ProfilesDeleted     prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers against reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProfilesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_profiles_created_total",
			Help: "Total number of company profiles created",
		}),
		ProfilesUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_profiles_updated_total",
			Help: "Total number of company profile updates",
		}),
		ProfilesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_profiles_deleted_total",
			Help: "Total number of company profiles deleted",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lexdraft_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementProfilesCreated() {
	if m != nil {
		m.ProfilesCreated.Inc()
	}
}

func (m *Metrics) IncrementProfilesUpdated() {
	if m != nil {
		m.ProfilesUpdated.Inc()
	}
}

func (m *Metrics) IncrementProfilesDeleted() {
	if m != nil {
		m.ProfilesDeleted.Inc()
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m != nil {
		m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
