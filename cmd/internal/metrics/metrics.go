// Package metrics owns the Prometheus registry of the signup service and the
// duration histograms recorded on the registration path.
//
// Nothing here touches prometheus.DefaultRegisterer: callers create a registry,
// pass it to New, and mount Handler over the same registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HashBuckets spans 50ms..150ms in 10ms steps.
	HashBuckets = []float64{0.05, 0.06, 0.07, 0.08, 0.09, 0.1, 0.11, 0.12, 0.13, 0.14, 0.15}
	// SaveBuckets spans 10ms..100ms in 10ms steps.
	SaveBuckets = []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.1}
)

// Metrics holds the registration-path collectors.
type Metrics struct {
	GenerateHashDuration prometheus.Histogram
	SaveUserDuration     prometheus.Histogram
}

// New creates the registration histograms and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		GenerateHashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "generate_hash_duration_seconds",
			Help:    "Duration to generate argon2 hash for the user.",
			Buckets: HashBuckets,
		}),
		SaveUserDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "save_user_duration_seconds",
			Help:    "Duration to save user into the database.",
			Buckets: SaveBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.GenerateHashDuration, m.SaveUserDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves everything in g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
