package metrics

import (
	"time"

	"efb/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	CacheLookups      *prometheus.CounterVec
	Refreshes         *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	Records           *prometheus.GaugeVec
	SnapshotFetchedAt prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "efb_cache_lookups_total",
			Help: "Snapshot cache lookups by result (hit, miss, expired, forced)",
		}, []string{"result"}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "efb_refreshes_total",
			Help: "Pipeline refreshes by outcome and error kind",
		}, []string{"outcome", "kind"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "efb_refresh_duration_seconds",
			Help:    "Duration of the fetch, extract, download and parse pipeline",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "efb_records",
			Help: "Records in the cached snapshot by status",
		}, []string{"status"}),
		SnapshotFetchedAt: f.NewGauge(prometheus.GaugeOpts{
			Name: "efb_snapshot_fetched_at_seconds",
			Help: "Unix time the cached snapshot was parsed",
		}),
	}
}

func (m *Metrics) ObserveLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRefresh(d time.Duration, kind string, err error) {
	m.RefreshDuration.Observe(d.Seconds())
	if err != nil {
		m.Refreshes.WithLabelValues("failure", kind).Inc()
		return
	}
	m.Refreshes.WithLabelValues("success", "").Inc()
}

func (m *Metrics) ObserveSnapshot(s *models.Snapshot) {
	m.Records.WithLabelValues(string(models.StatusRegistered)).Set(float64(len(s.Registered)))
	m.Records.WithLabelValues(string(models.StatusCancelled)).Set(float64(len(s.Cancelled)))
	m.SnapshotFetchedAt.Set(float64(s.FetchedAt.Unix()))
}
