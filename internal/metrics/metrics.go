// Package metrics provides Prometheus metrics for the page cache
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache names used as the "cache" label.
const (
	CacheSinglePage = "single_page"
	CacheMultiPage  = "multi_page"
	CacheLayout     = "layout"
)

// Metrics holds the page cache collectors. A nil *Metrics records nothing.
type Metrics struct {
	CacheLookupsTotal     *prometheus.CounterVec
	MaterializationsTotal *prometheus.CounterVec
	ExtractionsTotal      *prometheus.CounterVec
	ExtractedPagesTotal   prometheus.Counter
	ExtractionDuration    prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered. Collectors already registered on reg by an earlier
// call are shared, so several documents can report to one registry. Any
// other registration conflict is returned as an error.
func New(reg prometheus.Registerer) (*Metrics, error) {
	factory := promauto.With(nil)

	m := &Metrics{
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpdf_cache_lookups_total",
				Help: "Total number of page cache lookups",
			},
			[]string{"cache", "result"},
		),
		MaterializationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpdf_materializations_total",
				Help: "Total number of page files written from the source document",
			},
			[]string{"kind"},
		),
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpdf_extractions_total",
				Help: "Total number of layout extractor runs",
			},
			[]string{"status"},
		),
		ExtractedPagesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "taskpdf_extracted_pages_total",
				Help: "Total number of pages returned by the layout extractor",
			},
		),
		ExtractionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskpdf_extraction_duration_seconds",
				Help:    "Duration of layout extractor runs in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.CacheLookupsTotal, err = register(reg, m.CacheLookupsTotal); err != nil {
		return nil, err
	}
	if m.MaterializationsTotal, err = register(reg, m.MaterializationsTotal); err != nil {
		return nil, err
	}
	if m.ExtractionsTotal, err = register(reg, m.ExtractionsTotal); err != nil {
		return nil, err
	}
	if m.ExtractedPagesTotal, err = register(reg, m.ExtractedPagesTotal); err != nil {
		return nil, err
	}
	if m.ExtractionDuration, err = register(reg, m.ExtractionDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("failed to register metrics: %w", err)
}

// RecordLookup records hits and misses against one cache
func (m *Metrics) RecordLookup(cache string, hits, misses int) {
	if m == nil {
		return
	}
	if hits > 0 {
		m.CacheLookupsTotal.WithLabelValues(cache, "hit").Add(float64(hits))
	}
	if misses > 0 {
		m.CacheLookupsTotal.WithLabelValues(cache, "miss").Add(float64(misses))
	}
}

// RecordMaterialization records a page file written to disk
func (m *Metrics) RecordMaterialization(kind string) {
	if m == nil {
		return
	}
	m.MaterializationsTotal.WithLabelValues(kind).Inc()
}

// RecordExtraction records one extractor run
func (m *Metrics) RecordExtraction(pages int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ExtractionsTotal.WithLabelValues(status).Inc()
	m.ExtractionDuration.Observe(duration.Seconds())
	if err == nil {
		m.ExtractedPagesTotal.Add(float64(pages))
	}
}
