// Package metrics exports the service's Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crypto_persona"

// Recorder holds every collector. A nil *Recorder records nothing.
type Recorder struct {
	results        *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	reportCache    *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	imageOutcomes  *prometheus.CounterVec
	imageDuration  prometheus.Histogram
}

// New registers the collectors on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Completed quizzes by personality code.",
		}, []string{"code", "source"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_lookups_total",
			Help:      "Report route lookups by outcome.",
		}, []string{"outcome"}),
		reportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_requests_total",
			Help:      "PDF report cache hits and misses.",
		}, []string{"result"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quiz_sessions_active",
			Help:      "Open websocket quiz sessions.",
		}),
		imageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_generations_total",
			Help:      "Profile image generation attempts by outcome.",
		}, []string{"outcome"}),
		imageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_generation_duration_seconds",
			Help:      "Latency of one profile image generation.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
	}
	collectors := []prometheus.Collector{r.results, r.lookups, r.reportCache, r.sessionsActive, r.imageOutcomes, r.imageDuration}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return r, nil
}

// ResultScored counts a completed quiz; source is "api" or "ws".
func (r *Recorder) ResultScored(code, source string) {
	if r == nil {
		return
	}
	r.results.WithLabelValues(code, source).Inc()
}

// ResultLookup counts a report route resolution.
func (r *Recorder) ResultLookup(found bool) {
	if r == nil {
		return
	}
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	r.lookups.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ReportCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.reportCache.WithLabelValues(result).Inc()
}

// SessionOpened and SessionClosed track live websocket sessions.
func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.sessionsActive.Inc()
}

func (r *Recorder) SessionClosed() {
	if r == nil {
		return
	}
	r.sessionsActive.Dec()
}

// ImageGenerated records one generation attempt.
func (r *Recorder) ImageGenerated(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.imageDuration.Observe(d.Seconds())
	if err != nil {
		r.imageOutcomes.WithLabelValues("error").Inc()
		return
	}
	r.imageOutcomes.WithLabelValues("ok").Inc()
}
