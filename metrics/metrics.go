// Package metrics exports programming sessions as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-autoprog/programmer"
)

const namespace = "autoprog"

// Recorder turns controller callbacks into Prometheus metrics.
//
// Wire it into a controller with its two callbacks:
//
//	rec := metrics.NewRecorder(prometheus.DefaultRegisterer)
//	ctrl := programmer.New(device, catalog.Builtin(),
//	    programmer.WithProgressCallback(rec.Progress),
//	    programmer.WithResultCallback(rec.Observe),
//	)
type Recorder struct {
	sessions *prometheus.CounterVec
	chips    *prometheus.CounterVec
	pages    prometheus.Counter
	bytes    prometheus.Counter
	duration *prometheus.HistogramVec
	phase    prometheus.Gauge
	progress prometheus.Gauge
	lastRun  prometheus.Gauge
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// It panics if any collector is already registered, like prometheus.MustRegister.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Programming sessions by outcome and failure reason",
		}, []string{"outcome", "reason"}),
		chips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chips_programmed_total",
			Help:      "Successfully programmed targets by chip profile",
		}, []string{"chip"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flash_pages_written_total",
			Help:      "Flash pages written, failed sessions included",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flash_bytes_written_total",
			Help:      "Flash bytes written, page padding included",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Session duration from begin to the terminal phase",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_phase",
			Help:      "Phase of the most recent session (0 idle .. 7 succeeded, 8 failed)",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_progress_percent",
			Help:      "Completion percentage of the most recent session",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_session_timestamp_seconds",
			Help:      "End of the most recent session (unix time in seconds)",
		}),
	}

	reg.MustRegister(r.sessions, r.chips, r.pages, r.bytes, r.duration, r.phase, r.progress, r.lastRun)
	return r
}

// Progress is a programmer.ProgressCallback.
func (r *Recorder) Progress(p programmer.Progress) {
	r.phase.Set(float64(p.Phase))
	if p.Phase != programmer.PhaseFailed {
		r.progress.Set(p.Percentage)
	}
}

// Observe is a programmer.ResultCallback.
func (r *Recorder) Observe(res *programmer.Result) {
	if res == nil {
		return
	}

	outcome := "failed"
	reason := res.Reason.String()
	if res.Succeeded() {
		outcome = "succeeded"
		if res.Warning != nil {
			outcome = "succeeded_with_warning"
		}
		reason = "none"
		if res.Profile != nil {
			r.chips.WithLabelValues(res.Profile.Name).Inc()
		}
	}

	r.sessions.WithLabelValues(outcome, reason).Inc()
	r.duration.WithLabelValues(outcome).Observe(res.Duration.Seconds())
	r.phase.Set(float64(res.Phase))

	if res.Flash != nil {
		r.pages.Add(float64(res.Flash.Pages))
		r.bytes.Add(float64(res.Flash.Bytes))
	}

	r.lastRun.SetToCurrentTime()
}
