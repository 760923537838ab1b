package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/brunch/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records formatter runs in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bookings    prometheus.Histogram
	unscheduled prometheus.Counter
	clearSlots  prometheus.Gauge
	outputs     *prometheus.CounterVec
	outputBytes *prometheus.HistogramVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brunch_runs_total",
			Help: "Total number of run sheet generations",
		}, []string{"source", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brunch_run_duration_seconds",
			Help:    "Time to parse and schedule a booking export",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		bookings: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brunch_run_bookings",
			Help:    "Bookings per generated run sheet",
			Buckets: []float64{5, 10, 20, 40, 80, 160},
		}),
		unscheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brunch_unscheduled_bookings_total",
			Help: "Bookings whose start time could not be parsed",
		}),
		clearSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "brunch_last_run_clear_slots",
			Help: "Number of distinct clear order slots in the last run",
		}),
		outputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brunch_outputs_total",
			Help: "Total number of rendered output files",
		}, []string{"format", "status"}),
		outputBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brunch_output_bytes",
			Help:    "Size of rendered output files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
	}

	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.bookings, err = register(reg, s.bookings); err != nil {
		return nil, err
	}
	if s.unscheduled, err = register(reg, s.unscheduled); err != nil {
		return nil, err
	}
	if s.clearSlots, err = register(reg, s.clearSlots); err != nil {
		return nil, err
	}
	if s.outputs, err = register(reg, s.outputs); err != nil {
		return nil, err
	}
	if s.outputBytes, err = register(reg, s.outputBytes); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same description.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and observes its size and duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Source, ev.Status()).Inc()
	s.duration.WithLabelValues(ev.Source).Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		return nil
	}
	s.bookings.Observe(float64(ev.Bookings))
	s.unscheduled.Add(float64(ev.Unscheduled))
	s.clearSlots.Set(float64(ev.ClearSlots))
	return nil
}

// RecordOutput counts rendered files and observes their size.
func (s *PromSink) RecordOutput(ev coremetrics.OutputEvent) error {
	s.outputs.WithLabelValues(ev.Format, ev.Status()).Inc()
	if ev.Err == nil {
		s.outputBytes.WithLabelValues(ev.Format).Observe(float64(ev.Bytes))
	}
	return nil
}
