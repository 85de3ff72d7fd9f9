package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energymodel_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	conversionTotal   *prometheus.CounterVec
	conversionLatency *prometheus.HistogramVec

	solverParseTotal *prometheus.CounterVec
	solverRecords    *prometheus.CounterVec

	deriveStepsTotal *prometheus.CounterVec
	deriveLatency    *prometheus.HistogramVec
)

// Init registers run metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		conversionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conversion_total",
				Help: "Total conversions by source format, target format and result",
			},
			[]string{"from", "to", "result"},
		)
		conversionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "conversion_latency_seconds",
				Help:    "Conversion latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"from", "to", "result"},
		)

		solverParseTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "solver_parse_total",
				Help: "Total solver output parses by dialect and result",
			},
			[]string{"dialect", "result"},
		)
		solverRecords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "solver_records_total",
				Help: "Total solution records parsed by dialect",
			},
			[]string{"dialect"},
		)

		deriveStepsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "derive_steps_total",
				Help: "Total derivation steps by variant and outcome",
			},
			[]string{"variant", "outcome"},
		)
		deriveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "derive_latency_seconds",
				Help:    "Derivation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"variant", "result"},
		)

		prometheus.MustRegister(
			conversionTotal,
			conversionLatency,
			solverParseTotal,
			solverRecords,
			deriveStepsTotal,
			deriveLatency,
		)
	})
}

// ObserveConversion records conversion latency and result.
func ObserveConversion(from, to, result string, duration time.Duration) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if conversionTotal != nil {
		conversionTotal.WithLabelValues(from, to, result).Inc()
	}
	if conversionLatency != nil {
		conversionLatency.WithLabelValues(from, to, result).Observe(duration.Seconds())
	}
}

// ObserveSolverParse records a solver output parse and its record count.
func ObserveSolverParse(dialect, result string, records int) {
	if dialect == "" {
		dialect = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if solverParseTotal != nil {
		solverParseTotal.WithLabelValues(dialect, result).Inc()
	}
	if records > 0 && solverRecords != nil {
		solverRecords.WithLabelValues(dialect).Add(float64(records))
	}
}

// IncDeriveStep increments the derivation step counter.
func IncDeriveStep(variant, outcome string) {
	if variant == "" {
		variant = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if deriveStepsTotal != nil {
		deriveStepsTotal.WithLabelValues(variant, outcome).Inc()
	}
}

// ObserveDerive records derivation latency and result.
func ObserveDerive(variant, result string, duration time.Duration) {
	if variant == "" {
		variant = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if deriveLatency != nil {
		deriveLatency.WithLabelValues(variant, result).Observe(duration.Seconds())
	}
}

// WriteTextfile dumps the default registry in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Result returns the result label for err.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
