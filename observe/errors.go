package observe

import "errors"

// Configuration errors.
var (
	// ErrMissingServiceName indicates Config.ServiceName is empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidSamplePct indicates Tracing.SamplePct is not in [0.0, 1.0].
	ErrInvalidSamplePct = errors.New("observe: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter indicates an unknown tracing exporter name.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter indicates an unknown metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidMetricsPort indicates Metrics.Port is outside 0-65535.
	ErrInvalidMetricsPort = errors.New("observe: invalid metrics port")

	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")

	// ErrInvalidLogOutput indicates an unknown log output name.
	ErrInvalidLogOutput = errors.New("observe: invalid log output")
)

// Runtime errors.
var (
	// ErrNilObserver indicates a nil Observer was provided.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMetricsNotExposable indicates the observer was not configured with the
	// prometheus metrics exporter.
	ErrMetricsNotExposable = errors.New("observe: metrics exporter is not prometheus")

	// ErrMetricsAlreadyExposed indicates ExposeMetrics was already called.
	ErrMetricsAlreadyExposed = errors.New("observe: metrics endpoint already running")
)

// Validation constants.
const (
	// MinSamplePct is the minimum valid sampling percentage.
	MinSamplePct = 0.0
	// MaxSamplePct is the maximum valid sampling percentage.
	MaxSamplePct = 1.0
)

// ValidTracingExporters lists valid tracing exporter names.
var ValidTracingExporters = []string{"otlp", "jaeger", "stdout", "none", ""}

// ValidMetricsExporters lists valid metrics exporter names.
var ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}

// ValidLogLevels lists the level names accepted by ParseLevel, in lower case.
var ValidLogLevels = []string{"debug", "info", "warning", "warn", "error", "critical", ""}

// ValidLogOutputs lists valid log output names.
var ValidLogOutputs = []string{"stdout", "stderr", ""}
