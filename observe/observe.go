package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/omniobs/observe/exporters"
)

// Config holds all configuration for the Observer. It is supplied once at
// process start.
type Config struct {
	ServiceName string
	Version     string
	Environment string
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled   bool
	Exporter  string  // otlp|jaeger|stdout|none
	SamplePct float64 // 0.0-1.0
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	Enabled   bool
	Exporter  string // otlp|prometheus|stdout|none
	Namespace string // instrument name prefix, default "omni"
	Port      int    // port for ExposeMetrics
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	Enabled bool
	Level   string // debug|info|warning|error|critical
	Output  string // stdout|stderr
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	if c.Tracing.Enabled {
		if !contains(ValidTracingExporters, c.Tracing.Exporter) {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, c.Tracing.Exporter)
		}
		if c.Tracing.SamplePct < MinSamplePct || c.Tracing.SamplePct > MaxSamplePct {
			return fmt.Errorf("%w, got: %f", ErrInvalidSamplePct, c.Tracing.SamplePct)
		}
	}

	if c.Metrics.Enabled {
		if !contains(ValidMetricsExporters, c.Metrics.Exporter) {
			return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, c.Metrics.Exporter)
		}
		if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidMetricsPort, c.Metrics.Port)
		}
	}

	if c.Logging.Enabled {
		if _, err := ParseLevel(c.Logging.Level); err != nil {
			return err
		}
		if !contains(ValidLogOutputs, c.Logging.Output) {
			return fmt.Errorf("%w: %q", ErrInvalidLogOutput, c.Logging.Output)
		}
	}

	return nil
}

// Observer provides access to telemetry primitives.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Shutdown must honor cancellation/deadlines.
// - Errors: Shutdown should be idempotent and return the first error encountered.
type Observer interface {
	// Tracer returns the configured tracer.
	Tracer() trace.Tracer

	// Meter returns the configured meter.
	Meter() metric.Meter

	// Metrics returns the action counter and latency histogram.
	Metrics() Metrics

	// Logs returns the logger registry.
	Logs() *Registry

	// Logger returns the named logger from Logs.
	Logger(name string) *Logger

	// ExposeMetrics serves /metrics on port and returns the bound port. Port 0
	// means Config.Metrics.Port; when that is 0 too a free port is picked.
	ExposeMetrics(ctx context.Context, port int) (int, error)

	// Shutdown gracefully shuts down all telemetry providers.
	Shutdown(ctx context.Context) error
}

// observer is the concrete implementation of Observer.
type observer struct {
	tracer         trace.Tracer
	meter          metric.Meter
	metrics        Metrics
	logs           *Registry
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	promRegistry   *promclient.Registry
	metricsPort    int

	mu     sync.Mutex
	server *metricsServer
}

// NewObserver creates a new Observer with the given configuration. When
// logging is enabled its registry becomes the default used by GetLogger.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs := &observer{metricsPort: cfg.Metrics.Port}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Tracing.Enabled {
		tp, tracer, err := setupTracing(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		obs.tracerProvider = tp
		obs.tracer = tracer
	} else {
		obs.tracer = tracenoop.NewTracerProvider().Tracer("noop")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Exporter == "prometheus" {
			obs.promRegistry = promclient.NewRegistry()
		}
		mp, meter, err := setupMetrics(ctx, cfg, res, obs.promRegistry)
		if err != nil {
			_ = obs.Shutdown(ctx)
			return nil, fmt.Errorf("failed to setup metrics: %w", err)
		}
		m, err := newMetrics(meter, cfg.Metrics.Namespace)
		if err != nil {
			_ = mp.Shutdown(ctx)
			_ = obs.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create instruments: %w", err)
		}
		obs.meterProvider = mp
		obs.meter = meter
		obs.metrics = m
	} else {
		obs.meter = noop.NewMeterProvider().Meter("noop")
		obs.metrics = &noopMetrics{}
	}

	obs.logs, err = newRegistryFromConfig(cfg)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	// Globals are installed only once every component is built.
	if obs.tracerProvider != nil {
		otel.SetTracerProvider(obs.tracerProvider)
	}
	if obs.meterProvider != nil {
		otel.SetMeterProvider(obs.meterProvider)
	}
	if cfg.Logging.Enabled {
		SetDefaultRegistry(obs.logs)
	}

	return obs, nil
}

func newRegistryFromConfig(cfg Config) (*Registry, error) {
	rc := RegistryConfig{
		Service: cfg.ServiceName,
		Version: cfg.Version,
		Env:     cfg.Environment,
	}
	if !cfg.Logging.Enabled {
		rc.Output = io.Discard
		return NewRegistry(rc), nil
	}

	level, err := ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	rc.Level = level
	switch cfg.Logging.Output {
	case "stderr":
		rc.Output = os.Stderr
	default:
		rc.Output = os.Stdout
	}
	return NewRegistry(rc), nil
}

func setupTracing(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, trace.Tracer, error) {
	exporter, err := exporters.NewTracingExporter(ctx, cfg.Tracing.Exporter, exporters.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.Tracing.SamplePct >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.Tracing.SamplePct <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.Tracing.SamplePct)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	tracer := tp.Tracer(cfg.ServiceName)
	return tp, tracer, nil
}

func setupMetrics(ctx context.Context, cfg Config, res *resource.Resource, reg *promclient.Registry) (*sdkmetric.MeterProvider, metric.Meter, error) {
	var eopts exporters.Options
	if reg != nil {
		eopts.Registerer = reg
	}
	reader, err := exporters.NewMetricsReader(ctx, cfg.Metrics.Exporter, eopts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics reader: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	meter := mp.Meter(cfg.ServiceName)
	return mp, meter, nil
}

func (o *observer) Tracer() trace.Tracer {
	return o.tracer
}

func (o *observer) Meter() metric.Meter {
	return o.meter
}

func (o *observer) Metrics() Metrics {
	return o.metrics
}

func (o *observer) Logs() *Registry {
	return o.logs
}

func (o *observer) Logger(name string) *Logger {
	return o.logs.Get(name)
}

func (o *observer) ExposeMetrics(ctx context.Context, port int) (int, error) {
	if o.promRegistry == nil {
		return 0, ErrMetricsNotExposable
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.server != nil {
		return 0, ErrMetricsAlreadyExposed
	}
	if port == 0 {
		port = o.metricsPort
	}

	srv, err := startMetricsServer(ctx, port, o.promRegistry)
	if err != nil {
		return 0, err
	}
	o.server = srv
	return srv.port, nil
}

func (o *observer) Shutdown(ctx context.Context) error {
	var errs []error

	o.mu.Lock()
	srv := o.server
	o.server = nil
	o.mu.Unlock()
	if srv != nil {
		if err := srv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
