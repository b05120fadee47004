package observe

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// DefaultConfig returns the startup configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ServiceName: DefaultServiceName,
		Version:     DefaultVersion,
		Environment: DefaultEnvironment,
		Tracing: TracingConfig{
			Enabled:   false,
			Exporter:  "none",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Exporter:  "prometheus",
			Namespace: DefaultMetricsNamespace,
			Port:      DefaultMetricsPort,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Output:  "stdout",
		},
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig. An
// empty path or a missing file yields the defaults. The result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("service_name", cfg.ServiceName)
	v.SetDefault("version", cfg.Version)
	v.SetDefault("environment", cfg.Environment)
	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.exporter", cfg.Tracing.Exporter)
	v.SetDefault("tracing.sample_pct", cfg.Tracing.SamplePct)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.exporter", cfg.Metrics.Exporter)
	v.SetDefault("metrics.namespace", cfg.Metrics.Namespace)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("logging.enabled", cfg.Logging.Enabled)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.output", cfg.Logging.Output)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("reading %s: %w", path, err)
			}
		}
	}

	cfg.ServiceName = v.GetString("service_name")
	cfg.Version = v.GetString("version")
	cfg.Environment = v.GetString("environment")
	cfg.Tracing = TracingConfig{
		Enabled:   v.GetBool("tracing.enabled"),
		Exporter:  v.GetString("tracing.exporter"),
		SamplePct: v.GetFloat64("tracing.sample_pct"),
	}
	cfg.Metrics = MetricsConfig{
		Enabled:   v.GetBool("metrics.enabled"),
		Exporter:  v.GetString("metrics.exporter"),
		Namespace: v.GetString("metrics.namespace"),
		Port:      v.GetInt("metrics.port"),
	}
	cfg.Logging = LoggingConfig{
		Enabled: v.GetBool("logging.enabled"),
		Level:   v.GetString("logging.level"),
		Output:  v.GetString("logging.output"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
