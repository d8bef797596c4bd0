package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries process-level settings for the accounting core.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	Scheduler   SchedulerConfig
	Tracing     TracingConfig
}

// SchedulerConfig controls the recurring-transaction worker loop.
type SchedulerConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
}

// TracingConfig controls OTLP span export.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment, with an optional
// config file pointed at by SHOPBOOKS_CONFIG.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHOPBOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_url", "postgres://localhost:5432/shopbooks?sslmode=disable")
	v.SetDefault("log_level", "info")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.poll_interval", "1m")
	v.SetDefault("scheduler.batch_size", 100)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter_protocol", "grpc")
	v.SetDefault("tracing.sampling_ratio", 0.1)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Environment: v.GetString("environment"),
		HTTPAddr:    v.GetString("http_addr"),
		DatabaseURL: v.GetString("database_url"),
		LogLevel:    v.GetString("log_level"),
		Scheduler: SchedulerConfig{
			Enabled:      v.GetBool("scheduler.enabled"),
			PollInterval: v.GetDuration("scheduler.poll_interval"),
			BatchSize:    v.GetInt("scheduler.batch_size"),
		},
		Tracing: TracingConfig{
			Enabled:          v.GetBool("tracing.enabled"),
			ExporterEndpoint: v.GetString("tracing.exporter_endpoint"),
			ExporterProtocol: v.GetString("tracing.exporter_protocol"),
			SamplingRatio:    v.GetFloat64("tracing.sampling_ratio"),
		},
	}
	return cfg, nil
}
