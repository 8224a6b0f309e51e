package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CadenceConfig governs how often the scheduler drives a tick-cycle and how
// long it waits on any single provider call before treating it as absent.
type CadenceConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"provider_timeout"`
}

// BreakerConfig configures the circuit breaker wrapping a provider
// capability.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	ErrorRateThreshold  float64       `yaml:"error_rate_threshold"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

// RateLimitConfig paces outbound provider calls alongside the breaker.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ProvidersConfig holds cadence and provider endpoint/credential
// settings. The analytics core never sees any of this.
type ProvidersConfig struct {
	Cadence     CadenceConfig   `yaml:"cadence"`
	Breaker     BreakerConfig   `yaml:"breaker"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Endpoint    string          `yaml:"endpoint"`
	APIKey      string          `yaml:"api_key"`
	UseDemoData bool            `yaml:"use_demo_data"`
}

// DefaultProviders returns sane defaults for demo-mode operation.
func DefaultProviders() ProvidersConfig {
	return ProvidersConfig{
		Cadence: CadenceConfig{
			Interval: 5 * time.Second,
			Timeout:  3 * time.Second,
		},
		Breaker: BreakerConfig{
			ConsecutiveFailures: 3,
			ErrorRateThreshold:  0.05,
			OpenTimeout:         60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		UseDemoData: true,
	}
}

// LoadProviders reads provider/cadence settings from their own YAML file,
// applying environment variable overrides for secrets.
func LoadProviders(path string) (ProvidersConfig, error) {
	cfg := DefaultProviders()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return ProvidersConfig{}, fmt.Errorf("failed to parse providers file %s: %w", path, err)
			}
		}
	}

	if endpoint := os.Getenv("MARKETFIELD_PROVIDER_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if key := os.Getenv("MARKETFIELD_PROVIDER_API_KEY"); key != "" {
		cfg.APIKey = key
	}

	return cfg, nil
}

// Validate reports schema violations that would make the scheduler
// unusable.
func (p ProvidersConfig) Validate() []string {
	var errs []string
	if p.Cadence.Interval <= 0 {
		errs = append(errs, "cadence.interval must be positive")
	}
	if p.Cadence.Timeout <= 0 {
		errs = append(errs, "cadence.provider_timeout must be positive")
	}
	if !p.UseDemoData && p.Endpoint == "" {
		errs = append(errs, "providers.endpoint is required when use_demo_data is false")
	}
	return errs
}
