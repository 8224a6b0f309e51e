// Package config parses and validates the flat analytics configuration
// schema, kept separate from the symbol universe and provider/cadence
// sections so secrets and endpoints never mix with model parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SigmaGridConfig describes the standardized z-grid bounds.
type SigmaGridConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// LiquidityConfig holds the LiquidityField outer group weights.
type LiquidityConfig struct {
	Weights struct {
		VWAP float64 `yaml:"vwap"`
		BB   float64 `yaml:"bb"`
	} `yaml:"weights"`
}

// ParticleConfig holds the ParticleMapper parameters.
type ParticleConfig struct {
	Epsilon     float64 `yaml:"epsilon"`
	ShockWeight float64 `yaml:"shock_weight"`
}

// DealerConfig holds the DealerFilter transition probabilities.
type DealerConfig struct {
	StayProb float64 `yaml:"stay_prob"`
	FlipProb float64 `yaml:"flip_prob"`
}

// HazardCoeffsConfig holds the HazardModel's shared coefficients.
type HazardCoeffsConfig struct {
	A       float64 `yaml:"A"`
	PL      float64 `yaml:"P_L"`
	Squeeze float64 `yaml:"squeeze"`
	Pool    float64 `yaml:"pool"`
}

// HazardConfig holds the HazardModel's regime-indexed intercepts and
// coefficients.
type HazardConfig struct {
	Intercepts [3]float64         `yaml:"intercepts"`
	Coeffs     HazardCoeffsConfig `yaml:"coeffs"`
}

// ForwardConfig holds the ForwardMap's tilt strength and truncation rule.
type ForwardConfig struct {
	BetaL         float64 `yaml:"beta_L"`
	MaxHorizon    int     `yaml:"max_horizon"`
	MassThreshold float64 `yaml:"mass_threshold"`
}

// Config is the flat analytics schema, immutable once loaded and shared
// by reference across every symbol processor. The symbol universe and
// provider/cadence settings live in their own structs (see Universe and
// Providers).
type Config struct {
	AlphaDecay int             `yaml:"alpha_decay"`
	SigmaGrid  SigmaGridConfig `yaml:"sigma_grid"`
	Liquidity  LiquidityConfig `yaml:"liquidity"`
	Particle   ParticleConfig  `yaml:"particle"`
	Dealer     DealerConfig    `yaml:"dealer"`
	Hazard     HazardConfig    `yaml:"hazard"`
	Forward    ForwardConfig   `yaml:"forward"`
}

// Default returns the documented defaults. Callers load a YAML file over
// this, so a minimal or empty config file is still valid.
func Default() Config {
	c := Config{
		AlphaDecay: 120,
		SigmaGrid:  SigmaGridConfig{Min: -4.0, Max: 4.0, Step: 0.25},
		Forward: ForwardConfig{
			MaxHorizon:    20,
			MassThreshold: 0.95,
		},
	}
	c.Liquidity.Weights.VWAP = 1.0
	c.Liquidity.Weights.BB = 1.0
	c.Particle.Epsilon = 0.05
	c.Dealer.StayProb = 0.95
	c.Dealer.FlipProb = 0.05
	return c
}

// Load reads and parses a YAML config file over the documented defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns every schema violation found; a non-empty result is
// fatal at startup, before the scheduler runs.
func (c Config) Validate() []string {
	var errs []string

	if c.AlphaDecay <= 0 {
		errs = append(errs, "alpha_decay must be positive")
	}
	if c.SigmaGrid.Step <= 0 {
		errs = append(errs, "sigma_grid.step must be positive")
	}
	if c.SigmaGrid.Max <= c.SigmaGrid.Min {
		errs = append(errs, "sigma_grid.max must exceed sigma_grid.min")
	}
	if c.Forward.MaxHorizon <= 0 {
		errs = append(errs, "forward.max_horizon must be positive")
	}
	if c.Forward.MassThreshold <= 0 || c.Forward.MassThreshold > 1 {
		errs = append(errs, "forward.mass_threshold must be in (0, 1]")
	}
	if c.Dealer.StayProb < 0 || c.Dealer.StayProb > 1 {
		errs = append(errs, "dealer.stay_prob must be in [0, 1]")
	}
	if c.Dealer.FlipProb < 0 || c.Dealer.FlipProb > 1 {
		errs = append(errs, "dealer.flip_prob must be in [0, 1]")
	}

	return errs
}
