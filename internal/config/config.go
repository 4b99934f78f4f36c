// Package config provides the YAML-backed driver and field configuration:
// the eight tunables that parameterise MetricField.ApplyMaxAspectRatio and
// AdaptDriver.Run.
package config

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Config holds the adaptation driver's tunables.
type Config struct {
	LUp   float64 `yaml:"l_up"`
	LLow  float64 `yaml:"l_low"`
	QStar float64 `yaml:"q_star"`
	QSwap float64 `yaml:"q_swap"`
	IMax  int     `yaml:"i_max"`
	KMax  int     `yaml:"k_max"`
	EpsL  float64 `yaml:"eps_l"`
	RMax  float64 `yaml:"r_max"`
}

// Default returns the option values from the configuration table: L_up =
// sqrt(2), L_low = L_up/2, q* = 0.4, q_swap = 0.7, I_max = 5, K_max = 10,
// eps_L = 0.01, R_max = 10.
func Default() Config {
	lUp := math.Sqrt2
	return Config{
		LUp:   lUp,
		LLow:  lUp / 2,
		QStar: 0.4,
		QSwap: 0.7,
		IMax:  5,
		KMax:  10,
		EpsL:  0.01,
		RMax:  10,
	}
}

// Validate checks the band and iteration-cap constraints every Config must
// satisfy before it can drive an adapt cycle.
func (c Config) Validate() error {
	if c.LLow <= 0 || c.LUp <= 0 {
		return fmt.Errorf("config: l_low and l_up must be positive, got %v, %v", c.LLow, c.LUp)
	}
	if c.LLow >= c.LUp {
		return fmt.Errorf("config: l_low (%v) must be less than l_up (%v)", c.LLow, c.LUp)
	}
	if c.QStar <= 0 || c.QStar > 1 {
		return fmt.Errorf("config: q_star must be in (0,1], got %v", c.QStar)
	}
	if c.QSwap <= 0 || c.QSwap > 1 {
		return fmt.Errorf("config: q_swap must be in (0,1], got %v", c.QSwap)
	}
	if c.IMax <= 0 {
		return fmt.Errorf("config: i_max must be > 0, got %v", c.IMax)
	}
	if c.KMax <= 0 {
		return fmt.Errorf("config: k_max must be > 0, got %v", c.KMax)
	}
	if c.EpsL <= 0 {
		return fmt.Errorf("config: eps_l must be > 0, got %v", c.EpsL)
	}
	if c.RMax < 1 {
		return fmt.Errorf("config: r_max must be >= 1, got %v", c.RMax)
	}
	return nil
}

// Load parses a YAML document into a Config, starting from Default() so
// that a partial document only overrides the fields it names.
func Load(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Marshal renders c back to YAML, for writing out an effective config.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
