package frontier

import (
	"fmt"
	"os"

	"github.com/gmelchiori/frontier/date"
	"gopkg.in/yaml.v3"
)

// DefaultBenchmark is the symbol studies are compared against unless the
// configuration says otherwise.
const DefaultBenchmark = "VWCE.DE"

// Config holds every knob of a study. It is read from a YAML file and saved
// verbatim next to the study results.
type Config struct {
	// Assets to study. The run command fills this from its ticker argument;
	// a config file may add names and ISINs to help symbol resolution.
	Assets []Asset `yaml:"assets" json:"assets"`

	Lookback   date.Lookback `yaml:"lookback" json:"lookback"`
	LogReturns bool          `yaml:"log_returns" json:"log_returns"`
	RiskFree   float64       `yaml:"risk_free" json:"risk_free"`
	Shrinkage  float64       `yaml:"shrinkage" json:"shrinkage"`

	AllowShort     bool      `yaml:"allow_short" json:"allow_short"`
	Bounds         bool      `yaml:"bounds" json:"bounds"`
	MinWeight      float64   `yaml:"min_weight" json:"min_weight"`
	MaxWeight      float64   `yaml:"max_weight" json:"max_weight"`
	TurnoverLambda float64   `yaml:"turnover_lambda" json:"turnover_lambda"`
	PrevWeights    []float64 `yaml:"prev_weights,omitempty" json:"prev_weights,omitempty"`

	Simulations int    `yaml:"simulations" json:"simulations"`
	Seed        uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// DrawdownLimit is the worst historical drawdown a sampled portfolio may
	// have, as a negative fraction (e.g. -0.25). Zero disables the filter.
	DrawdownLimit float64 `yaml:"drawdown_limit,omitempty" json:"drawdown_limit,omitempty"`

	// Benchmark symbol; empty disables the comparison.
	Benchmark string `yaml:"benchmark" json:"benchmark"`

	// Currency biases symbol resolution toward listings quoted in it.
	Currency string `yaml:"currency,omitempty" json:"currency,omitempty"`

	// Resolve controls whether user symbols are resolved against the
	// provider's search endpoint before downloading.
	Resolve bool `yaml:"resolve" json:"resolve"`
}

// DefaultConfig returns the configuration a study runs with when no config
// file is given.
func DefaultConfig() Config {
	return Config{
		Lookback:    date.Year5,
		RiskFree:    0.02,
		Shrinkage:   0.1,
		MinWeight:   0.03,
		MaxWeight:   0.25,
		Simulations: 20000,
		Benchmark:   DefaultBenchmark,
		Resolve:     true,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Check validates the configuration before a run.
func (c Config) Check() error {
	if c.Shrinkage < 0 || c.Shrinkage > 1 {
		return fmt.Errorf("shrinkage must be in [0,1], got %g", c.Shrinkage)
	}
	if c.Simulations < 0 {
		return fmt.Errorf("simulations must not be negative, got %d", c.Simulations)
	}
	if c.DrawdownLimit > 0 {
		return fmt.Errorf("drawdown_limit must be negative (a loss), got %g", c.DrawdownLimit)
	}
	if c.TurnoverLambda < 0 {
		return fmt.Errorf("turnover_lambda must not be negative, got %g", c.TurnoverLambda)
	}
	if len(c.Assets) > 0 {
		// Re-checked at run time against the tickers that survive alignment.
		return c.Constraints().Validate(len(c.Assets))
	}
	return nil
}

// Constraints derives the optimizer constraint set from the configuration.
func (c Config) Constraints() Constraints {
	return Constraints{
		AllowShort:     c.AllowShort,
		Bounds:         c.Bounds,
		MinWeight:      c.MinWeight,
		MaxWeight:      c.MaxWeight,
		TurnoverLambda: c.TurnoverLambda,
		Prev:           c.PrevWeights,
	}
}
