package lockfence

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/lockfence/core"
)

// Config names one shared consumption budget and selects how it is
// enforced. It is immutable: created once per identifier and shared by
// every caller consuming from that budget.
type Config struct {
	// ID uniquely names the shared budget. It doubles as the lock name
	// and the counter store key, so every process using the same ID
	// consumes from the same budget.
	ID string

	// Policy selects the admission algorithm
	Policy core.Policy

	// Limit is the max units per window (sliding window) or the burst
	// capacity (token bucket)
	Limit int64

	// Interval is the window length (sliding window) or the period in
	// which Limit tokens refill (token bucket)
	Interval time.Duration
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.ID == "" {
		return ErrInvalidID
	}
	switch c.Policy {
	case core.PolicySlidingWindow, core.PolicyTokenBucket:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
	if c.Limit <= 0 {
		return ErrInvalidLimit
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// PerSecond allows limit admissions per second under a sliding window.
func PerSecond(id string, limit int64) Config {
	return Config{ID: id, Policy: core.PolicySlidingWindow, Limit: limit, Interval: time.Second}
}

// PerMinute allows limit admissions per minute under a sliding window.
func PerMinute(id string, limit int64) Config {
	return Config{ID: id, Policy: core.PolicySlidingWindow, Limit: limit, Interval: time.Minute}
}

// PerHour allows limit admissions per hour under a sliding window.
func PerHour(id string, limit int64) Config {
	return Config{ID: id, Policy: core.PolicySlidingWindow, Limit: limit, Interval: time.Hour}
}

// PerDay allows limit admissions per day under a sliding window.
func PerDay(id string, limit int64) Config {
	return Config{ID: id, Policy: core.PolicySlidingWindow, Limit: limit, Interval: 24 * time.Hour}
}

// Burst configures a token bucket holding up to limit tokens that
// refill at limit tokens per interval.
func Burst(id string, limit int64, interval time.Duration) Config {
	return Config{ID: id, Policy: core.PolicyTokenBucket, Limit: limit, Interval: interval}
}

// FileConfig holds limiter configuration loaded from a YAML file.
// It supports a global default policy and per-id overrides.
type FileConfig struct {
	// Defaults are applied to all limiter ids unless overridden
	Defaults PolicyConfig `yaml:"defaults"`

	// Limiters is a map of limiter ids to their specific policies
	// Example: "github-api" -> strict policy, "search" -> lenient policy
	Limiters map[string]PolicyConfig `yaml:"limiters,omitempty"`
}

// PolicyConfig defines admission parameters for one limiter id.
type PolicyConfig struct {
	// Policy is "sliding_window" or "token_bucket" (default: sliding_window)
	Policy string `yaml:"policy,omitempty"`

	// Limit is the max units per interval, or the burst capacity
	Limit int64 `yaml:"limit"`

	// Interval in time.ParseDuration format ("1s", "500ms", "1m")
	Interval string `yaml:"interval"`
}

// LoadConfigFromFile loads limiter configuration from a YAML file.
func LoadConfigFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	if config.Limiters == nil {
		config.Limiters = make(map[string]PolicyConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (f *FileConfig) Validate() error {
	if _, err := f.Defaults.toConfig("defaults"); err != nil {
		return fmt.Errorf("%w: invalid defaults: %v", ErrInvalidConfig, err)
	}
	for id, policy := range f.Limiters {
		if _, err := policy.toConfig(id); err != nil {
			return fmt.Errorf("%w: invalid policy for limiter %s: %v", ErrInvalidConfig, id, err)
		}
	}
	return nil
}

// ConfigFor returns the limiter configuration for a given id.
// If no specific policy exists for the id, the defaults apply.
func (f *FileConfig) ConfigFor(id string) (Config, error) {
	if policy, exists := f.Limiters[id]; exists {
		return policy.toConfig(id)
	}
	return f.Defaults.toConfig(id)
}

func (p PolicyConfig) toConfig(id string) (Config, error) {
	policy := core.Policy(p.Policy)
	if p.Policy == "" {
		policy = core.PolicySlidingWindow
	}

	interval, err := time.ParseDuration(p.Interval)
	if err != nil {
		return Config{}, fmt.Errorf("bad interval %q: %v", p.Interval, err)
	}

	config := Config{
		ID:       id,
		Policy:   policy,
		Limit:    p.Limit,
		Interval: interval,
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
