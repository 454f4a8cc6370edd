// Package config loads and validates the classification service's YAML
// configuration, in the load-then-Validate idiom: a root struct with
// nested sections, each bearing its own Validate method.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scale mirrors unit.Scale's string values without importing internal/unit,
// keeping config free of a dependency on the parsing package.
type Scale string

// TimeScale mirrors unit.TimeScale's string values.
type TimeScale string

// TieBreaker is a named resolution strategy for auto-target ties.
type TieBreaker string

const (
	TieBreakerPreferTargetCurrency TieBreaker = "prefer-targetCurrency"
	TieBreakerPreferBase           TieBreaker = "prefer-base"
	TieBreakerPreferMillions       TieBreaker = "prefer-millions"
	TieBreakerPreferMonth          TieBreaker = "prefer-month"
)

// Dimension is one of the three axes auto-targeting can select.
type Dimension string

const (
	DimensionCurrency  Dimension = "currency"
	DimensionMagnitude Dimension = "magnitude"
	DimensionTime      Dimension = "time"
)

// TieBreakers holds the per-dimension tie-break policy. Currency takes a
// named strategy ("prefer-targetCurrency"|"prefer-base"), with
// CurrencyPreferenceList consulted in order before the target currency.
// Magnitude and Time take their named strategy ("prefer-millions",
// "prefer-month") or a single label that is used when it is among the
// tied labels; they accept no ordered list.
type TieBreakers struct {
	Currency  string   `yaml:"currency"`
	Magnitude string   `yaml:"magnitude"`
	Time      string   `yaml:"time"`
	CurrencyPreferenceList  []string `yaml:"currencyPreferenceList,omitempty"`
}

// Exemptions configures which indicators bypass domain routing entirely
// before any domain-specific normalization runs.
type Exemptions struct {
	IndicatorIDs    []string `yaml:"indicatorIds,omitempty"`
	CategoryGroups  []string `yaml:"categoryGroups,omitempty"`
	IndicatorNames  []string `yaml:"indicatorNames,omitempty"` // substring, case-insensitive
}

// UnitOverride lets an operator pin a specific indicator's unit/scale
// interpretation, bypassing the unit parser for that indicator.
type UnitOverride struct {
	IndicatorIDs   []string `yaml:"indicatorIds,omitempty"`
	IndicatorNames []string `yaml:"indicatorNames,omitempty"`
	OverrideUnit   string   `yaml:"overrideUnit"`
	OverrideScale  *string  `yaml:"overrideScale,omitempty"`
	Reason         string   `yaml:"reason"`
}

// SpecialHandling groups operator overrides that sidestep normal routing.
type SpecialHandling struct {
	UnitOverrides []UnitOverride `yaml:"unitOverrides,omitempty"`
}

// NEOptions is the normalization engine's enumerated configuration
// surface.
type NEOptions struct {
	TargetCurrency         string          `yaml:"targetCurrency"`
	TargetMagnitude        Scale           `yaml:"targetMagnitude"`
	TargetTimeScale        TimeScale       `yaml:"targetTimeScale"`
	AutoTargetByIndicator  bool            `yaml:"autoTargetByIndicator"`
	AutoTargetDimensions   []Dimension     `yaml:"autoTargetDimensions,omitempty"`
	IndicatorKey           string          `yaml:"indicatorKey"`
	MinMajorityShare       float64         `yaml:"minMajorityShare"`
	TieBreakers            TieBreakers     `yaml:"tieBreakers"`
	MinQualityScore        float64         `yaml:"minQualityScore"`
	ExcludeIndexValues     bool            `yaml:"excludeIndexValues"`
	Explain                bool            `yaml:"explain"`
	UseLiveFX              bool            `yaml:"useLiveFX"`
	FXFallbackPath         string          `yaml:"fxFallbackPath,omitempty"`
	Exemptions             Exemptions      `yaml:"exemptions"`
	SpecialHandling        SpecialHandling `yaml:"specialHandling"`
}

// DefaultNEOptions returns the documented defaults: minMajorityShare=0.5,
// minQualityScore=70, excludeIndexValues=true, indicatorKey="name".
func DefaultNEOptions() NEOptions {
	return NEOptions{
		TargetMagnitude:    Scale("millions"),
		TargetTimeScale:    TimeScale("month"),
		IndicatorKey:       "name",
		MinMajorityShare:   0.5,
		MinQualityScore:    70,
		ExcludeIndexValues: true,
		TieBreakers: TieBreakers{
			Currency:  string(TieBreakerPreferTargetCurrency),
			Magnitude: string(TieBreakerPreferMillions),
			Time:      string(TieBreakerPreferMonth),
		},
	}
}

// Validate checks the NEOptions for internal consistency.
func (o *NEOptions) Validate() error {
	if o.MinMajorityShare < 0 || o.MinMajorityShare > 1 {
		return fmt.Errorf("minMajorityShare must be between 0 and 1, got %f", o.MinMajorityShare)
	}
	if o.MinQualityScore < 0 || o.MinQualityScore > 100 {
		return fmt.Errorf("minQualityScore must be between 0 and 100, got %f", o.MinQualityScore)
	}
	if o.IndicatorKey == "" {
		return fmt.Errorf("indicatorKey cannot be empty")
	}
	if o.AutoTargetByIndicator && len(o.AutoTargetDimensions) == 0 {
		return fmt.Errorf("autoTargetByIndicator requires at least one autoTargetDimension")
	}
	return nil
}

// EndpointConfig describes one of the Dispatcher's N backend endpoints.
type EndpointConfig struct {
	Name      string        `yaml:"name"`
	BaseURL   string        `yaml:"base_url"`
	TimeoutMS int           `yaml:"timeout_ms"`
	Circuit   CircuitConfig `yaml:"circuit"`
}

// CircuitConfig configures the per-endpoint circuit breaker (wraps
// sony/gobreaker; see internal/dispatcher/circuit/circuit.go).
type CircuitConfig struct {
	FailureThreshold uint32 `yaml:"failure_threshold"`
	TimeoutMS        int    `yaml:"timeout_ms"`
	HalfOpenMaxCalls  uint32 `yaml:"half_open_max_calls"`
}

// RateLimiterConfig configures the batch-release scheduler and its
// per-endpoint daily budget.
type RateLimiterConfig struct {
	TargetRPM                 int     `yaml:"target_rpm"`
	EstimatedRequestsPerIndicator int `yaml:"estimated_requests_per_indicator"`
	MinDelayMS                int     `yaml:"min_delay_ms"`
	CooldownSecs              int     `yaml:"cooldown_secs"`
	DailyBudget                int    `yaml:"daily_budget"`
}

// Validate ensures the rate limiter config is usable.
func (r *RateLimiterConfig) Validate() error {
	if r.TargetRPM <= 0 {
		return fmt.Errorf("target_rpm must be positive, got %d", r.TargetRPM)
	}
	if r.EstimatedRequestsPerIndicator <= 0 {
		return fmt.Errorf("estimated_requests_per_indicator must be positive, got %d", r.EstimatedRequestsPerIndicator)
	}
	if r.CooldownSecs <= 0 {
		r.CooldownSecs = 60
	}
	return nil
}

// ServiceConfig is the root configuration document, combining the
// normalization engine options with the dispatcher endpoints and rate
// limiter configuration.
type ServiceConfig struct {
	Normalize               NEOptions         `yaml:"normalize"`
	Endpoints               []EndpointConfig  `yaml:"endpoints"`
	RateLimiter             RateLimiterConfig `yaml:"rate_limiter"`
	MaxConcurrentIndicators int               `yaml:"max_concurrent_indicators"`
	Server                  ServerConfig      `yaml:"server"`
	Database                DatabaseConfig    `yaml:"database"`
}

// ServerConfig configures the classifierd HTTP listener and its
// background cron cadences.
type ServerConfig struct {
	ListenAddr         string `yaml:"listen_addr"`
	MaxBatchSize       int    `yaml:"max_batch_size"`
	FXRefreshCron      string `yaml:"fx_refresh_cron"`
	SweepCron          string `yaml:"sweep_cron"`
	SweepLimit         int    `yaml:"sweep_limit"`
}

// DefaultServerConfig returns the documented defaults: listen on
// :8080, cap batch submissions at 100 indicators, refresh FX hourly,
// and sweep stage_failed markers every 15 minutes.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:    ":8080",
		MaxBatchSize:  100,
		FXRefreshCron: "@hourly",
		SweepCron:     "@every 15m",
		SweepLimit:    50,
	}
}

// DatabaseConfig configures the Postgres connection backing persistence.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	QueryTimeoutMS int    `yaml:"query_timeout_ms"`
}

// Load reads and validates a ServiceConfig from a YAML file.
func Load(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service config: %w", err)
	}
	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse service config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the full configuration document for consistency.
func (c *ServiceConfig) Validate() error {
	if err := c.Normalize.Validate(); err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required")
	}
	for i, ep := range c.Endpoints {
		if strings.TrimSpace(ep.BaseURL) == "" {
			return fmt.Errorf("endpoints[%d]: base_url cannot be empty", i)
		}
		if ep.TimeoutMS <= 0 {
			return fmt.Errorf("endpoints[%d]: timeout_ms must be positive", i)
		}
	}
	if err := c.RateLimiter.Validate(); err != nil {
		return fmt.Errorf("rate_limiter: %w", err)
	}
	if c.MaxConcurrentIndicators <= 0 {
		c.MaxConcurrentIndicators = 4
	}
	defaults := DefaultServerConfig()
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.ListenAddr
	}
	if c.Server.MaxBatchSize <= 0 {
		c.Server.MaxBatchSize = defaults.MaxBatchSize
	}
	if c.Server.FXRefreshCron == "" {
		c.Server.FXRefreshCron = defaults.FXRefreshCron
	}
	if c.Server.SweepCron == "" {
		c.Server.SweepCron = defaults.SweepCron
	}
	if c.Server.SweepLimit <= 0 {
		c.Server.SweepLimit = defaults.SweepLimit
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn cannot be empty")
	}
	if c.Database.QueryTimeoutMS <= 0 {
		c.Database.QueryTimeoutMS = 5000
	}
	return nil
}
