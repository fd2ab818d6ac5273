package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/synapse-data/product.intel/internal/units"
)

// TuningConfig represents the optional service tuning parameters loaded at
// startup. All fields are pointers so a partial JSON file only overrides what
// it names; the Get* methods supply defaults for the rest.
type TuningConfig struct {
	// Pipeline params
	CapabilityTimeout *string `json:"capability_timeout,omitempty"` // duration string like "10s"
	SampleIDCount     *int    `json:"sample_id_count,omitempty"`

	// Workflow params
	AgentTimeout *string `json:"agent_timeout,omitempty"` // duration string like "30s"

	// Auth params
	TokenExpiry *string `json:"token_expiry,omitempty"` // duration string like "60m"

	// Display params
	Currency           *string `json:"currency,omitempty"`
	ReportProductLimit *int    `json:"report_product_limit,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their defaults, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*string{
		"capability_timeout": c.CapabilityTimeout,
		"agent_timeout":      c.AgentTimeout,
		"token_expiry":       c.TokenExpiry,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	if c.Currency != nil && !units.IsValid(*c.Currency) {
		return fmt.Errorf("invalid currency '%s' (valid: %s)", *c.Currency, units.GetValidCurrenciesString())
	}

	if c.SampleIDCount != nil && *c.SampleIDCount < 1 {
		return fmt.Errorf("sample_id_count must be positive, got %d", *c.SampleIDCount)
	}
	if c.ReportProductLimit != nil && *c.ReportProductLimit < 1 {
		return fmt.Errorf("report_product_limit must be positive, got %d", *c.ReportProductLimit)
	}

	return nil
}

func (c *TuningConfig) duration(v *string, fallback time.Duration) time.Duration {
	if v == nil || *v == "" {
		return fallback
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fallback
	}
	return d
}

// GetCapabilityTimeout parses and returns the per-prediction timeout.
func (c *TuningConfig) GetCapabilityTimeout() time.Duration {
	return c.duration(c.CapabilityTimeout, 10*time.Second)
}

// GetAgentTimeout parses and returns the remote agent invocation timeout.
func (c *TuningConfig) GetAgentTimeout() time.Duration {
	return c.duration(c.AgentTimeout, 30*time.Second)
}

// GetTokenExpiry parses and returns the access token lifetime.
func (c *TuningConfig) GetTokenExpiry() time.Duration {
	return c.duration(c.TokenExpiry, time.Hour)
}

// GetCurrency returns the display currency or the default.
func (c *TuningConfig) GetCurrency() string {
	if c.Currency == nil || *c.Currency == "" {
		return units.USD
	}
	return *c.Currency
}

// GetSampleIDCount returns how many known product IDs a not-found error lists.
func (c *TuningConfig) GetSampleIDCount() int {
	if c.SampleIDCount == nil {
		return 10
	}
	return *c.SampleIDCount
}

// GetReportProductLimit returns the max products plotted on the dashboard.
func (c *TuningConfig) GetReportProductLimit() int {
	if c.ReportProductLimit == nil {
		return 500
	}
	return *c.ReportProductLimit
}
