package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got, want := cfg.GetCapabilityTimeout(), 10*time.Second; got != want {
		t.Errorf("GetCapabilityTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.GetAgentTimeout(), 30*time.Second; got != want {
		t.Errorf("GetAgentTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.GetTokenExpiry(), time.Hour; got != want {
		t.Errorf("GetTokenExpiry = %v, want %v", got, want)
	}
	if got, want := cfg.GetCurrency(), "usd"; got != want {
		t.Errorf("GetCurrency = %q, want %q", got, want)
	}
	if got, want := cfg.GetSampleIDCount(), 10; got != want {
		t.Errorf("GetSampleIDCount = %d, want %d", got, want)
	}
	if got, want := cfg.GetReportProductLimit(), 500; got != want {
		t.Errorf("GetReportProductLimit = %d, want %d", got, want)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{
		"capability_timeout": "2s",
		"agent_timeout": "15s",
		"token_expiry": "30m",
		"currency": "eur",
		"report_product_limit": 100
	}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	if got, want := cfg.GetCapabilityTimeout(), 2*time.Second; got != want {
		t.Errorf("GetCapabilityTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.GetAgentTimeout(), 15*time.Second; got != want {
		t.Errorf("GetAgentTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.GetTokenExpiry(), 30*time.Minute; got != want {
		t.Errorf("GetTokenExpiry = %v, want %v", got, want)
	}
	if got, want := cfg.GetCurrency(), "eur"; got != want {
		t.Errorf("GetCurrency = %q, want %q", got, want)
	}
	if got, want := cfg.GetReportProductLimit(), 100; got != want {
		t.Errorf("GetReportProductLimit = %d, want %d", got, want)
	}
	// Fields absent from the file keep their defaults.
	if got, want := cfg.GetSampleIDCount(), 10; got != want {
		t.Errorf("GetSampleIDCount = %d, want %d", got, want)
	}
}

func TestLoadTuningConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"bad extension", "tuning.yaml", `{}`},
		{"bad JSON", "tuning.json", `{currency: eur}`},
		{"bad duration", "tuning.json", `{"agent_timeout": "fast"}`},
		{"bad currency", "tuning.json", `{"currency": "doubloons"}`},
		{"negative limit", "tuning.json", `{"report_product_limit": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Error("LoadTuningConfig should have failed")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("LoadTuningConfig should have failed")
		}
	})
}
