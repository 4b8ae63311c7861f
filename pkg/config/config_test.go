package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PRICE_SOURCE", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}
	if cfg.Prices.Source != PriceSourceCSV {
		t.Errorf("Expected price source csv, got %s", cfg.Prices.Source)
	}
	if cfg.Optimizer.RiskFreeRate != 0.04 {
		t.Errorf("Expected risk free rate 0.04, got %v", cfg.Optimizer.RiskFreeRate)
	}
	if cfg.Optimizer.Tolerance != 1e-9 {
		t.Errorf("Expected tolerance 1e-9, got %v", cfg.Optimizer.Tolerance)
	}
	if cfg.Optimizer.MaxIterations != 1000 {
		t.Errorf("Expected max iterations 1000, got %d", cfg.Optimizer.MaxIterations)
	}
	if !cfg.Optimizer.ClipWeights {
		t.Error("Expected weight clipping to be on by default")
	}
	if cfg.Optimizer.AnnualizationPeriods != 252 {
		t.Errorf("Expected 252 annualization periods, got %v", cfg.Optimizer.AnnualizationPeriods)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("RISK_FREE_RATE", "0.03")
	t.Setenv("ALLOW_SHORT", "true")
	t.Setenv("CLIP_WEIGHTS", "false")
	t.Setenv("COVARIANCE_SOURCE", "capm")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}
	if cfg.Optimizer.RiskFreeRate != 0.03 {
		t.Errorf("Expected risk free rate 0.03, got %v", cfg.Optimizer.RiskFreeRate)
	}
	if !cfg.Optimizer.AllowShort || cfg.Optimizer.ClipWeights {
		t.Errorf("Expected short allowed and clipping off, got %+v", cfg.Optimizer)
	}
	if cfg.Optimizer.CovarianceSource != CovarianceCAPM {
		t.Errorf("Expected capm covariance, got %s", cfg.Optimizer.CovarianceSource)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"invalid env", map[string]string{"ENV": "qa"}, true},
		{"postgres without url", map[string]string{"PRICE_SOURCE": "postgres", "DATABASE_URL": ""}, true},
		{"postgres with url", map[string]string{"PRICE_SOURCE": "postgres", "DATABASE_URL": "postgresql://u:p@localhost:5432/db"}, false},
		{"unknown price source", map[string]string{"PRICE_SOURCE": "ftp"}, true},
		{"unknown covariance", map[string]string{"COVARIANCE_SOURCE": "shrinkage"}, true},
		{"negative tolerance", map[string]string{"SOLVER_TOLERANCE": "-1"}, true},
		{"zero iterations", map[string]string{"SOLVER_MAX_ITERATIONS": "0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_FLOAT", "not-a-number")
	if got := getEnvAsFloat("TEST_FLOAT", 1.5); got != 1.5 {
		t.Errorf("Expected fallback 1.5, got %v", got)
	}

	t.Setenv("TEST_DURATION", "bogus")
	if got := getEnvAsDuration("TEST_DURATION", "5m"); got.Minutes() != 5 {
		t.Errorf("Expected fallback 5m, got %v", got)
	}

	t.Setenv("TEST_BOOL", "yes")
	if got := getEnvAsBool("TEST_BOOL", true); !got {
		t.Error("Expected fallback true for unparsable bool")
	}
}
