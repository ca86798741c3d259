package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Poller.Interval != 30*time.Second {
		t.Errorf("expected 30s poll interval, got %v", cfg.Poller.Interval)
	}
	if cfg.Poller.Probability != 0.01 {
		t.Errorf("expected probability 0.01, got %v", cfg.Poller.Probability)
	}
	if cfg.Location.Timeout != 10*time.Second || cfg.Location.MaximumAge != 5*time.Minute || !cfg.Location.HighAccuracy {
		t.Errorf("unexpected location options: %+v", cfg.Location)
	}
	if cfg.UI.BannerTTL != 10*time.Second {
		t.Errorf("expected 10s banner ttl, got %v", cfg.UI.BannerTTL)
	}
	if cfg.Dispatch.SimulatedLatency != 2*time.Second {
		t.Errorf("expected 2s simulated latency, got %v", cfg.Dispatch.SimulatedLatency)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("ALERT_PROBABILITY", "0.5")
	t.Setenv("PLATFORM_MODE", "static")
	t.Setenv("NOTIFICATIONS_GRANTED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Poller.Interval != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Poller.Interval)
	}
	if cfg.Poller.Probability != 0.5 {
		t.Errorf("expected 0.5, got %v", cfg.Poller.Probability)
	}
	if cfg.Platform.Mode != "static" || !cfg.Platform.NotificationsGranted {
		t.Errorf("unexpected platform config: %+v", cfg.Platform)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "SERVER_PORT", "70000"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"log format", "LOG_FORMAT", "xml"},
		{"interval", "POLL_INTERVAL", "10ms"},
		{"probability", "ALERT_PROBABILITY", "1.5"},
		{"platform", "PLATFORM_MODE", "browser"},
		{"location failure", "STATIC_LOCATION_FAILURE", "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
