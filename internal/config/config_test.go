package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("RequestTimeoutSeconds = %d, want default 30", cfg.RequestTimeoutSeconds)
	}
	if cfg.HistoryPath == "" || cfg.LogPath == "" {
		t.Error("history and log paths must default to the config dir")
	}
}

func TestLoadReadsAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "default_host: pve.example.com:8006\ndefault_node: pve1\ntoken_id: root@pam!console\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultHost != "pve.example.com:8006" || cfg.DefaultNode != "pve1" {
		t.Errorf("unexpected host/node: %+v", cfg)
	}
	if cfg.TokenID != "root@pam!console" {
		t.Errorf("TokenID = %q", cfg.TokenID)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("unset timeout should fall back to default, got %d", cfg.RequestTimeoutSeconds)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaults()
	cfg.DefaultHost = "pve.example.com:8006"
	cfg.DefaultNode = "pve1"
	cfg.LogJSON = true
	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DefaultHost != cfg.DefaultHost || loaded.DefaultNode != cfg.DefaultNode {
		t.Errorf("host/node did not survive the round trip: %+v", loaded)
	}
	if !loaded.LogJSON {
		t.Error("log_json flag lost on save")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectError bool
		errorString string
	}{
		{
			name:        "valid config passes",
			modifyFunc:  func(c *Config) {},
			expectError: false,
		},
		{
			name: "negative timeout fails",
			modifyFunc: func(c *Config) {
				c.RequestTimeoutSeconds = -1
			},
			expectError: true,
			errorString: "request_timeout_seconds must be non-negative",
		},
		{
			name: "timeout > 600 fails",
			modifyFunc: func(c *Config) {
				c.RequestTimeoutSeconds = 9999
			},
			expectError: true,
			errorString: "request_timeout_seconds cannot exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.modifyFunc(&cfg)

			err := cfg.validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("error %q does not contain %q", err, tt.errorString)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	cfg := Config{RequestTimeoutSeconds: 45}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("RequestTimeout = %v, want 45s", got)
	}
}
