package stockauth

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.AuthPath != DefaultAuthPath {
		t.Errorf("AuthPath = %q, want %q", cfg.AuthPath, DefaultAuthPath)
	}
	if cfg.StubAddr != ":8780" {
		t.Errorf("StubAddr = %q, want :8780", cfg.StubAddr)
	}
	if got := cfg.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", got)
	}
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("STOCKAUTH_BASE_URL", "https://stock.example.com")
	t.Setenv("STOCKAUTH_TIMEOUT", "5s")
	t.Setenv("STOCKAUTH_INSECURE_TLS", "true")
	t.Setenv("STOCKAUTH_KEYRING_PATH", "/tmp/kr.enc")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BaseURL != "https://stock.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if got := cfg.Timeout(); got != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", got)
	}
	if !cfg.InsecureTLS {
		t.Error("InsecureTLS = false")
	}
	if cfg.KeyringPath != "/tmp/kr.enc" {
		t.Errorf("KeyringPath = %q", cfg.KeyringPath)
	}
}

func TestConfig_TimeoutFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "valid", raw: "90s", want: 90 * time.Second},
		{name: "unset", raw: "", want: DefaultTimeout},
		{name: "garbage", raw: "soon", want: DefaultTimeout},
		{name: "negative", raw: "-5s", want: DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RequestTimeout: tt.raw}
			if got := cfg.Timeout(); got != tt.want {
				t.Errorf("Timeout() = %v, want %v", got, tt.want)
			}
		})
	}
}
