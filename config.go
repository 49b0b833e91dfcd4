package stockauth

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings the stockauth binaries read from the environment.
// The library itself is configured through New's options; Config only exists
// so cmd/stockctl and cmd/stockstub share one loading path.
type Config struct {
	// BaseURL is the TechStock API root (e.g. https://api.techstock.example.com).
	BaseURL string `mapstructure:"STOCKAUTH_BASE_URL"`
	// AuthPath is the auth controller mount path (default /api/Auth).
	AuthPath string `mapstructure:"STOCKAUTH_AUTH_PATH"`
	// RequestTimeout is the fixed per-request timeout (e.g. "30s").
	RequestTimeout string `mapstructure:"STOCKAUTH_TIMEOUT"`
	// InsecureTLS disables certificate verification for local emulator use.
	InsecureTLS bool `mapstructure:"STOCKAUTH_INSECURE_TLS"`
	// KeyringPath is the encrypted keyring location; empty picks the default
	// under the user config directory.
	KeyringPath string `mapstructure:"STOCKAUTH_KEYRING_PATH"`
	// KeyringPassphrase unlocks the keyring. Required by stockctl.
	KeyringPassphrase string `mapstructure:"STOCKAUTH_KEYRING_PASSPHRASE"`
	// StubAddr is the listen address for the stub server binary.
	StubAddr string `mapstructure:"STOCKAUTH_STUB_ADDR"`
}

// LoadConfig reads .env (if present), then builds Config from the environment
// via Viper. Env vars override .env; a missing .env is ignored.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("STOCKAUTH_BASE_URL", "")
	v.SetDefault("STOCKAUTH_AUTH_PATH", DefaultAuthPath)
	v.SetDefault("STOCKAUTH_TIMEOUT", "30s")
	v.SetDefault("STOCKAUTH_INSECURE_TLS", false)
	v.SetDefault("STOCKAUTH_KEYRING_PATH", "")
	v.SetDefault("STOCKAUTH_KEYRING_PASSPHRASE", "")
	v.SetDefault("STOCKAUTH_STUB_ADDR", ":8780")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.StubAddr == "" {
		return nil, errors.New("config: STOCKAUTH_STUB_ADDR must be set")
	}

	return &cfg, nil
}

// Timeout parses RequestTimeout as a time.Duration. Returns DefaultTimeout if
// unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// ClientOptions translates the config into options for New.
func (c *Config) ClientOptions() []Option {
	opts := []Option{WithTimeout(c.Timeout())}
	if c.AuthPath != "" {
		opts = append(opts, WithAuthPath(c.AuthPath))
	}
	if c.InsecureTLS {
		opts = append(opts, WithInsecureTLS())
	}
	return opts
}
