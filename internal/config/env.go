package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRelayAddr       = "127.0.0.1:8732"
	defaultRefreshInterval = 30 * time.Minute
	defaultFailurePolicy   = "log"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - a .env file is optional
	}

	required := map[string]string{
		"OIDC_HOST":         os.Getenv("OIDC_HOST"),
		"OIDC_CLIENT_ID":    os.Getenv("OIDC_CLIENT_ID"),
		"OIDC_REDIRECT_URI": os.Getenv("OIDC_REDIRECT_URI"),
		"API_HOST":          os.Getenv("API_HOST"),
		"WEBSITE_LOGIN_URL": os.Getenv("WEBSITE_LOGIN_URL"),
	}

	for _, name := range []string{"OIDC_HOST", "OIDC_CLIENT_ID", "OIDC_REDIRECT_URI", "API_HOST", "WEBSITE_LOGIN_URL"} {
		if required[name] == "" {
			return nil, fmt.Errorf("%s environment variable is required", name)
		}
	}

	cfg := &Config{
		OIDCHost:        required["OIDC_HOST"],
		OIDCClientID:    required["OIDC_CLIENT_ID"],
		OIDCRedirectURI: required["OIDC_REDIRECT_URI"],
		APIHost:         required["API_HOST"],
		WebsiteLoginURL: required["WEBSITE_LOGIN_URL"],
		WebsiteOrigin:   os.Getenv("WEBSITE_ORIGIN"),
		PrivacyURL:      os.Getenv("PRIVACY_URL"),
		TermsURL:        os.Getenv("TERMS_URL"),
		RelayAddr:       os.Getenv("RELAY_ADDR"),
		RedisURL:        os.Getenv("REDIS_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		NATSURL:         os.Getenv("NATS_URL"),
		StateDir:        os.Getenv("STATE_DIR"),
		FailurePolicy:   os.Getenv("FAILURE_POLICY"),
		Environment:     os.Getenv("ENVIRONMENT"),
		RefreshInterval: defaultRefreshInterval,
	}

	if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
		}

		if interval <= 0 {
			return nil, fmt.Errorf("REFRESH_INTERVAL must be positive")
		}

		cfg.RefreshInterval = interval
	}

	if cfg.RelayAddr == "" {
		cfg.RelayAddr = defaultRelayAddr
	}

	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = defaultFailurePolicy
	}

	if cfg.FailurePolicy != "log" && cfg.FailurePolicy != "report" {
		return nil, fmt.Errorf("FAILURE_POLICY must be \"log\" or \"report\", got %q", cfg.FailurePolicy)
	}

	if cfg.StateDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state dir: %w", err)
		}

		cfg.StateDir = filepath.Join(dir, "afewwords")
	}

	website, err := url.Parse(cfg.WebsiteLoginURL)
	if err != nil || website.Scheme == "" || website.Host == "" {
		return nil, fmt.Errorf("WEBSITE_LOGIN_URL must be an absolute URL, got %q", cfg.WebsiteLoginURL)
	}

	if cfg.PrivacyURL == "" {
		cfg.PrivacyURL = website.Scheme + "://" + website.Host + "/privacy-policy.html"
	}

	if cfg.TermsURL == "" {
		cfg.TermsURL = website.Scheme + "://" + website.Host + "/terms-and-conditions.html"
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	return cfg, nil
}

// returns the websocket URL of the relay for a given context
func (c *Config) RelayURL(context string) string {
	return fmt.Sprintf("ws://%s/api/v1/ws?context=%s", c.RelayAddr, context)
}
