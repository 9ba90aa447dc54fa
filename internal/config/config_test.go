package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("OIDC_HOST", "https://id.afewwords.example")
	t.Setenv("OIDC_CLIENT_ID", "companion")
	t.Setenv("OIDC_REDIRECT_URI", "http://127.0.0.1:8765/callback")
	t.Setenv("API_HOST", "https://api.afewwords.example")
	t.Setenv("WEBSITE_LOGIN_URL", "https://afewwords.example/login")

	for _, name := range []string{
		"WEBSITE_ORIGIN", "RELAY_ADDR", "REDIS_URL", "DATABASE_URL", "NATS_URL",
		"REFRESH_INTERVAL", "FAILURE_POLICY", "ENVIRONMENT", "PRIVACY_URL", "TERMS_URL",
	} {
		t.Setenv(name, "")
	}

	t.Setenv("STATE_DIR", t.TempDir())
}

func TestLoadEnvironmentVariables_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "companion", cfg.OIDCClientID)
	assert.Equal(t, defaultRelayAddr, cfg.RelayAddr)
	assert.Equal(t, defaultRefreshInterval, cfg.RefreshInterval)
	assert.Equal(t, "log", cfg.FailurePolicy)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "https://afewwords.example/privacy-policy.html", cfg.PrivacyURL)
	assert.Equal(t, "https://afewwords.example/terms-and-conditions.html", cfg.TermsURL)
	assert.NotEmpty(t, cfg.StateDir)
}

func TestLoadEnvironmentVariables_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RELAY_ADDR", "127.0.0.1:9000")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("FAILURE_POLICY", "report")
	t.Setenv("TERMS_URL", "https://example.com/terms")

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "report", cfg.FailurePolicy)
	assert.Equal(t, "https://example.com/terms", cfg.TermsURL)
	assert.Equal(t, "ws://127.0.0.1:9000/api/v1/ws?context=panel", cfg.RelayURL("panel"))
}

func TestLoadEnvironmentVariables_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing api host", key: "API_HOST", value: ""},
		{name: "missing client id", key: "OIDC_CLIENT_ID", value: ""},
		{name: "bad interval", key: "REFRESH_INTERVAL", value: "soon"},
		{name: "negative interval", key: "REFRESH_INTERVAL", value: "-1m"},
		{name: "unknown policy", key: "FAILURE_POLICY", value: "shout"},
		{name: "relative login url", key: "WEBSITE_LOGIN_URL", value: "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadEnvironmentVariables()
			assert.Error(t, err)
		})
	}
}

func TestParseSaveFlags(t *testing.T) {
	flags, err := ParseSaveFlags([]string{"--url", "https://example.com/a", "--text", "hola", "--translate=false"})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/a", flags.URL)
	assert.Equal(t, "hola", flags.Text)
	assert.False(t, flags.Translate)

	_, err = ParseSaveFlags([]string{"--text", "hola"})
	assert.Error(t, err)
}

func TestParseSaveFlags_RejectsNonHTTPURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "example.com/article"},
		{"relative path", "/article"},
		{"file scheme", "file:///etc/hosts"},
		{"missing host", "https://"},
		{"unparseable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSaveFlags([]string{"--url", tt.url, "--text", "hola"})
			assert.Error(t, err)
		})
	}
}

func TestParseBackgroundFlags(t *testing.T) {
	flags, err := ParseBackgroundFlags([]string{"--addr", ":9999"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", flags.Addr)
}
