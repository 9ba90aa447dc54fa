package config

import "time"

type Config struct {
	// identity provider base URL, hosts /oauth2/authorize, /oauth2/token and /signup
	OIDCHost string

	OIDCClientID string

	// loopback redirect registered for this client, e.g. http://127.0.0.1:8765/callback
	OIDCRedirectURI string

	// backend REST API base URL
	APIHost string

	WebsiteLoginURL string
	WebsiteOrigin   string

	// legal pages opened from the welcome screen; default to the website host
	PrivacyURL string
	TermsURL   string

	// listen address of the background relay; the panel and save commands dial it
	RelayAddr string

	// optional durable storage backends, first configured wins (redis, postgres, file)
	RedisURL    string
	DatabaseURL string
	StateDir    string

	// optional NATS server for bridging bus traffic between background hosts
	NATSURL string

	RefreshInterval time.Duration
	FailurePolicy   string
	Environment     string
}

// per-subcommand flags
type Flags struct {
	// save
	URL       string
	Text      string
	Translate bool

	// panel
	LogFile string

	// background
	Addr string
}
