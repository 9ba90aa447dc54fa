package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"codeberg.org/afewwords/companion/internal/metrics"
	"codeberg.org/afewwords/companion/internal/tokens"
	"golang.org/x/oauth2"
)

var (
	// the interactive login did not produce tokens; the user may retry
	ErrLoginAborted = errors.New("login aborted")

	// the silent refresh failed and the session was logged out
	ErrRefreshFailed = errors.New("token refresh failed")
)

const (
	authorizePath = "/oauth2/authorize"
	tokenPath     = "/oauth2/token"
	signupPath    = "/signup"

	// how often the refresher renews the session
	DefaultRefreshInterval = 30 * time.Minute

	callbackShutdownTimeout = 2 * time.Second
)

var scopes = []string{"openid", "email", "profile"}

// identity provider settings
type Config struct {
	Host        string
	ClientID    string
	RedirectURI string
}

// token store as seen by the auth flows
type TokenStore interface {
	Tokens(ctx context.Context) (tokens.TokenSet, error)
	SetTokens(ctx context.Context, partial tokens.TokenSet) error
}

// opens a URL in the user's browser
type Opener interface {
	Open(url string) error
}

// runs the interactive login and the silent refresh
type Controller struct {
	oauth      *oauth2.Config
	host       string
	store      TokenStore
	opener     Opener
	httpClient *http.Client
	recorder   metrics.Recorder

	mu       sync.RWMutex
	onLogout func(ctx context.Context)

	// binds the loopback callback listener
	listen func(network, address string) (net.Listener, error)
}

type Option func(*Controller)

type callbackResult struct {
	code string
	err  error
}

// renews the session on a fixed cadence
type Refresher struct {
	refresh  func(ctx context.Context) error
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}
