package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Controller) { c.httpClient = httpClient }
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(c *Controller) { c.recorder = recorder }
}

// creates a controller for the identity provider in cfg
func NewController(cfg Config, store TokenStore, opener Opener, opts ...Option) *Controller {
	host := strings.TrimRight(cfg.Host, "/")

	c := &Controller{
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   host + authorizePath,
				TokenURL:  host + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.RedirectURI,
			Scopes:      scopes,
		},
		host:       host,
		store:      store,
		opener:     opener,
		httpClient: http.DefaultClient,
		recorder:   metrics.Nop{},
		listen:     net.Listen,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// sets the hook run when a refresh fails, typically session logout
func (c *Controller) OnLogout(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLogout = fn
}

// opens the authorization page and waits for the loopback redirect.
// on success the exchanged tokens are merged into the store; any failure
// returns ErrLoginAborted and leaves the store untouched.
func (c *Controller) StartInteractiveLogin(ctx context.Context) error {
	redirect, err := url.Parse(c.oauth.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: invalid redirect uri %q", ErrLoginAborted, c.oauth.RedirectURL)
	}

	listener, err := c.listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("%w: failed to listen for callback: %w", ErrLoginAborted, err)
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	server := &http.Server{
		Handler:           callbackRouter(callbackPath(redirect), state, results),
		ReadHeaderTimeout: callbackShutdownTimeout,
	}

	go server.Serve(listener) //nolint:errcheck,gosec // returns ErrServerClosed on shutdown

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck,gosec // best effort
	}()

	authURL := c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	logger.Info("starting interactive login", "redirect_uri", c.oauth.RedirectURL)

	if err := c.opener.Open(authURL); err != nil {
		return fmt.Errorf("%w: failed to open browser: %w", ErrLoginAborted, err)
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrLoginAborted, ctx.Err())
	}

	if result.err != nil {
		return result.err
	}

	token, err := c.oauth.Exchange(c.clientContext(ctx), result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("%w: code exchange failed: %w", ErrLoginAborted, err)
	}

	if err := c.store.SetTokens(ctx, tokenSetFrom(token)); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}

	logger.Info("interactive login completed")
	return nil
}

// exchanges the stored refresh token for new tokens. does nothing without
// a refresh token. any failure logs the session out and returns ErrRefreshFailed.
func (c *Controller) RefreshSilently(ctx context.Context) error {
	current, err := c.store.Tokens(ctx)
	if err != nil {
		return err
	}

	if current.RefreshToken == "" {
		c.recorder.RecordRefresh("skipped")
		return nil
	}

	source := c.oauth.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})

	token, err := source.Token()
	if err == nil {
		err = c.store.SetTokens(ctx, tokenSetFrom(token))
	}

	if err != nil {
		c.recorder.RecordRefresh("failed")
		c.logout(ctx)
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	c.recorder.RecordRefresh("ok")
	logger.Debug("tokens refreshed")

	return nil
}

// returns the signup page URL with the login parameters
func (c *Controller) SignupURL() string {
	query := url.Values{}
	query.Set("client_id", c.oauth.ClientID)
	query.Set("response_type", "code")
	query.Set("scope", strings.Join(c.oauth.Scopes, " "))
	query.Set("redirect_uri", c.oauth.RedirectURL)

	return c.host + signupPath + "?" + query.Encode()
}

func (c *Controller) logout(ctx context.Context) {
	c.mu.RLock()
	fn := c.onLogout
	c.mu.RUnlock()

	if fn != nil {
		fn(ctx)
	}
}

func (c *Controller) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// serves the redirect once; later hits only get the page
func callbackRouter(path, state string, results chan<- callbackResult) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(path, func(c *gin.Context) {
		result := parseCallback(c.Request.URL.Query(), state)

		select {
		case results <- result:
		default:
		}

		if result.err != nil {
			c.String(http.StatusBadRequest, "Sign in was not completed. You can close this window.")
			return
		}

		c.String(http.StatusOK, "Signed in to A few words. You can close this window.")
	})

	return router
}
