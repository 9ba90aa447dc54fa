package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"codeberg.org/afewwords/companion/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	// words per page, also the hasMore threshold
	PageSize = 50

	defaultRequestTimeout = 15 * time.Second

	// client-side ceiling on outbound calls
	defaultRateLimit = 5
	defaultRateBurst = 10
)

// vocabulary entry as the backend stores it; timestamps are unix seconds
type WordEntry struct {
	ID         int64  `json:"id,omitempty"`
	Word       string `json:"word" validate:"required,min=1,max=100,wordlike"`
	Definition string `json:"definition,omitempty"`
	URL        string `json:"url,omitempty" validate:"omitempty,url"`
	Username   string `json:"username,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
	UpdatedAt  int64  `json:"updated_at,omitempty"`
}

type translateResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// reads the bearer token at call time
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// REST client for the words backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	recorder   metrics.Recorder

	mu             sync.RWMutex
	onUnauthorized func(ctx context.Context)
}

type Option func(*Client)

// how a failed call is surfaced to the user
type FailurePolicy string

const (
	// log only
	PolicyLog FailurePolicy = "log"

	// log and hand the error back so the panel can show it
	PolicyReport FailurePolicy = "report"
)
