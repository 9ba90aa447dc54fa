package tokens

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// single versioned key holding the serialized auth state
	StorageKey = "afewwords:persist:root:v1"

	storageVersion = 1
)

var (
	ErrNotHydrated = errors.New("token store not hydrated")
)

// bundle of OAuth/OIDC credentials
type TokenSet struct {
	AccessToken  string `json:"access_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // unix seconds
}

// reports whether no field is set
func (t TokenSet) IsZero() bool {
	return t == TokenSet{}
}

// reports whether an access token is present
func (t TokenSet) SignedIn() bool {
	return t.AccessToken != ""
}

// the on-disk / on-wire layout stored under StorageKey
type persistedState struct {
	Version int      `json:"version"`
	Auth    TokenSet `json:"auth"`
}

// claims read from access and id tokens
type Claims struct {
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// holds the tokens for one process context and keeps them persisted
type Store struct {
	// guards tokens and listeners
	mu sync.RWMutex

	// serializes writes so persisted order matches local order
	writeMu sync.Mutex

	tokens    TokenSet
	persister Persister

	// closed once hydration finished (the loading gate)
	ready     chan struct{}
	readyOnce sync.Once

	listeners map[int]func(TokenSet)
	nextID    int

	now func() time.Time
}
