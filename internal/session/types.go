package session

import (
	"context"
	"sync"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/tokens"
	"codeberg.org/afewwords/companion/internal/words"
)

// sends a message to the other contexts
type Publisher interface {
	Publish(msg bus.Message) bool
}

// token state the session reads and clears
type TokenStore interface {
	Tokens(ctx context.Context) (tokens.TokenSet, error)
	Clear(ctx context.Context) error
}

// explicit context object handed to the collaborators of one process
type Session struct {
	Tokens    TokenStore
	Words     *words.Store
	API       *api.Client
	publisher Publisher

	// true while a logout is in flight, so concurrent triggers publish once
	mu         sync.Mutex
	loggingOut bool
}
