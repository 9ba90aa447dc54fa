package background

import (
	"errors"
	"sync"
	"time"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/auth"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/session"
	"codeberg.org/afewwords/companion/internal/tokens"
)

var ErrUnsupportedURL = errors.New("only http and https URLs can be opened")

type Options struct {
	Policy          api.FailurePolicy
	RefreshInterval time.Duration
}

// the background context: owns the hub endpoint for ContextBackground
// and runs the effects planned for it
type Background struct {
	id         string
	hub        *bus.Hub
	store      *tokens.Store
	session    *session.Session
	controller *auth.Controller
	opener     auth.Opener
	options    Options

	mu    sync.Mutex
	state bus.State
}

// launches the platform browser
type BrowserOpener struct{}
