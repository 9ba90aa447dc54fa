package bus

import (
	"errors"
	"sync"

	"codeberg.org/afewwords/companion/internal/metrics"
)

// execution context an endpoint belongs to
type Context string

const (
	ContextBackground Context = "background"
	ContextPanel      Context = "panel"
	ContextContent    Context = "content"
	ContextWebsite    Context = "website"
)

// canonical message kinds
type Kind string

const (
	// is sent by the website after it completed the interactive login
	KindOIDC Kind = "a_few_words_oidc"

	// is sent by any context to sign out everywhere
	KindLogout Kind = "logout"

	// is sent by the panel to open a page
	KindOpenURL Kind = "open_url"

	// is sent by the background after a word was stored
	KindWordCreated Kind = "word_created"

	// is sent by the panel to open the signup page
	KindRegister Kind = "register"

	// is sent by the save command with a captured selection
	KindSelectionCaptured Kind = "selection_captured"
)

// spellings seen in older clients
var aliases = map[string]Kind{
	"openUrl":      KindOpenURL,
	"wordCreated":  KindWordCreated,
	"open_new_tab": KindRegister,
	"openNewTab":   KindRegister,
}

const (
	// NATS subjects are subjectPrefix + kind
	subjectPrefix = "afewwords.bus."

	hubQueueSize       = 256
	defaultEndpointBuf = 32
)

var (
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrInvalidMessage = errors.New("invalid message")
	ErrMalformed      = errors.New("malformed message")
	ErrHubClosed      = errors.New("hub closed")
	ErrNotAllowed     = errors.New("message kind not allowed from this context")
)

// one message of the closed set
type Message interface {
	Kind() Kind
}

// message plus routing metadata
type Envelope struct {
	ID string

	// hub that first published it
	Origin string

	// context of the sender
	From Context

	// endpoint that sent it; it does not get its own message back
	Sender string

	Message Message
}

// registered receiver for one context
type Endpoint struct {
	ID      string
	Context Context

	hub  *Hub
	send chan Envelope
}

// routes envelopes to endpoints by destination context
type Hub struct {
	origin string

	// endpoints by context and id
	endpoints map[Context]map[string]*Endpoint

	register   chan *Endpoint
	unregister chan *Endpoint
	broadcast  chan Envelope

	// guards endpoints and observers
	mu sync.RWMutex

	// called for every routed envelope (the NATS bridge)
	observers []func(Envelope)

	recorder metrics.Recorder

	done     chan struct{}
	stopOnce sync.Once
}
