package panel

import (
	"context"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/session"
	"codeberg.org/afewwords/companion/internal/tokens"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

type Options struct {
	Store     *tokens.Store
	Session   *session.Session
	Publisher session.Publisher

	// messages routed to the panel; nil when running detached
	Incoming <-chan bus.Envelope

	Policy api.FailurePolicy

	WebsiteLoginURL string
	PrivacyURL      string
	TermsURL        string

	// writes to the system clipboard
	Copy func(text string) error
}

// the side panel: welcome screen when signed out, word list otherwise
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	store     *tokens.Store
	session   *session.Session
	publisher session.Publisher
	incoming  <-chan bus.Envelope
	tokenCh   chan tokens.TokenSet
	options   Options

	state    bus.State
	tokens   tokens.TokenSet
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	cursor   int
	width    int
	height   int
	status   string
	deleting map[int64]bool

	// set once the program quits; late async results are dropped
	quitting bool
}

// sent when LoadMore, Refresh or Reload finished
type wordsLoadedMsg struct {
	op  string
	err error
}

type wordDeletedMsg struct {
	id  int64
	err error
}

// a bus message routed to the panel
type envelopeMsg struct {
	env bus.Envelope
}

// results of the effects planned for one routed message
type effectsDoneMsg struct {
	msgs []tea.Msg
}

// the relay connection ended
type disconnectedMsg struct{}

type tokensChangedMsg struct {
	tokens tokens.TokenSet
}

type statusMsg struct {
	text string
}

type clearStatusMsg struct{}
