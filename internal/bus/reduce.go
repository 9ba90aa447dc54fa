package bus

import (
	"strings"

	"codeberg.org/afewwords/companion/internal/tokens"
)

// what a receiving context knows when it reduces a message
type State struct {
	Context  Context
	SignedIn bool
}

// side effect planned by Reduce and run by the context's owner
type Effect interface {
	effect()
}

// merge tokens into the Token Store
type SetTokens struct {
	Tokens tokens.TokenSet
}

// clear the Token Store and reset the word list, without publishing
type ClearSession struct{}

// open a page in the browser
type Open struct {
	URL string
}

// open the signup page
type OpenSignup struct{}

// optionally translate, then create the word
type SaveSelection struct {
	Text         string
	HighlightURL string
	Translate    bool
}

// refresh the word list; Full replaces it with the first page
type RefreshWords struct {
	Full bool
}

func (SetTokens) effect()     {}
func (ClearSession) effect()  {}
func (Open) effect()          {}
func (OpenSignup) effect()    {}
func (SaveSelection) effect() {}
func (RefreshWords) effect()  {}

// plans what state receiving env in state.Context leads to
func Reduce(state State, env Envelope) (State, []Effect) {
	if env.Message == nil {
		return state, nil
	}

	switch state.Context {
	case ContextBackground:
		return reduceBackground(state, env.Message)
	case ContextPanel:
		return reducePanel(state, env.Message)
	default:
		return state, nil
	}
}

func reduceBackground(state State, msg Message) (State, []Effect) {
	switch m := msg.(type) {
	case OIDCSignal:
		state.SignedIn = true
		return state, []Effect{SetTokens{Tokens: m.TokenSet()}}
	case Logout:
		state.SignedIn = false
		return state, []Effect{ClearSession{}}
	case OpenURL:
		return state, []Effect{Open{URL: m.URL}}
	case Register:
		return state, []Effect{OpenSignup{}}
	case SelectionCaptured:
		// nothing is saved for a blank selection or without a session
		if !state.SignedIn || strings.TrimSpace(m.Text) == "" {
			return state, nil
		}
		return state, []Effect{SaveSelection{
			Text:         m.Text,
			HighlightURL: m.HighlightURL,
			Translate:    m.Translate,
		}}
	default:
		return state, nil
	}
}

func reducePanel(state State, msg Message) (State, []Effect) {
	switch m := msg.(type) {
	case OIDCSignal:
		state.SignedIn = true
		return state, []Effect{SetTokens{Tokens: m.TokenSet()}, RefreshWords{Full: true}}
	case Logout:
		state.SignedIn = false
		return state, []Effect{ClearSession{}}
	case WordCreated:
		if !state.SignedIn {
			return state, nil
		}
		return state, []Effect{RefreshWords{}}
	default:
		return state, nil
	}
}
