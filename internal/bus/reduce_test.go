package bus

import (
	"testing"

	"codeberg.org/afewwords/companion/internal/tokens"
	"github.com/stretchr/testify/assert"
)

func TestReduce_Background(t *testing.T) {
	signedIn := State{Context: ContextBackground, SignedIn: true}
	signedOut := State{Context: ContextBackground}

	tests := []struct {
		name      string
		state     State
		msg       Message
		wantState State
		want      []Effect
	}{
		{
			name:      "oidc sets tokens",
			state:     signedOut,
			msg:       OIDCSignal{AccessToken: "a", RefreshToken: "r"},
			wantState: signedIn,
			want:      []Effect{SetTokens{Tokens: tokens.TokenSet{AccessToken: "a", RefreshToken: "r"}}},
		},
		{
			name:      "logout clears the session",
			state:     signedIn,
			msg:       Logout{},
			wantState: signedOut,
			want:      []Effect{ClearSession{}},
		},
		{
			name:      "open url",
			state:     signedIn,
			msg:       OpenURL{URL: "https://example.com/privacy"},
			wantState: signedIn,
			want:      []Effect{Open{URL: "https://example.com/privacy"}},
		},
		{
			name:      "register opens signup",
			state:     signedOut,
			msg:       Register{},
			wantState: signedOut,
			want:      []Effect{OpenSignup{}},
		},
		{
			name:      "selection saved when signed in",
			state:     signedIn,
			msg:       SelectionCaptured{Text: "lucid", HighlightURL: "https://example.com/#:~:text=lucid", Translate: true},
			wantState: signedIn,
			want:      []Effect{SaveSelection{Text: "lucid", HighlightURL: "https://example.com/#:~:text=lucid", Translate: true}},
		},
		{
			name:      "selection ignored when signed out",
			state:     signedOut,
			msg:       SelectionCaptured{Text: "lucid"},
			wantState: signedOut,
		},
		{
			name:      "blank selection ignored",
			state:     signedIn,
			msg:       SelectionCaptured{Text: "  \n"},
			wantState: signedIn,
		},
		{
			name:      "word created is not for the background",
			state:     signedIn,
			msg:       WordCreated{},
			wantState: signedIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, effects := Reduce(tt.state, Envelope{Message: tt.msg})
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.want, effects)
		})
	}
}

func TestReduce_Panel(t *testing.T) {
	signedIn := State{Context: ContextPanel, SignedIn: true}
	signedOut := State{Context: ContextPanel}

	state, effects := Reduce(signedOut, Envelope{Message: OIDCSignal{AccessToken: "a"}})
	assert.True(t, state.SignedIn)
	assert.Equal(t, []Effect{SetTokens{Tokens: tokens.TokenSet{AccessToken: "a"}}, RefreshWords{Full: true}}, effects)

	_, effects = Reduce(signedIn, Envelope{Message: WordCreated{WordID: 3}})
	assert.Equal(t, []Effect{RefreshWords{}}, effects)

	_, effects = Reduce(signedOut, Envelope{Message: WordCreated{WordID: 3}})
	assert.Empty(t, effects)

	state, effects = Reduce(signedIn, Envelope{Message: Logout{}})
	assert.False(t, state.SignedIn)
	assert.Equal(t, []Effect{ClearSession{}}, effects)

	_, effects = Reduce(signedIn, Envelope{Message: OpenURL{URL: "https://example.com"}})
	assert.Empty(t, effects)
}

func TestReduce_OtherContextsArePassive(t *testing.T) {
	state := State{Context: ContextWebsite}

	next, effects := Reduce(state, Envelope{Message: Logout{}})
	assert.Equal(t, state, next)
	assert.Empty(t, effects)

	next, effects = Reduce(State{Context: ContextPanel}, Envelope{})
	assert.Equal(t, State{Context: ContextPanel}, next)
	assert.Empty(t, effects)
}
