package panel

import (
	"context"

	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/tokens"
	tea "github.com/charmbracelet/bubbletea"
)

// waits for the next token change
func (m *Model) waitForTokens() tea.Cmd {
	ctx, ch := m.ctx, m.tokenCh

	return func() tea.Msg {
		select {
		case current := <-ch:
			return tokensChangedMsg{tokens: current}
		case <-ctx.Done():
			return nil
		}
	}
}

// waits for the next message routed to the panel
func (m *Model) waitForEnvelope() tea.Cmd {
	if m.incoming == nil {
		return nil
	}

	ctx, incoming := m.ctx, m.incoming

	return func() tea.Msg {
		select {
		case env, ok := <-incoming:
			if !ok {
				return disconnectedMsg{}
			}
			return envelopeMsg{env: env}
		case <-ctx.Done():
			return nil
		}
	}
}

// runs one of the word store loaders off the update loop
func (m *Model) loadWords(op string, load func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx

	return func() tea.Msg {
		return wordsLoadedMsg{op: op, err: load(ctx)}
	}
}

func (m *Model) deleteWord(id int64) tea.Cmd {
	ctx, client := m.ctx, m.session.API

	return func() tea.Msg {
		return wordDeletedMsg{id: id, err: client.DeleteWord(ctx, id)}
	}
}

func (m *Model) publish(msg bus.Message) tea.Cmd {
	publisher := m.publisher

	return func() tea.Msg {
		if publisher == nil || !publisher.Publish(msg) {
			return statusMsg{text: "background is not reachable"}
		}
		return nil
	}
}

func (m *Model) setTokens(partial tokens.TokenSet) tea.Cmd {
	ctx, store := m.ctx, m.store

	return func() tea.Msg {
		if err := store.SetTokens(ctx, partial); err != nil {
			logger.ErrorErr(err, "failed to store tokens")
		}
		return nil
	}
}

// clears the local session after a logout from another context
func (m *Model) clearSession() tea.Cmd {
	ctx, s := m.ctx, m.session

	return func() tea.Msg {
		if err := s.Clear(ctx); err != nil {
			logger.ErrorErr(err, "failed to clear session")
		}
		return nil
	}
}

// signs out here and in every other context
func (m *Model) logout() tea.Cmd {
	ctx, s := m.ctx, m.session

	return func() tea.Msg {
		if err := s.Logout(ctx); err != nil {
			logger.ErrorErr(err, "logout failed")
			return statusMsg{text: "could not sign out"}
		}
		return nil
	}
}
