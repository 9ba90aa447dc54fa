package session

import (
	"context"
	"fmt"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/words"
)

// creates a session and routes a 401 from the API into Logout
func New(store TokenStore, client *api.Client, wordStore *words.Store, publisher Publisher) *Session {
	s := &Session{
		Tokens:    store,
		Words:     wordStore,
		API:       client,
		publisher: publisher,
	}

	if client != nil {
		client.OnUnauthorized(func(ctx context.Context) {
			if err := s.Logout(ctx); err != nil {
				logger.ErrorErr(err, "logout after unauthorized response failed")
			}
		})
	}

	return s
}

// reports whether an access token is stored
func (s *Session) SignedIn(ctx context.Context) bool {
	current, err := s.Tokens.Tokens(ctx)
	return err == nil && current.SignedIn()
}

// clears the session locally and tells every other context to do the same.
// repeated calls while signed out do nothing.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.loggingOut {
		s.mu.Unlock()
		return nil
	}
	s.loggingOut = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loggingOut = false
		s.mu.Unlock()
	}()

	current, err := s.Tokens.Tokens(ctx)
	if err != nil {
		return err
	}

	wasSignedIn := !current.IsZero()

	if err := s.Clear(ctx); err != nil {
		return err
	}

	if wasSignedIn && s.publisher != nil {
		s.publisher.Publish(bus.Logout{})
		logger.Info("session logged out")
	}

	return nil
}

// clears tokens and the word list without notifying anyone;
// used when the logout came from another context
func (s *Session) Clear(ctx context.Context) error {
	if err := s.Tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	if s.Words != nil {
		s.Words.Reset()
	}

	return nil
}
