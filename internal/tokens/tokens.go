package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// creates a token store backed by a persister
func NewStore(persister Persister) *Store {
	if persister == nil {
		persister = NewMemoryPersister()
	}

	return &Store{
		persister: persister,
		ready:     make(chan struct{}),
		listeners: make(map[int]func(TokenSet)),
		now:       time.Now,
	}
}

// loads the persisted state once and opens the loading gate.
// the gate opens even when loading fails so consumers never block forever;
// the store then starts empty.
func (s *Store) Hydrate(ctx context.Context) error {
	defer s.readyOnce.Do(func() { close(s.ready) })

	data, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted tokens: %w", err)
	}

	tokenSet, err := decodeState(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tokens = tokenSet
	s.mu.Unlock()

	return nil
}

// returns a channel closed once hydration completed
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// blocks until hydration completed or ctx is done
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotHydrated, ctx.Err())
	}
}

// returns the current tokens once hydrated
func (s *Store) Tokens(ctx context.Context) (TokenSet, error) {
	if err := s.Wait(ctx); err != nil {
		return TokenSet{}, err
	}

	return s.Snapshot(), nil
}

// returns the current access token once hydrated
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	tokenSet, err := s.Tokens(ctx)
	if err != nil {
		return "", err
	}

	return tokenSet.AccessToken, nil
}

// returns the current tokens without waiting for hydration
func (s *Store) Snapshot() TokenSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// merges a partial token set into the store. empty fields keep their
// current value, so a refresh response without refresh_token keeps the old one.
func (s *Store) SetTokens(ctx context.Context, partial TokenSet) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	merged := merge(s.tokens, partial, s.now())
	s.tokens = merged
	s.mu.Unlock()

	// local state stays authoritative for this context even if persisting fails
	err := s.persist(ctx, merged)
	s.notify(merged)

	return err
}

// resets every field and removes the persisted state
func (s *Store) Clear(ctx context.Context) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.tokens = TokenSet{}
	s.mu.Unlock()

	err := s.persister.Delete(ctx)
	s.notify(TokenSet{})

	if err != nil {
		return fmt.Errorf("failed to delete persisted tokens: %w", err)
	}

	return nil
}

// registers a listener called after every change; returns the unsubscribe func
func (s *Store) Subscribe(fn func(TokenSet)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// applies changes written by other processes until ctx is done.
// returns nil immediately when the persister cannot be watched.
func (s *Store) Watch(ctx context.Context) error {
	watcher, ok := s.persister.(Watcher)
	if !ok {
		return nil
	}

	if err := s.Wait(ctx); err != nil {
		return err
	}

	return watcher.Watch(ctx, func(data []byte) {
		s.applyRemote(data)
	})
}

func (s *Store) applyRemote(data []byte) {
	tokenSet, err := decodeState(data)
	if err != nil {
		return
	}

	s.mu.Lock()
	if s.tokens == tokenSet {
		s.mu.Unlock()
		return
	}

	s.tokens = tokenSet
	s.mu.Unlock()

	s.notify(tokenSet)
}

func (s *Store) persist(ctx context.Context, tokenSet TokenSet) error {
	data, err := json.Marshal(persistedState{Version: storageVersion, Auth: tokenSet})
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	if err := s.persister.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	return nil
}

func (s *Store) notify(tokenSet TokenSet) {
	s.mu.RLock()
	listeners := make([]func(TokenSet), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(tokenSet)
	}
}
