package words

import (
	"context"
	"fmt"

	"codeberg.org/afewwords/companion/internal/api"
)

// creates an empty word list that pages through fetcher
func NewStore(fetcher Fetcher) *Store {
	return &Store{
		fetcher: fetcher,
		hasMore: true,
	}
}

// returns a copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Words:     append([]api.WordEntry(nil), s.words...),
		IsLoading: s.isLoading,
		HasMore:   s.hasMore,
	}
}

// appends the next page. returns immediately when a load is in flight.
// a failed fetch leaves words and hasMore untouched so the caller can retry.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.isLoading {
		s.mu.Unlock()
		return nil
	}

	s.isLoading = true
	offset := len(s.words)
	generation := s.generation
	s.mu.Unlock()

	page, err := s.fetcher.ListWords(ctx, offset, api.PageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	// reset while fetching; the new generation owns isLoading now
	if generation != s.generation {
		return nil
	}

	s.isLoading = false

	if err != nil {
		return fmt.Errorf("failed to load words: %w", err)
	}

	// a Refresh that landed meanwhile may already hold some of these
	s.words = appendUnseen(s.words, page)
	s.hasMore = len(page) >= api.PageSize

	return nil
}

// fetches the first page and puts ids not seen yet in front
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	page, err := s.fetcher.ListWords(ctx, 0, api.PageSize)
	if err != nil {
		return fmt.Errorf("failed to refresh words: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return nil
	}

	s.words = mergeFront(s.words, page)

	return nil
}

// replaces the list with the first page
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	page, err := s.fetcher.ListWords(ctx, 0, api.PageSize)
	if err != nil {
		return fmt.Errorf("failed to reload words: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return nil
	}

	// an in-flight LoadMore was computed against the old list
	s.generation++
	s.isLoading = false
	s.words = append([]api.WordEntry(nil), page...)
	s.hasMore = len(page) >= api.PageSize

	return nil
}

// deletes the entry with id, keeping the order of the rest
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, word := range s.words {
		if word.ID == id {
			s.words = append(s.words[:i:i], s.words[i+1:]...)
			return true
		}
	}

	return false
}

// empties the list on logout
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.words = nil
	s.isLoading = false
	s.hasMore = true
}
