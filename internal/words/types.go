package words

import (
	"context"
	"sync"

	"codeberg.org/afewwords/companion/internal/api"
)

// fetches one page of words, newest first
type Fetcher interface {
	ListWords(ctx context.Context, offset, size int) ([]api.WordEntry, error)
}

// snapshot of the word list
type State struct {
	Words     []api.WordEntry
	IsLoading bool
	HasMore   bool
}

// paginated word list shared by one process
type Store struct {
	mu      sync.Mutex
	fetcher Fetcher

	words     []api.WordEntry
	isLoading bool
	hasMore   bool

	// bumped by Reset and Reload; pages fetched under an older generation are dropped
	generation uint64
}
