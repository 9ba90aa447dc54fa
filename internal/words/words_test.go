package words

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeberg.org/afewwords/companion/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serves words with ids total..1, newest first
type fakeFetcher struct {
	mu      sync.Mutex
	total   int
	calls   []int
	err     error
	release chan struct{}
}

func (f *fakeFetcher) ListWords(ctx context.Context, offset, size int) ([]api.WordEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	release := f.release
	err := f.err
	total := f.total
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	page := []api.WordEntry{}
	for i := offset; i < total && i < offset+size; i++ {
		id := int64(total - i)
		page = append(page, api.WordEntry{ID: id, Word: fmt.Sprintf("word-%d", id)})
	}

	return page, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func ids(state State) []int64 {
	out := make([]int64, 0, len(state.Words))
	for _, word := range state.Words {
		out = append(out, word.ID)
	}
	return out
}

func TestNewStore_InitialState(t *testing.T) {
	state := NewStore(&fakeFetcher{}).State()

	assert.Empty(t, state.Words)
	assert.False(t, state.IsLoading)
	assert.True(t, state.HasMore)
}

func TestLoadMore_PagesUntilExhausted(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{total: 60}
	store := NewStore(fetcher)

	require.NoError(t, store.LoadMore(ctx))
	state := store.State()
	assert.Len(t, state.Words, 50)
	assert.True(t, state.HasMore)
	assert.False(t, state.IsLoading)

	require.NoError(t, store.LoadMore(ctx))
	state = store.State()
	assert.Len(t, state.Words, 60)
	assert.False(t, state.HasMore)
	assert.False(t, state.IsLoading)

	assert.Equal(t, []int{0, 50}, fetcher.calls)
	assert.Equal(t, int64(60), state.Words[0].ID)
	assert.Equal(t, int64(1), state.Words[59].ID)
}

func TestLoadMore_SingleRequestWhileLoading(t *testing.T) {
	fetcher := &fakeFetcher{total: 10, release: make(chan struct{})}
	store := NewStore(fetcher)

	done := make(chan error, 1)
	go func() { done <- store.LoadMore(context.Background()) }()

	require.Eventually(t, func() bool { return store.State().IsLoading }, time.Second, 5*time.Millisecond)

	// the second call returns without fetching
	require.NoError(t, store.LoadMore(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())

	close(fetcher.release)
	require.NoError(t, <-done)

	state := store.State()
	assert.Len(t, state.Words, 10)
	assert.False(t, state.IsLoading)
	assert.False(t, state.HasMore)
}

func TestLoadMore_FailureClearsLoading(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	store := NewStore(fetcher)

	err := store.LoadMore(context.Background())
	require.Error(t, err)

	state := store.State()
	assert.False(t, state.IsLoading)
	assert.True(t, state.HasMore)
	assert.Empty(t, state.Words)
}

func TestLoadMore_PageAfterResetIsDiscarded(t *testing.T) {
	fetcher := &fakeFetcher{total: 5, release: make(chan struct{})}
	store := NewStore(fetcher)

	done := make(chan error, 1)
	go func() { done <- store.LoadMore(context.Background()) }()

	require.Eventually(t, func() bool { return store.State().IsLoading }, time.Second, 5*time.Millisecond)

	store.Reset()
	close(fetcher.release)
	require.NoError(t, <-done)

	state := store.State()
	assert.Empty(t, state.Words, "logged-out list must stay empty")
	assert.False(t, state.IsLoading)
	assert.True(t, state.HasMore)
}

// blocks the first ListWords call until gate is closed
type gatedFetcher struct {
	fakeFetcher
	gate    chan struct{}
	entered chan struct{}
	first   sync.Once
}

func (f *gatedFetcher) ListWords(ctx context.Context, offset, size int) ([]api.WordEntry, error) {
	blocked := false
	f.first.Do(func() {
		blocked = true
		close(f.entered)
	})

	if blocked {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.fakeFetcher.ListWords(ctx, offset, size)
}

func TestRefresh_DuringLoadMoreKeepsIDsUnique(t *testing.T) {
	fetcher := &gatedFetcher{
		fakeFetcher: fakeFetcher{total: 9},
		gate:        make(chan struct{}),
		entered:     make(chan struct{}),
	}
	store := NewStore(fetcher)

	done := make(chan error, 1)
	go func() { done <- store.LoadMore(context.Background()) }()

	select {
	case <-fetcher.entered:
	case <-time.After(time.Second):
		t.Fatal("LoadMore never fetched")
	}

	// a word is created while the first page is still on its way
	fetcher.mu.Lock()
	fetcher.total = 10
	fetcher.mu.Unlock()

	require.NoError(t, store.Refresh(context.Background()))
	close(fetcher.gate)
	require.NoError(t, <-done)

	state := store.State()
	assert.Equal(t, []int64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, ids(state))
	assert.False(t, state.IsLoading)
}

func TestRemove_KeepsOrder(t *testing.T) {
	store := NewStore(&fakeFetcher{total: 3})
	require.NoError(t, store.LoadMore(context.Background()))
	require.Equal(t, []int64{3, 2, 1}, ids(store.State()))

	assert.True(t, store.Remove(2))
	assert.Equal(t, []int64{3, 1}, ids(store.State()))

	assert.False(t, store.Remove(42))
	assert.Equal(t, []int64{3, 1}, ids(store.State()))
}

func TestRefresh_MergesNewWordsInFront(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{total: 3}
	store := NewStore(fetcher)
	require.NoError(t, store.LoadMore(ctx))

	// two words created since the last load
	fetcher.mu.Lock()
	fetcher.total = 5
	fetcher.mu.Unlock()

	require.NoError(t, store.Refresh(ctx))
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(store.State()))

	// refreshing again adds nothing
	require.NoError(t, store.Refresh(ctx))
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(store.State()))
}

func TestReload_ReplacesList(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{total: 60}
	store := NewStore(fetcher)
	require.NoError(t, store.LoadMore(ctx))
	require.NoError(t, store.LoadMore(ctx))
	require.Len(t, store.State().Words, 60)

	require.NoError(t, store.Reload(ctx))

	state := store.State()
	assert.Len(t, state.Words, 50)
	assert.True(t, state.HasMore)
	assert.Equal(t, int64(60), state.Words[0].ID)
}

func TestReset_RestoresInitialState(t *testing.T) {
	store := NewStore(&fakeFetcher{total: 3})
	require.NoError(t, store.LoadMore(context.Background()))
	require.False(t, store.State().HasMore)

	store.Reset()

	state := store.State()
	assert.Empty(t, state.Words)
	assert.True(t, state.HasMore)
	assert.False(t, state.IsLoading)
}

func TestAppendUnseen(t *testing.T) {
	current := []api.WordEntry{{ID: 5}, {ID: 4}}
	page := []api.WordEntry{{ID: 4}, {ID: 3}, {Word: "no id"}}

	got := appendUnseen(current, page)

	assert.Equal(t, []int64{5, 4, 3, 0}, ids(State{Words: got}))
}

func TestMergeFront(t *testing.T) {
	tests := []struct {
		name    string
		current []api.WordEntry
		page    []api.WordEntry
		want    []int64
	}{
		{
			name:    "empty list takes the page",
			current: nil,
			page:    []api.WordEntry{{ID: 2}, {ID: 1}},
			want:    []int64{2, 1},
		},
		{
			name:    "duplicates dropped",
			current: []api.WordEntry{{ID: 2}, {ID: 1}},
			page:    []api.WordEntry{{ID: 3}, {ID: 2}, {ID: 1}},
			want:    []int64{3, 2, 1},
		},
		{
			name:    "no new words",
			current: []api.WordEntry{{ID: 2}, {ID: 1}},
			page:    []api.WordEntry{{ID: 2}},
			want:    []int64{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(State{Words: mergeFront(tt.current, tt.page)}))
		})
	}
}
