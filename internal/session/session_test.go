package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/tokens"
	"codeberg.org/afewwords/companion/internal/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []bus.Message
}

func (p *recordingPublisher) Publish(msg bus.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return true
}

func (p *recordingPublisher) sent() []bus.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bus.Message(nil), p.messages...)
}

func signedInStore(t *testing.T) *tokens.Store {
	t.Helper()

	store := tokens.NewStore(nil)
	require.NoError(t, store.Hydrate(context.Background()))
	require.NoError(t, store.SetTokens(context.Background(), tokens.TokenSet{AccessToken: "a", RefreshToken: "r"}))

	return store
}

func TestLogout_ClearsAndPublishesOnce(t *testing.T) {
	ctx := context.Background()
	store := signedInStore(t)
	publisher := &recordingPublisher{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id":1,"word":"hola"}]`)) //nolint:errcheck
	}))
	defer server.Close()

	client := api.NewClient(server.URL, store)
	wordStore := words.NewStore(client)
	require.NoError(t, wordStore.LoadMore(ctx))
	require.Len(t, wordStore.State().Words, 1)

	s := New(store, client, wordStore, publisher)

	require.NoError(t, s.Logout(ctx))
	require.NoError(t, s.Logout(ctx))

	assert.True(t, store.Snapshot().IsZero())
	assert.Empty(t, wordStore.State().Words)
	assert.True(t, wordStore.State().HasMore)
	assert.False(t, s.SignedIn(ctx))
	assert.Equal(t, []bus.Message{bus.Logout{}}, publisher.sent())
}

func TestClear_DoesNotPublish(t *testing.T) {
	ctx := context.Background()
	store := signedInStore(t)
	publisher := &recordingPublisher{}

	s := New(store, nil, words.NewStore(nil), publisher)
	require.True(t, s.SignedIn(ctx))

	require.NoError(t, s.Clear(ctx))

	assert.True(t, store.Snapshot().IsZero())
	assert.Empty(t, publisher.sent())
}

func TestUnauthorizedResponseLogsOut(t *testing.T) {
	ctx := context.Background()
	store := signedInStore(t)
	publisher := &recordingPublisher{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, store)
	New(store, client, words.NewStore(client), publisher)

	_, err := client.ListWords(ctx, 0, api.PageSize)
	assert.True(t, api.IsUnauthorized(err))

	assert.True(t, store.Snapshot().IsZero())
	assert.Equal(t, []bus.Message{bus.Logout{}}, publisher.sent())
}
