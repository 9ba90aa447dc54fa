package tokens

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runs against the server in REDIS_URL; skipped without one
func newTestRedisPersister(t *testing.T) *RedisPersister {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	persister, err := NewRedisPersisterFromURL(redisURL)
	require.NoError(t, err)

	persister.key = fmt.Sprintf("%s:test:%d", StorageKey, time.Now().UnixNano())
	t.Cleanup(func() {
		persister.Delete(context.Background()) //nolint:errcheck
		persister.Close()                      //nolint:errcheck
	})

	return persister
}

// runs against the database in DATABASE_URL; skipped without one
func newTestPostgresPersister(t *testing.T) *PostgresPersister {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	persister, err := NewPostgresPersister(ctx, pool)
	require.NoError(t, err)

	persister.key = fmt.Sprintf("%s:test:%d", StorageKey, time.Now().UnixNano())
	t.Cleanup(func() {
		persister.Delete(context.Background()) //nolint:errcheck
	})

	return persister
}

func TestBackends_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		persister func(t *testing.T) Persister
	}{
		{"redis", func(t *testing.T) Persister { return newTestRedisPersister(t) }},
		{"postgres", func(t *testing.T) Persister { return newTestPostgresPersister(t) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			persister := tt.persister(t)

			data, err := persister.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, data, "missing key is an empty state")

			require.NoError(t, persister.Save(ctx, []byte(`{"version":1}`)))

			data, err = persister.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, `{"version":1}`, string(data))

			require.NoError(t, persister.Delete(ctx))

			data, err = persister.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestBackends_WatchSharesWritesAcrossContexts(t *testing.T) {
	tests := []struct {
		name      string
		persister func(t *testing.T) Persister
	}{
		{"redis", func(t *testing.T) Persister { return newTestRedisPersister(t) }},
		{"postgres", func(t *testing.T) Persister { return newTestPostgresPersister(t) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persister := tt.persister(t)
			background := hydratedStore(t, persister)
			panel := hydratedStore(t, persister)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			changed := make(chan TokenSet, 4)
			panel.Subscribe(func(tokenSet TokenSet) { changed <- tokenSet })

			go panel.Watch(ctx) //nolint:errcheck // stops with ctx

			// give the subscription time to be established
			time.Sleep(200 * time.Millisecond)

			require.NoError(t, background.SetTokens(context.Background(), TokenSet{AccessToken: "from-background"}))

			select {
			case tokenSet := <-changed:
				assert.Equal(t, "from-background", tokenSet.AccessToken)
			case <-time.After(5 * time.Second):
				t.Fatal("panel did not observe the background write")
			}

			require.NoError(t, background.Clear(context.Background()))

			select {
			case tokenSet := <-changed:
				assert.True(t, tokenSet.IsZero())
			case <-time.After(5 * time.Second):
				t.Fatal("panel did not observe the logout")
			}
		})
	}
}
