package tokens

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePersister_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	persister, err := NewFilePersister(dir)
	require.NoError(t, err)

	data, err := persister.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "missing file is an empty state")

	require.NoError(t, persister.Save(ctx, []byte(`{"version":1}`)))

	data, err = persister.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))

	info, err := os.Stat(filepath.Join(dir, stateFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())

	require.NoError(t, persister.Delete(ctx))
	require.NoError(t, persister.Delete(ctx), "deleting twice is fine")

	data, err = persister.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFilePersister_WatchSeesOtherWriter(t *testing.T) {
	dir := t.TempDir()

	reader, err := NewFilePersister(dir)
	require.NoError(t, err)
	reader.pollInterval = 10 * time.Millisecond

	writer, err := NewFilePersister(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []byte, 4)
	go reader.Watch(ctx, func(data []byte) { changes <- data }) //nolint:errcheck // stops with ctx

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, writer.Save(context.Background(), []byte(`{"version":1,"auth":{"access_token":"a"}}`)))

	select {
	case data := <-changes:
		assert.Contains(t, string(data), "access_token")
	case <-time.After(time.Second):
		t.Fatal("watch did not report the write")
	}
}
