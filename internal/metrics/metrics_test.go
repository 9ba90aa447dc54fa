package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_CountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAPICall("list_words", "ok", 10*time.Millisecond)
	c.RecordAPICall("list_words", "ok", 20*time.Millisecond)
	c.RecordAPICall("list_words", "unauthorized", time.Millisecond)
	c.RecordDelivery("word_created", "panel")
	c.RecordDrop("word_created", "panel")
	c.RecordDrop("logout", "website")
	c.RecordRefresh("failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.apiCalls.WithLabelValues("list_words", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.apiCalls.WithLabelValues("list_words", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deliveries.WithLabelValues("word_created", "panel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.drops.WithLabelValues("logout", "website")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.refreshes.WithLabelValues("failed")))
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRefresh("ok")

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `afewwords_token_refreshes_total{outcome="ok"} 1`)
}

func TestNop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}

	assert.NotPanics(t, func() {
		r.RecordAPICall("x", "ok", 0)
		r.RecordDelivery("x", "y")
		r.RecordDrop("x", "y")
		r.RecordRefresh("ok")
	})
}
