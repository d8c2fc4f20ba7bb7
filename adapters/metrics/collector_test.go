package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{}

func (failingPublisher) PublishSessionChange(context.Context, string) error { return errors.New("down") }
func (failingPublisher) PublishNetworkChange(context.Context, string) error { return nil }
func (failingPublisher) PublishLogout(context.Context, string, string) error { return nil }

func TestPublisherCountsEvents(t *testing.T) {
	c := NewCollector("w3o")
	ctx := context.Background()

	p := c.Publisher(nil)
	require.NoError(t, p.PublishSessionChange(ctx, "alice--anchor--telos"))
	require.NoError(t, p.PublishNetworkChange(ctx, "telos"))
	require.NoError(t, p.PublishNetworkChange(ctx, "telos"))
	require.NoError(t, p.PublishLogout(ctx, "alice", "alice--anchor--telos"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.SessionChanges))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.NetworkChanges.WithLabelValues("telos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Logouts))
}

func TestPublisherCountsFailures(t *testing.T) {
	c := NewCollector("w3o")
	p := c.Publisher(failingPublisher{})

	assert.Error(t, p.PublishSessionChange(context.Background(), ""))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PublishErrors.WithLabelValues("session")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("w3o")
	c.ObserveRequest(http.MethodGet, "/snapshot", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `w3o_http_requests_total{method="GET",route="/snapshot",status="200"} 1`)
}
