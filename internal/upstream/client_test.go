package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/flood-risk/pkg/logger"
)

type observation struct {
	upstream string
	outcome  string
}

type fakeObserver struct {
	mu  sync.Mutex
	got []observation
}

func (o *fakeObserver) ObserveUpstream(upstream, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, observation{upstream, outcome})
}

func statusServer(t *testing.T, status int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, c *Client, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return c.Do(req)
}

func TestDoSuccess(t *testing.T) {
	srv := statusServer(t, http.StatusOK, nil)
	obs := &fakeObserver{}
	c := New("weather", srv.Client(), obs, logger.NewNop())

	resp, err := get(t, c, srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "weather", c.Name())
	assert.Equal(t, []observation{{"weather", "success"}}, obs.got)
}

func TestDoStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrUnexpected},
		{http.StatusNotFound, ErrUnexpected},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusServiceUnavailable, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var hits atomic.Int32
			srv := statusServer(t, tt.status, &hits)
			obs := &fakeObserver{}
			c := New("geocoder", srv.Client(), obs, logger.NewNop())

			resp, err := get(t, c, srv.URL)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), hits.Load(), "a failed call is never retried")
			assert.Equal(t, []observation{{"geocoder", "error"}}, obs.got)
		})
	}
}

func TestBreakerOpensAfterConsecutiveServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := statusServer(t, http.StatusInternalServerError, &hits)
	obs := &fakeObserver{}
	c := New("model", srv.Client(), obs, logger.NewNop())

	for i := 0; i < 5; i++ {
		_, err := get(t, c, srv.URL)
		require.ErrorIs(t, err, ErrServerError)
	}

	_, err := get(t, c, srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())
	assert.Equal(t, observation{"model", "circuit_open"}, obs.got[len(obs.got)-1])
}

func TestCancelledCallsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slow") != "" {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	obs := &fakeObserver{}
	c := New("weather", srv.Client(), obs, logger.NewNop())

	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?slow=1", nil)
		require.NoError(t, err)
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		_, err = c.Do(req)
		require.ErrorIs(t, err, context.Canceled)
		cancel()
	}

	resp, err := get(t, c, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, observation{"weather", "canceled"}, obs.got[0])
	assert.Equal(t, observation{"weather", "success"}, obs.got[len(obs.got)-1])
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := statusServer(t, http.StatusNotFound, nil)
	c := New("weather", srv.Client(), nil, logger.NewNop())

	for i := 0; i < 10; i++ {
		_, err := get(t, c, srv.URL)
		require.ErrorIs(t, err, ErrUnexpected)
	}
}

func TestDoWithoutHTTPClient(t *testing.T) {
	c := New("weather", nil, nil, nil)
	_, err := get(t, c, "http://example.invalid")
	assert.Error(t, err)
}
