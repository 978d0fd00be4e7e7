package ozon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

func newTestClient(t *testing.T, srv *httptest.Server, attempts int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:        srv.URL,
		ClientID:       "client",
		APIKey:         "secret",
		Timeout:        2 * time.Second,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}, logger.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestSend_HeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, ClusterListEndpoint, r.URL.Path)
		require.Equal(t, "client", r.Header.Get("Client-Id"))
		require.Equal(t, "secret", r.Header.Get("Api-Key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		b, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"cluster_type":"CLUSTER_TYPE_OZON"}`, string(b))
		_, _ = w.Write([]byte(`{"clusters":[]}`))
	}))
	defer srv.Close()

	node, err := newTestClient(t, srv, 3).Send(context.Background(), ClusterListEndpoint, NewClusterListRequest())
	require.NoError(t, err)
	require.True(t, node.Field("clusters").IsList())
}

func TestSend_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"result":{"items":[]}}`))
		}
	}))
	defer srv.Close()

	node, err := newTestClient(t, srv, 5).Send(context.Background(), ProductListEndpoint, NewProductListRequest(""))
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.True(t, node.Field("result").IsObject())
}

func TestSend_Exhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 4).Send(context.Background(), AnalyticsStocksEndpoint, StocksRequest{SKUs: []string{"1"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, utils.ErrRequestExhausted))
	require.Equal(t, int32(4), atomic.LoadInt32(&calls))

	var ex *RequestExhaustedError
	require.True(t, errors.As(err, &ex))
	require.Equal(t, AnalyticsStocksEndpoint, ex.Endpoint)
	require.Equal(t, http.StatusServiceUnavailable, ex.LastStatus)
	require.Equal(t, 4, ex.Attempts)
}

func TestSend_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":3,"message":"invalid sku"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 5).Send(context.Background(), AnalyticsStocksEndpoint, StocksRequest{})
	require.True(t, errors.Is(err, utils.ErrRequestFailed))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var rf *RequestFailedError
	require.True(t, errors.As(err, &rf))
	require.Equal(t, http.StatusBadRequest, rf.Status)
	require.Equal(t, "invalid sku", rf.Body.Field("message").String())
}

func TestSend_ClientErrorWithTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`forbidden`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 5).Send(context.Background(), ClusterListEndpoint, NewClusterListRequest())

	var rf *RequestFailedError
	require.True(t, errors.As(err, &rf))
	require.Equal(t, payload.KindText, rf.Body.Kind())
	require.Equal(t, "forbidden", rf.Body.String())
	require.Contains(t, err.Error(), "HTTP 403")
}

func TestSend_SuccessWithTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	node, err := newTestClient(t, srv, 1).Send(context.Background(), ClusterListEndpoint, NewClusterListRequest())
	require.NoError(t, err)
	require.Equal(t, payload.KindText, node.Kind())
}

func TestSend_CancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:        srv.URL,
		ClientID:       "client",
		APIKey:         "secret",
		MaxAttempts:    5,
		InitialBackoff: time.Minute,
		MaxBackoff:     time.Minute,
	}, logger.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.Send(ctx, ProductListEndpoint, NewProductListRequest(""))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestSend_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{
		BaseURL:        url,
		ClientID:       "client",
		APIKey:         "secret",
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}, logger.NewNopLogger())
	require.NoError(t, err)

	_, err = c.Send(context.Background(), ProductListEndpoint, NewProductListRequest(""))
	var ex *RequestExhaustedError
	require.True(t, errors.As(err, &ex))
	require.Equal(t, 0, ex.LastStatus)
	require.Error(t, ex.Err)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{ClientID: "id"}, logger.NewNopLogger())
	require.Error(t, err)
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Initial: time.Second, Max: 30 * time.Second}

	want := []time.Duration{1, 2, 4, 8, 16, 30, 30}
	for n, w := range want {
		require.Equal(t, w*time.Second, b.Delay(n), "n=%d", n)
	}
	for n := 0; n < 100; n++ {
		require.LessOrEqual(t, b.Delay(n), b.Max)
	}
}
