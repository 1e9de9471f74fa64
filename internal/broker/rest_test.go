package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXSentinel/internal/model"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(url string) *RESTClient {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = "secret"
	cfg.AccountID = "ACC-1"
	cfg.RetryDelay = 0
	return NewRESTClient(cfg, quietLogger())
}

func TestRESTClient_Price(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/prices/EURUSD":
			w.Write([]byte(`{"symbol":"EURUSD","price":1.0855}`))
		case "/v1/prices/GBPUSD":
			w.Write([]byte(`{"symbol":"GBPUSD","bid":1.2700,"ask":1.2702}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	p, err := c.Price(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.0855, p)

	p, err = c.Price(context.Background(), "GBPUSD")
	require.NoError(t, err)
	assert.InDelta(t, 1.2701, p, 1e-9)

	_, err = c.Price(context.Background(), "USDJPY")
	assert.Error(t, err, "empty quote is an error")
}

func TestRESTClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"price":1.1}`))
	}))
	defer srv.Close()

	p, err := newTestClient(srv.URL).Price(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.1, p)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRESTClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Balance(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRESTClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Price(context.Background(), "EURUSD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRESTClient_Submit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		var req orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ACC-1", req.AccountID)
		if req.Volume > 100 {
			w.Write([]byte(`{"order_id":"o-2","status":"rejected","message":"insufficient margin"}`))
			return
		}
		w.Write([]byte(`{"order_id":"o-1","status":"filled","price":1.0856}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res := c.Submit(context.Background(), "EURUSD", model.SideBuy, 10)
	assert.True(t, res.Success)
	assert.Equal(t, "o-1", res.OrderID)
	assert.Equal(t, 1.0856, res.Price)

	res = c.Submit(context.Background(), "EURUSD", model.SideSell, 1000)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient margin", res.Message)
}

func TestRESTClient_SubmitTransportFailureIsAResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := newTestClient(url).Submit(context.Background(), "EURUSD", model.SideBuy, 1)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestRESTClient_Balance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":10250.5,"currency":"USD"}`))
	}))
	defer srv.Close()

	b, err := newTestClient(srv.URL).Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10250.5, b)
}
