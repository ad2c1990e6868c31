package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"matchbook/engine"
	"matchbook/infra/metrics"
	"matchbook/infra/tradelog"
	"matchbook/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	e, err := engine.New(engine.Config{
		Symbols:      []string{"AAPL", "GOOG"},
		MaxPriceTick: engine.DefaultMaxPriceTick,
	})
	require.NoError(t, err)
	svc := service.New(zap.NewNop(), e, service.Options{
		Trades:  tradelog.New(64),
		Metrics: metrics.New(),
	})
	return NewServer(zap.NewNop(), svc, metrics.New(), ":0")
}

func postOrder(t *testing.T, srv *Server, body SubmitOrderRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitOrderEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := postOrder(t, srv, SubmitOrderRequest{Side: "sell", Symbol: "AAPL", Qty: 10, Price: 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postOrder(t, srv, SubmitOrderRequest{Side: "buy", Symbol: "AAPL", Qty: 15, Price: 101})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(10), resp.Filled)
	assert.Equal(t, int64(5), resp.Resting)
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, "AAPL", resp.Trades[0].Symbol)
	assert.Equal(t, int64(100), resp.Trades[0].Price)
	assert.Equal(t, int64(10), resp.Trades[0].Qty)
}

func TestSubmitOrderValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		req  SubmitOrderRequest
		code int
	}{
		{"bad side", SubmitOrderRequest{Side: "hold", Symbol: "AAPL", Qty: 1, Price: 100}, http.StatusBadRequest},
		{"zero qty", SubmitOrderRequest{Side: "buy", Symbol: "AAPL", Qty: 0, Price: 100}, http.StatusBadRequest},
		{"zero price", SubmitOrderRequest{Side: "buy", Symbol: "AAPL", Qty: 1, Price: 0}, http.StatusBadRequest},
		{"unknown symbol", SubmitOrderRequest{Side: "buy", Symbol: "TSLA", Qty: 1, Price: 100}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postOrder(t, srv, tc.req)
			assert.Equal(t, tc.code, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSubmitOrderBadBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookEndpoint(t *testing.T) {
	srv := newTestServer(t)
	postOrder(t, srv, SubmitOrderRequest{Side: "buy", Symbol: "GOOG", Qty: 5, Price: 99})
	postOrder(t, srv, SubmitOrderRequest{Side: "sell", Symbol: "GOOG", Qty: 3, Price: 102})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/book/GOOG", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "GOOG", resp.Symbol)
	require.Len(t, resp.Bids, 1)
	require.Len(t, resp.Asks, 1)
	assert.Equal(t, int64(99), resp.Bids[0].Price)
	assert.Equal(t, int64(5), resp.Bids[0].Qty)
	assert.Equal(t, int64(102), resp.Asks[0].Price)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/book/TSLA", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTradesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	postOrder(t, srv, SubmitOrderRequest{Side: "sell", Symbol: "AAPL", Qty: 5, Price: 100})
	postOrder(t, srv, SubmitOrderRequest{Side: "buy", Symbol: "AAPL", Qty: 5, Price: 100})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades?limit=10", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TradesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, "AAPL", resp.Trades[0].Symbol)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/trades?limit=0", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
