package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okx-analysis/internal/analysis"
	"okx-analysis/internal/gateway"
	"okx-analysis/internal/model"
)

type flatSource struct {
	err error
}

func (s flatSource) FetchCandles(ctx context.Context, instID string, bar model.Bar, limit int) ([]model.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Candle, limit)
	for i := range out {
		out[i] = model.Candle{TS: int64(i) * 60000, Open: 100, High: 100, Low: 100, Close: 100}
	}
	return out, nil
}

func serve(t *testing.T, mux http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	mux := NewRouter(analysis.New(flatSource{}, nil), nil)
	rec, body := serve(t, mux, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestAnalysis_GetSignal(t *testing.T) {
	mux := NewRouter(analysis.New(flatSource{}, nil), nil)
	rec, body := serve(t, mux, http.MethodGet, "/api/v1/analysis?action=signal&instId=ETH-USDT&bar=4H&limit=30", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "ETH-USDT", data["instId"])
	assert.Equal(t, "4H", data["bar"])
	assert.Equal(t, float64(10), data["maxScore"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalysis_PostBody(t *testing.T) {
	mux := NewRouter(analysis.New(flatSource{}, nil), nil)
	rec, body := serve(t, mux, http.MethodPost, "/api/v1/analysis", `{"action":"rsi","limit":20}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	// flat closes: zero gain and zero loss hits the RS sentinel
	assert.Equal(t, 99.01, data["rsi"])
	assert.Equal(t, "overbought", data["signal"])
}

func TestAnalysis_StatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		src    flatSource
		target string
		want   int
	}{
		{"unknown action", flatSource{}, "/api/v1/analysis?action=dance", http.StatusBadRequest},
		{"bad bar", flatSource{}, "/api/v1/analysis?action=ma&bar=7m", http.StatusBadRequest},
		{"non-numeric limit", flatSource{}, "/api/v1/analysis?action=ma&limit=ten", http.StatusBadRequest},
		{"limit too large", flatSource{}, "/api/v1/analysis?action=ma&limit=1000", http.StatusBadRequest},
		{"upstream failure", flatSource{err: errors.New("okx down")}, "/api/v1/analysis?action=ma", http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := NewRouter(analysis.New(tc.src, nil), nil)
			rec, body := serve(t, mux, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalysis_MethodNotAllowed(t *testing.T) {
	mux := NewRouter(analysis.New(flatSource{}, nil), nil)
	rec, _ := serve(t, mux, http.MethodDelete, "/api/v1/analysis", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSignals_LatestAndMissed(t *testing.T) {
	hub := gateway.NewHub(nil)
	ch := model.SignalChannel("BTC-USDT", model.Bar1H)
	for _, p := range []string{`{"score":1}`, `{"score":2}`, `{"score":3}`} {
		require.NoError(t, hub.Publish(context.Background(), ch, []byte(p)))
	}
	mux := NewRouter(analysis.New(flatSource{}, nil), hub)

	rec, body := serve(t, mux, http.MethodGet, "/api/v1/signals/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"score": float64(3)}, body[ch])

	rec, _ = serve(t, mux, http.MethodGet, "/api/v1/signals/missed?channel="+ch+"&from=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var envs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envs))
	require.Len(t, envs, 2)
	assert.Equal(t, float64(2), envs[0]["channel_seq"])

	rec, _ = serve(t, mux, http.MethodGet, "/api/v1/signals/missed?channel="+ch, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
