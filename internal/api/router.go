// Package api exposes the analysis service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"okx-analysis/internal/analysis"
	"okx-analysis/internal/gateway"
)

// Runner executes one analysis request.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) analysis.Result
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// NewRouter sets up HTTP routes for the API server. hub may be nil, which
// disables the websocket and report endpoints.
func NewRouter(runner Runner, hub *gateway.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// GET /api/v1/analysis?action=signal&instId=BTC-USDT&bar=1H&limit=100
	// POST /api/v1/analysis with the same fields as a JSON body
	mux.HandleFunc("/api/v1/analysis", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		var req analysis.Request
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
			return
		case http.MethodGet:
			q := r.URL.Query()
			req.Action = analysis.Action(q.Get("action"))
			req.InstID = q.Get("instId")
			req.Bar = q.Get("bar")
			if s := q.Get("limit"); s != "" {
				n, err := strconv.Atoi(s)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, analysis.Result{Error: "limit must be an integer"})
					return
				}
				req.Limit = n
			}
		case http.MethodPost:
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, analysis.Result{Error: "invalid JSON"})
				return
			}
		default:
			writeJSON(w, http.StatusMethodNotAllowed, analysis.Result{Error: "method not allowed"})
			return
		}

		res := runner.Run(r.Context(), req)
		writeJSON(w, statusFor(res), res)
	})

	if hub != nil {
		mux.Handle("/ws", hub)

		// Latest report per channel
		mux.HandleFunc("/api/v1/signals/latest", func(w http.ResponseWriter, r *http.Request) {
			SetCORS(w)
			writeJSON(w, http.StatusOK, hub.GetLatestAll())
		})

		// GET /api/v1/signals/missed?channel=pub:signal:BTC-USDT:1H&from=3[&to=9]
		mux.HandleFunc("/api/v1/signals/missed", func(w http.ResponseWriter, r *http.Request) {
			SetCORS(w)
			q := r.URL.Query()
			channel := q.Get("channel")
			from, err := strconv.ParseInt(q.Get("from"), 10, 64)
			if channel == "" || err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "channel and from are required"})
				return
			}
			to := hub.ChannelSeq(channel)
			if s := q.Get("to"); s != "" {
				if to, err = strconv.ParseInt(s, 10, 64); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be an integer"})
					return
				}
			}
			envs := hub.GetReplayRange(channel, from, to)
			out := make([]json.RawMessage, len(envs))
			for i, e := range envs {
				out[i] = e
			}
			writeJSON(w, http.StatusOK, out)
		})
	}

	return mux
}

// statusFor maps a result to its HTTP status.
func statusFor(res analysis.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case errors.Is(res.Err, analysis.ErrInvalidRequest), errors.Is(res.Err, analysis.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(res.Err, analysis.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}
