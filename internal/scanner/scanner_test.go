package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okx-analysis/internal/analysis"
	"okx-analysis/internal/metrics"
	"okx-analysis/internal/model"
)

type stubRunner struct {
	fail map[string]bool
}

func (r *stubRunner) Run(ctx context.Context, req analysis.Request) analysis.Result {
	if r.fail[req.InstID] {
		return analysis.Result{Error: "upstream error: boom"}
	}
	return analysis.Result{Success: true, Data: map[string]any{"instId": req.InstID, "score": 3}}
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs map[string][]byte
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.msgs == nil {
		p.msgs = make(map[string][]byte)
	}
	p.msgs[channel] = payload
	return p.err
}

func TestParseWatchlist_AppliesDefaults(t *testing.T) {
	reqs, err := ParseWatchlist([]byte(`
entries:
  - instId: BTC-USDT
  - instId: ETH-USDT
    bar: 4H
    limit: 200
`))
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, analysis.Request{Action: analysis.ActionSignal, InstID: "BTC-USDT", Bar: "1H", Limit: 100}, reqs[0])
	assert.Equal(t, analysis.Request{Action: analysis.ActionSignal, InstID: "ETH-USDT", Bar: "4H", Limit: 200}, reqs[1])
}

func TestParseWatchlist_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing instId": "entries:\n  - bar: 1H\n",
		"bad bar":        "entries:\n  - instId: BTC-USDT\n    bar: 2H\n",
		"limit too high": "entries:\n  - instId: BTC-USDT\n    limit: 500\n",
		"duplicate":      "entries:\n  - instId: BTC-USDT\n  - instId: BTC-USDT\n    bar: 1H\n",
		"not yaml":       "entries: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseWatchlist([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadWatchlist_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - instId: SOL-USDT\n    bar: 15m\n"), 0o644))

	reqs, err := LoadWatchlist(path)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, model.Bar15m, reqs[0].BarValue())

	_, err = LoadWatchlist(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScanOnce_PublishesAndSkipsFailures(t *testing.T) {
	watch := []analysis.Request{
		{Action: analysis.ActionSignal, InstID: "BTC-USDT", Bar: "1H", Limit: 100},
		{Action: analysis.ActionSignal, InstID: "BAD-USDT", Bar: "1H", Limit: 100},
		{Action: analysis.ActionSignal, InstID: "ETH-USDT", Bar: "4H", Limit: 100},
	}
	pubA := &recordingPublisher{}
	pubB := &recordingPublisher{err: errors.New("redis down")}
	m := metrics.New(prometheus.NewRegistry())
	health := metrics.NewHealthStatus()

	s := New(&stubRunner{fail: map[string]bool{"BAD-USDT": true}}, watch, time.Minute, m, health, pubA, pubB)
	n := s.ScanOnce(context.Background())

	assert.Equal(t, 2, n)
	require.Len(t, pubA.msgs, 2)
	assert.Len(t, pubB.msgs, 2, "a failing publisher does not stop the others")

	var body map[string]any
	require.NoError(t, json.Unmarshal(pubA.msgs["pub:signal:ETH-USDT:4H"], &body))
	assert.Equal(t, "ETH-USDT", body["instId"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanRuns))
	assert.Equal(t, 3, health.Watchlist)
	assert.False(t, health.LastScanAt.IsZero())
}

func TestRun_StopsOnCancel(t *testing.T) {
	watch := []analysis.Request{{Action: analysis.ActionSignal, InstID: "BTC-USDT", Bar: "1H", Limit: 100}}
	pub := &recordingPublisher{}
	s := New(&stubRunner{}, watch, 10*time.Millisecond, nil, nil, pub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Contains(t, pub.msgs, "pub:signal:BTC-USDT:1H")
}
