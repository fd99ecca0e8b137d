package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okx-analysis/internal/model"
)

func openTemp(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "archive.db")
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestOpen_ParentIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Open(filepath.Join(blocker, "archive.db"))
	assert.ErrorContains(t, err, "sqlite dir")
}

func TestArchive_SaveAndReadOrdered(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	// saved out of order, read back oldest first
	in := []model.Candle{
		{TS: 3000, Open: 3, High: 3.5, Low: 2.5, Close: 3.2, Volume: 30},
		{TS: 1000, Open: 1, High: 1.5, Low: 0.5, Close: 1.2, Volume: 10},
		{TS: 2000, Open: 2, High: 2.5, Low: 1.5, Close: 2.2, Volume: 20},
	}
	require.NoError(t, a.SaveCandles(ctx, "BTC-USDT", model.Bar1H, in))

	got, err := a.ReadCandles(ctx, "BTC-USDT", model.Bar1H, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, in[1], got[0])
	assert.Equal(t, in[2], got[1])
	assert.Equal(t, in[0], got[2])

	after, err := a.ReadCandles(ctx, "BTC-USDT", model.Bar1H, 1000)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestArchive_UpsertReplacesSameTimestamp(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	require.NoError(t, a.SaveCandles(ctx, "BTC-USDT", model.Bar1H, []model.Candle{{TS: 1000, Close: 1}}))
	require.NoError(t, a.SaveCandles(ctx, "BTC-USDT", model.Bar1H, []model.Candle{{TS: 1000, Close: 2}}))

	n, err := a.Count(ctx, "BTC-USDT", model.Bar1H)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := a.ReadCandles(ctx, "BTC-USDT", model.Bar1H, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got[0].Close)
}

func TestArchive_SeparatesInstrumentsAndBars(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	require.NoError(t, a.SaveCandles(ctx, "BTC-USDT", model.Bar1H, []model.Candle{{TS: 1000, Close: 1}}))
	require.NoError(t, a.SaveCandles(ctx, "BTC-USDT", model.Bar4H, []model.Candle{{TS: 1000, Close: 2}}))
	require.NoError(t, a.SaveCandles(ctx, "ETH-USDT", model.Bar1H, []model.Candle{{TS: 1000, Close: 3}}))

	got, err := a.ReadCandles(ctx, "BTC-USDT", model.Bar4H, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Close)

	empty, err := a.ReadCandles(ctx, "SOL-USDT", model.Bar1H, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, a.SaveCandles(ctx, "SOL-USDT", model.Bar1H, nil))
}

type staticSource []model.Candle

func (s staticSource) FetchCandles(ctx context.Context, instID string, bar model.Bar, limit int) ([]model.Candle, error) {
	return s, nil
}

func TestRecorder_ArchivesFetches(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()
	src := staticSource{{TS: 1000, Close: 1}, {TS: 2000, Close: 2}}

	got, err := NewRecorder(src, a).FetchCandles(ctx, "BTC-USDT", model.Bar1H, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	n, err := a.Count(ctx, "BTC-USDT", model.Bar1H)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
