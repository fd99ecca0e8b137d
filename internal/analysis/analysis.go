// Package analysis runs one of the indicator actions for an instrument:
// fetch candles, compute the indicator set, and shape the latest readings
// into a result with a one-line summary.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"okx-analysis/internal/indicator"
	"okx-analysis/internal/logger"
	"okx-analysis/internal/metrics"
	"okx-analysis/internal/model"
	"okx-analysis/internal/signal"
)

var (
	// ErrUnknownAction is returned for an action outside Actions. No candles
	// are fetched.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream wraps candle source failures.
	ErrUpstream = errors.New("upstream error")
)

// recentKlines is how many candles the kline action echoes back.
const recentKlines = 10

// Analyzer executes analysis requests against a candle source.
type Analyzer struct {
	source  model.CandleSource
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates an Analyzer. m may be nil.
func New(source model.CandleSource, m *metrics.Metrics) *Analyzer {
	return &Analyzer{source: source, metrics: m, now: time.Now}
}

// Run executes req. Every failure, including a panic inside the pipeline, is
// returned as an unsuccessful Result rather than an error.
func (a *Analyzer) Run(ctx context.Context, req Request) (res Result) {
	start := a.now()
	verr := req.Normalize()

	if logger.TraceID(ctx) == "" {
		ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(req.InstID, req.Bar, start))
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis panic", append(logger.LogWithTrace(ctx), "panic", fmt.Sprint(r))...)
			res = failure(fmt.Errorf("internal error: %v", r))
		}
		a.observe(req.Action, res, start)
	}()

	if verr != nil {
		slog.Warn("rejected analysis request", append(logger.LogWithTrace(ctx), "action", string(req.Action), "error", verr)...)
		return failure(verr)
	}

	candles, err := a.source.FetchCandles(ctx, req.InstID, req.BarValue(), req.Limit)
	if err != nil {
		slog.Error("candle fetch failed", append(logger.LogWithTrace(ctx),
			"inst_id", req.InstID, "bar", req.Bar, "limit", req.Limit, "error", err)...)
		return failure(fmt.Errorf("%w: %v", ErrUpstream, err))
	}

	slog.Debug("candles fetched", append(logger.LogWithTrace(ctx),
		"inst_id", req.InstID, "bar", req.Bar, "count", len(candles))...)

	switch req.Action {
	case ActionKline:
		return klineResult(req, candles)
	}

	set := indicator.Compute(candles)
	snap := set.Latest()

	switch req.Action {
	case ActionMA:
		return maResult(req, snap)
	case ActionRSI:
		return rsiResult(req, snap)
	case ActionMACD:
		return macdResult(req, snap)
	default:
		data := SignalAt(req.InstID, req.BarValue(), candles, set, set.Len()-1)
		if a.metrics != nil {
			a.metrics.Recommendation.WithLabelValues(string(data.Recommendation)).Inc()
			a.metrics.LastScore.WithLabelValues(req.InstID, req.Bar).Set(float64(data.Score))
		}
		return Result{
			Success: true,
			Data:    data,
			Summary: fmt.Sprintf("%s score: %d/%d, %s", req.InstID, data.Score, data.MaxScore, data.Recommendation),
		}
	}
}

func (a *Analyzer) observe(action Action, res Result, start time.Time) {
	if a.metrics == nil {
		return
	}
	label := string(action)
	if !action.valid() {
		label = "unknown"
	}
	status := "ok"
	if !res.Success {
		status = "error"
	}
	a.metrics.AnalysisDur.WithLabelValues(label).Observe(a.now().Sub(start).Seconds())
	a.metrics.AnalysisTotal.WithLabelValues(label, status).Inc()
}

func failure(err error) Result {
	return Result{Success: false, Error: err.Error(), Err: err}
}

// SignalAt scores the snapshot at index i of set. Indicator values at i
// depend only on candles[0..i], so a single Compute over a full history
// yields the same report a live run would have produced at that bar.
func SignalAt(instID string, bar model.Bar, candles []model.Candle, set indicator.Set, i int) SignalData {
	snap := set.At(i)
	var ts int64
	if i >= 0 && i < len(candles) {
		ts = candles[i].TS
	}
	return SignalData{
		InstID: instID,
		Bar:    bar,
		TS:     ts,
		Price:  snap.Price,
		Report: signal.Score(snap),
		Indicators: Indicators{
			MA5:      snap.MA5,
			MA10:     snap.MA10,
			MA20:     snap.MA20,
			RSI:      snap.RSI14,
			MACDDif:  snap.MACDDif,
			MACDDea:  snap.MACDDea,
			MACDHist: snap.MACDHist,
		},
	}
}

func klineResult(req Request, candles []model.Candle) Result {
	recent := make([]model.Candle, 0, recentKlines)
	recent = append(recent, candles[max(0, len(candles)-recentKlines):]...)
	data := KlineData{
		InstID: req.InstID,
		Bar:    req.BarValue(),
		Count:  len(candles),
		Klines: recent,
	}
	summary := fmt.Sprintf("%s %s klines: no candles", req.InstID, req.Bar)
	if n := len(candles); n > 0 {
		latest := candles[n-1]
		data.Latest = &latest
		summary = fmt.Sprintf("%s %s klines: latest %s, %d candles",
			req.InstID, req.Bar, indicator.Some(latest.Close), n)
	}
	return Result{Success: true, Data: data, Summary: summary}
}

func maResult(req Request, s indicator.Snapshot) Result {
	data := MAData{
		InstID: req.InstID,
		Price:  s.Price,
		MA5:    s.MA5,
		MA10:   s.MA10,
		MA20:   s.MA20,
		Trend:  Trend(s),
	}
	return Result{
		Success: true,
		Data:    data,
		Summary: fmt.Sprintf("%s: price %s, MA5=%s, MA10=%s, MA20=%s, %s",
			req.InstID, s.Price, s.MA5, s.MA10, s.MA20, data.Trend),
	}
}

func rsiResult(req Request, s indicator.Snapshot) Result {
	data := RSIData{
		InstID: req.InstID,
		RSI:    s.RSI14,
		Signal: RSILabel(s.RSI14),
	}
	return Result{
		Success: true,
		Data:    data,
		Summary: fmt.Sprintf("%s RSI(%d): %s, %s", req.InstID, indicator.PeriodRSI, s.RSI14, data.Signal),
	}
}

func macdResult(req Request, s indicator.Snapshot) Result {
	data := MACDData{
		InstID: req.InstID,
		DIF:    s.MACDDif,
		DEA:    s.MACDDea,
		MACD:   s.MACDHist,
		Signal: MACDLabel(s),
	}
	return Result{
		Success: true,
		Data:    data,
		Summary: fmt.Sprintf("%s MACD: DIF=%s, DEA=%s, MACD=%s, %s",
			req.InstID, s.MACDDif, s.MACDDea, s.MACDHist, data.Signal),
	}
}
