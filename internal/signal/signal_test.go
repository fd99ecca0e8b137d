package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okx-analysis/internal/indicator"
)

var some = indicator.Some

func bullishSnapshot() indicator.Snapshot {
	return indicator.Snapshot{
		Price:    some(110),
		MA5:      some(105),
		MA10:     some(104),
		MA20:     some(100),
		RSI14:    some(55),
		MACDDif:  some(0.5),
		MACDDea:  some(0.3),
		MACDHist: some(0.4),
		PrevHist: some(0.2),
	}
}

func TestScore_AllBullish(t *testing.T) {
	r := Score(bullishSnapshot())

	// 4 MA rules + RSI偏强 + 3 MACD rules
	assert.Equal(t, 8, r.Score)
	assert.Equal(t, MaxScore, r.MaxScore)
	assert.Equal(t, []string{
		ReasonAboveMA5, ReasonAboveMA10, ReasonAboveMA20, ReasonMA5AboveMA10,
		ReasonRSIStrong, ReasonMACDGolden, ReasonHistPositive, ReasonHistRising,
	}, r.Reasons)
	assert.Equal(t, StrongBullish, r.Recommendation)
}

func TestScore_RSIBranches(t *testing.T) {
	cases := []struct {
		rsi    float64
		score  int
		reason string
	}{
		{25, 2, ReasonRSIOversold},
		{30, 0, ""},
		{45, 0, ""},
		{50, 0, ""},
		{50.01, 1, ReasonRSIStrong},
		{70, 1, ReasonRSIStrong},
		{75, -2, ReasonRSIOverbought},
	}
	for _, c := range cases {
		r := Score(indicator.Snapshot{RSI14: some(c.rsi)})
		assert.Equal(t, c.score, r.Score, "rsi=%v", c.rsi)
		if c.reason == "" {
			assert.Empty(t, r.Reasons, "rsi=%v", c.rsi)
		} else {
			assert.Equal(t, []string{c.reason}, r.Reasons, "rsi=%v", c.rsi)
		}
	}
}

func TestScore_OverboughtPullsScoreDown(t *testing.T) {
	s := bullishSnapshot()
	s.RSI14 = some(80)

	r := Score(s)
	// 4 + (-2) + 3
	assert.Equal(t, 5, r.Score)
	assert.Equal(t, ReasonRSIOverbought, r.Reasons[4])
	assert.Equal(t, ModeratelyBullish, r.Recommendation)
}

func TestScore_UndefinedInputsDoNotFire(t *testing.T) {
	r := Score(indicator.Snapshot{})
	assert.Equal(t, 0, r.Score)
	assert.Empty(t, r.Reasons)
	assert.Equal(t, Neutral, r.Recommendation)

	// Price known but all MAs still warming up.
	s := bullishSnapshot()
	s.MA5, s.MA10, s.MA20 = indicator.Undefined, indicator.Undefined, indicator.Undefined
	s.PrevHist = indicator.Undefined
	r = Score(s)
	assert.Equal(t, []string{ReasonRSIStrong, ReasonMACDGolden, ReasonHistPositive}, r.Reasons)
	assert.Equal(t, 3, r.Score)
}

func TestScore_FlatHistogramIsNotRising(t *testing.T) {
	s := bullishSnapshot()
	s.PrevHist = s.MACDHist
	r := Score(s)
	assert.NotContains(t, r.Reasons, ReasonHistRising)
	assert.Equal(t, 7, r.Score)
}

func TestScore_Bearish(t *testing.T) {
	r := Score(indicator.Snapshot{
		Price:    some(90),
		MA5:      some(95),
		MA10:     some(97),
		MA20:     some(100),
		RSI14:    some(72),
		MACDDif:  some(-0.4),
		MACDDea:  some(-0.1),
		MACDHist: some(-0.6),
		PrevHist: some(-0.3),
	})
	assert.Equal(t, -2, r.Score)
	assert.Equal(t, []string{ReasonRSIOverbought}, r.Reasons)
	assert.Equal(t, ModeratelyBearish, r.Recommendation)
}

func TestRecommend_Boundaries(t *testing.T) {
	cases := map[int]Recommendation{
		9:  StrongBullish,
		6:  StrongBullish,
		5:  ModeratelyBullish,
		3:  ModeratelyBullish,
		2:  Neutral,
		0:  Neutral,
		-1: ModeratelyBearish,
		-3: ModeratelyBearish,
		-4: StrongBearish,
		-5: StrongBearish,
	}
	for score, want := range cases {
		assert.Equal(t, want, Recommend(score), "score=%d", score)
	}
}

func TestReport_JSON(t *testing.T) {
	b, err := json.Marshal(Score(indicator.Snapshot{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0,"maxScore":10,"reasons":[],"recommendation":"neutral"}`, string(b))
}
