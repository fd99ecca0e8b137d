// Package signal turns the latest indicator readings into a composite
// buy/sell score and a categorical recommendation.
//
// Rules are evaluated in a fixed order and may fire independently. A rule
// whose inputs are undefined does not fire.
package signal

import (
	"okx-analysis/internal/indicator"
)

// MaxScore is the display denominator reported alongside every score. The
// rules below top out at 9, but consumers render "score/10".
// TODO: align with the attainable maximum once downstream renderers stop
// hard-coding the /10 scale.
const MaxScore = 10

// Recommendation is one of five ordered outlooks.
type Recommendation string

const (
	StrongBullish     Recommendation = "strong bullish"
	ModeratelyBullish Recommendation = "moderately bullish"
	Neutral           Recommendation = "neutral"
	ModeratelyBearish Recommendation = "moderately bearish"
	StrongBearish     Recommendation = "strong bearish"
)

// Rule reason labels, in evaluation order.
const (
	ReasonAboveMA5      = "价格>MA5"
	ReasonAboveMA10     = "价格>MA10"
	ReasonAboveMA20     = "价格>MA20"
	ReasonMA5AboveMA10  = "MA5>MA10"
	ReasonRSIOversold   = "RSI超卖"
	ReasonRSIOverbought = "RSI超买"
	ReasonRSIStrong     = "RSI偏强"
	ReasonMACDGolden    = "MACD金叉"
	ReasonHistPositive  = "MACD柱>0"
	ReasonHistRising    = "MACD增强"
)

// RSI thresholds.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
	RSIMidline    = 50.0
)

// Report is the scorer output.
type Report struct {
	Score          int            `json:"score"`
	MaxScore       int            `json:"maxScore"`
	Reasons        []string       `json:"reasons"`
	Recommendation Recommendation `json:"recommendation"`
}

// Score evaluates the rule set against a snapshot.
func Score(s indicator.Snapshot) Report {
	score := 0
	reasons := make([]string, 0, 8)
	fire := func(weight int, reason string) {
		score += weight
		reasons = append(reasons, reason)
	}

	// MA trend
	if s.Price.Greater(s.MA5) {
		fire(1, ReasonAboveMA5)
	}
	if s.Price.Greater(s.MA10) {
		fire(1, ReasonAboveMA10)
	}
	if s.Price.Greater(s.MA20) {
		fire(1, ReasonAboveMA20)
	}
	if s.MA5.Greater(s.MA10) {
		fire(1, ReasonMA5AboveMA10)
	}

	// RSI: mutually exclusive branches
	if rsi := s.RSI14; rsi.OK {
		switch {
		case rsi.V < RSIOversold:
			fire(2, ReasonRSIOversold)
		case rsi.V > RSIOverbought:
			fire(-2, ReasonRSIOverbought)
		case rsi.V > RSIMidline:
			fire(1, ReasonRSIStrong)
		}
	}

	// MACD
	if s.MACDDif.Greater(s.MACDDea) {
		fire(1, ReasonMACDGolden)
	}
	if s.MACDHist.Greater(indicator.Some(0)) {
		fire(1, ReasonHistPositive)
	}
	if s.MACDHist.Greater(s.PrevHist) {
		fire(1, ReasonHistRising)
	}

	return Report{
		Score:          score,
		MaxScore:       MaxScore,
		Reasons:        reasons,
		Recommendation: Recommend(score),
	}
}

// Recommend maps a score to its outlook, highest band first.
func Recommend(score int) Recommendation {
	switch {
	case score >= 6:
		return StrongBullish
	case score >= 3:
		return ModeratelyBullish
	case score >= 0:
		return Neutral
	case score >= -3:
		return ModeratelyBearish
	default:
		return StrongBearish
	}
}
