package model

import "fmt"

// Bar is an OKX candle timeframe identifier.
type Bar string

const (
	Bar1m  Bar = "1m"
	Bar5m  Bar = "5m"
	Bar15m Bar = "15m"
	Bar30m Bar = "30m"
	Bar1H  Bar = "1H"
	Bar4H  Bar = "4H"
	Bar1D  Bar = "1D"
)

// MaxCandleLimit is the largest page the market-data endpoint serves.
const MaxCandleLimit = 300

// Bars lists every supported timeframe, shortest first.
var Bars = []Bar{Bar1m, Bar5m, Bar15m, Bar30m, Bar1H, Bar4H, Bar1D}

// ParseBar validates a timeframe string.
func ParseBar(s string) (Bar, error) {
	for _, b := range Bars {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported bar %q", s)
}

// Seconds returns the bucket width in seconds.
func (b Bar) Seconds() int {
	switch b {
	case Bar1m:
		return 60
	case Bar5m:
		return 300
	case Bar15m:
		return 900
	case Bar30m:
		return 1800
	case Bar1H:
		return 3600
	case Bar4H:
		return 14400
	case Bar1D:
		return 86400
	}
	return 0
}

// Key returns "instId:bar", the identity used for caches and channels.
func Key(instID string, bar Bar) string {
	return instID + ":" + string(bar)
}

// SignalChannel names the channel an instrument's signal reports are
// published on, e.g. "pub:signal:BTC-USDT:1H".
func SignalChannel(instID string, bar Bar) string {
	return "pub:signal:" + instID + ":" + string(bar)
}
