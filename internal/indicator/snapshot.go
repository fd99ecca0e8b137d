package indicator

// Snapshot holds every indicator reading at a single index, plus the
// preceding MACD readings needed for momentum and crossover checks.
type Snapshot struct {
	Price    Value `json:"price"`
	MA5      Value `json:"ma5"`
	MA10     Value `json:"ma10"`
	MA20     Value `json:"ma20"`
	RSI14    Value `json:"rsi"`
	MACDDif  Value `json:"macdDif"`
	MACDDea  Value `json:"macdDea"`
	MACDHist Value `json:"macdHist"`

	PrevDif  Value `json:"-"`
	PrevDea  Value `json:"-"`
	PrevHist Value `json:"-"`
}
