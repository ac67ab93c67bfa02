package model

// SignalType names the setup a rule detected.
type SignalType string

const (
	SignalBottomBreakout    SignalType = "Bottom Breakout"
	SignalGoldenCross       SignalType = "Golden Cross"
	SignalSevereOversold    SignalType = "Severe Oversold"
	SignalTopDeathCross     SignalType = "Top Death Cross"
	SignalExtremeOverbought SignalType = "Extreme Overbought"
	SignalWhaleInflow       SignalType = "Whale Inflow"
	SignalPanicSell         SignalType = "Panic Sell"
	SignalBreakout          SignalType = "Breakout"
	SignalWatching          SignalType = "Watching"
)

// Action is the suggested reaction to a signal.
type Action string

const (
	ActionStrongBuy  Action = "Strong Buy"
	ActionBuy        Action = "Buy"
	ActionWatch      Action = "Watch"
	ActionStrongSell Action = "Strong Sell"
	ActionReduce     Action = "Reduce"
	ActionSell       Action = "Sell"
	ActionHold       Action = "Hold"
)

// SignalBody is the classification result for one snapshot.
type SignalBody struct {
	Type   SignalType
	Action Action
	Score  int
	Detail string
}

// SignalStats carries display-formatted indicator values.
type SignalStats struct {
	RSI      string `json:"rsi"`
	VolRatio string `json:"vol_ratio"`
	High24h  string `json:"high_24h"`
	Low24h   string `json:"low_24h"`
}

// Signal is the final per-instrument output of one analysis pass.
type Signal struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	AssetType  AssetType   `json:"asset_type"`
	Price      string      `json:"price"`
	SignalType SignalType  `json:"signal_type"`
	Action     Action      `json:"action"`
	Detail     string      `json:"detail"`
	Score      int         `json:"score"`
	Narrative  string      `json:"narrative"`
	Sparkline  []float64   `json:"sparkline"`
	Stats      SignalStats `json:"stats"`
}
