package strategy

import "MarketPulse/internal/model"

// Classification thresholds. These are calibrated constants; changing any of
// them changes observable classifications.
const (
	OversoldRSI      = 35.0
	OverboughtRSI    = 75.0
	BreakoutVolume   = 1.5
	VolumeSpikeRatio = 2.5
	HighConviction   = 85
)

// Rule is one row of the classification table.
type Rule struct {
	Name  string
	Match func(s *model.IndicatorSnapshot) bool
	Body  model.SignalBody
}

// Rules is the priority-ordered classification table. The first matching
// rule wins; later rules are never consulted once one matches.
var Rules = []Rule{
	{
		Name: "oversold golden cross on volume",
		Match: func(s *model.IndicatorSnapshot) bool {
			return s.RSI < OversoldRSI && s.MACD > s.MACDSignal && s.VolumeRatio > BreakoutVolume
		},
		Body: model.SignalBody{Type: model.SignalBottomBreakout, Action: model.ActionStrongBuy, Score: 98, Detail: "golden-cross + volume + oversold"},
	},
	{
		Name: "oversold golden cross",
		Match: func(s *model.IndicatorSnapshot) bool {
			return s.RSI < OversoldRSI && s.MACD > s.MACDSignal
		},
		Body: model.SignalBody{Type: model.SignalGoldenCross, Action: model.ActionBuy, Score: 88, Detail: "oversold reversal"},
	},
	{
		Name:  "oversold",
		Match: func(s *model.IndicatorSnapshot) bool { return s.RSI < OversoldRSI },
		Body:  model.SignalBody{Type: model.SignalSevereOversold, Action: model.ActionWatch, Score: 75, Detail: "awaiting confirmation"},
	},
	{
		Name: "overbought death cross",
		Match: func(s *model.IndicatorSnapshot) bool {
			return s.RSI > OverboughtRSI && s.MACD < s.MACDSignal
		},
		Body: model.SignalBody{Type: model.SignalTopDeathCross, Action: model.ActionStrongSell, Score: 90, Detail: "momentum exhaustion"},
	},
	{
		Name:  "overbought",
		Match: func(s *model.IndicatorSnapshot) bool { return s.RSI > OverboughtRSI },
		Body:  model.SignalBody{Type: model.SignalExtremeOverbought, Action: model.ActionReduce, Score: 80, Detail: "RSI at high extreme"},
	},
	{
		Name: "volume spike up",
		Match: func(s *model.IndicatorSnapshot) bool {
			return s.VolumeRatio > VolumeSpikeRatio && s.CurrentClose > s.PreviousClose
		},
		Body: model.SignalBody{Type: model.SignalWhaleInflow, Action: model.ActionBuy, Score: 85, Detail: "volume spike, price up"},
	},
	{
		Name:  "volume spike down",
		Match: func(s *model.IndicatorSnapshot) bool { return s.VolumeRatio > VolumeSpikeRatio },
		Body:  model.SignalBody{Type: model.SignalPanicSell, Action: model.ActionSell, Score: 82, Detail: "volume spike, price down"},
	},
	{
		Name:  "upper band breakout",
		Match: func(s *model.IndicatorSnapshot) bool { return s.CurrentClose > s.BollingerUpper },
		Body:  model.SignalBody{Type: model.SignalBreakout, Action: model.ActionHold, Score: 70, Detail: "upper-band breakout"},
	},
}

// DefaultBody is returned when no rule matches.
var DefaultBody = model.SignalBody{Type: model.SignalWatching, Action: model.ActionHold, Score: 50, Detail: "choppy / no edge"}

// Classify returns the body of the first rule matching snap.
func Classify(snap *model.IndicatorSnapshot) model.SignalBody {
	body, _ := match(snap)
	return body
}

// match returns the winning body and its index in Rules, -1 for the default.
func match(snap *model.IndicatorSnapshot) (model.SignalBody, int) {
	for i, r := range Rules {
		if r.Match(snap) {
			return r.Body, i
		}
	}
	return DefaultBody, -1
}
