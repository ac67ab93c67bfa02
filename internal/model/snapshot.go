package model

import "time"

const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
)

// TopMover is an instrument with an outsized daily move.
type TopMover struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Change24h string    `json:"change_24h"`
	Type      AssetType `json:"type"`
}

// MarketSnapshot is the aggregate result of one analysis pass.
type MarketSnapshot struct {
	GeneratedAt    time.Time  `json:"generated_at"`
	Status         string     `json:"status"`
	SentimentValue int        `json:"sentiment_value"`
	SentimentLabel string     `json:"sentiment_label"`
	MarketMood     int        `json:"market_mood"`
	Headline       string     `json:"headline"`
	Body           string     `json:"body"`
	Signals        []Signal   `json:"signals"`
	TopMovers      []TopMover `json:"top_movers"`
}

// Top returns the highest ranked signal, or nil when there are none.
func (s *MarketSnapshot) Top() *Signal {
	if s == nil || len(s.Signals) == 0 {
		return nil
	}
	return &s.Signals[0]
}
