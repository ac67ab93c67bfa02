package recorder

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       string    `json:"status"`
	Instruments  int       `json:"instruments"`
	Signals      int       `json:"signals"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	MarketMood   int       `json:"market_mood"`
	Sentiment    int       `json:"sentiment_value"`
	TopSymbol    string    `json:"top_symbol"`
	TopScore     int       `json:"top_score"`
	ErrorMessage string    `json:"error,omitempty"`
}

// Recorder persists the audit trail of analysis runs.
type Recorder interface {
	// RecordRun stores report and the headline figures of snap. snap is nil
	// when the run failed; runErr then describes why.
	RecordRun(ctx context.Context, report *model.RunReport, snap *model.MarketSnapshot, runErr error) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}
