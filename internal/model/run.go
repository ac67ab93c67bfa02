package model

import "time"

// Outcome is what happened to one instrument during a run.
type Outcome string

const (
	OutcomeSignal       Outcome = "signal"
	OutcomeInsufficient Outcome = "insufficient_data"
	OutcomeFailed       Outcome = "failed"
)

// InstrumentOutcome records the result of analyzing one instrument.
type InstrumentOutcome struct {
	Symbol    string
	AssetType AssetType
	Outcome   Outcome
	Reason    string
	Score     int
}

// RunReport summarizes one analysis pass for auditing.
type RunReport struct {
	ID                 string
	StartedAt          time.Time
	FinishedAt         time.Time
	Instruments        int
	Signals            int
	Skipped            int
	Failed             int
	FetchFailures      int
	SentimentFallback  bool
	VolatilityFallback bool
	Outcomes           []InstrumentOutcome
}

// Degraded reports whether any fallback fired or any instrument failed.
func (r *RunReport) Degraded() bool {
	return r.SentimentFallback || r.VolatilityFallback || r.Failed > 0
}
