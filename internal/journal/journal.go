package journal

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Cycle records one pass of the collection loop: when it started, how it
// ended, and how many bars the scrape returned.
type Cycle struct {
	ID         int64     `json:"id"`
	Ticker     string    `json:"ticker"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	BarCount   int64     `json:"barCount"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}
