package quote

import (
	"errors"
	"time"
)

type HistoryRequest struct {
	From   time.Time
	To     time.Time
	Format string // "json" or "csv"
}

func (r HistoryRequest) Validate() error {
	if r.From.IsZero() {
		return errors.New("from is required")
	}
	if !r.To.IsZero() && r.To.Before(r.From) {
		return errors.New("to must not be before from")
	}
	if r.Format != "" && r.Format != "json" && r.Format != "csv" {
		return errors.New("format must be json or csv")
	}
	return nil
}
