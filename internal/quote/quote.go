package quote

import (
	"encoding/json"
	"math"
	"time"
)

// Indicator is a derived value such as RSI or a moving average. It is NaN
// until enough bars exist to compute it; NaN marshals as JSON null so API
// clients see a missing value instead of a bogus number.
type Indicator float64

func (v Indicator) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(v)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

func (v *Indicator) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Indicator(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Indicator(f)
	return nil
}

// Defined reports whether the indicator could be computed.
func (v Indicator) Defined() bool { return !math.IsNaN(float64(v)) }

// Quote is one collected snapshot: the most recent intraday bar for the
// ticker, decorated with technical indicators computed over the bars that
// preceded it.
type Quote struct {
	ID           int64     `json:"id"`
	Ticker       string    `json:"ticker"`
	Timestamp    time.Time `json:"timestamp"`
	CurrentPrice float64   `json:"currentPrice"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
	RSI          Indicator `json:"rsi"`
	SMA10        Indicator `json:"sma10"`
	SMA50        Indicator `json:"sma50"`
	SMA200       Indicator `json:"sma200"`
	CreatedAt    time.Time `json:"createdAt"`
}
