package quote

import (
	"context"
	"time"
)

type Repository interface {
	SaveQuotes(ctx context.Context, quotes []Quote) (int64, error)
	Latest(ctx context.Context, ticker string) (*Quote, error)
	ListRange(ctx context.Context, ticker string, from, to time.Time) ([]Quote, error)
}
