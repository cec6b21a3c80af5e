package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/mertkaradayi/tickerd/internal/metrics"
)

// Exporter appends a quote to the CSV file.
type Exporter interface {
	Append(q Quote) error
}

// Broadcaster pushes a quote to live stream subscribers.
type Broadcaster interface {
	Broadcast(q Quote)
}

type Service struct {
	repo        Repository
	exporter    Exporter
	broadcaster Broadcaster
}

func NewService(repo Repository, exporter Exporter, broadcaster Broadcaster) *Service {
	return &Service{
		repo:        repo,
		exporter:    exporter,
		broadcaster: broadcaster,
	}
}

// Record persists a freshly collected quote, appends it to the CSV file and
// notifies stream subscribers. The CSV gets a row per collection cycle; the
// database keeps one row per bar, so repeated bars (e.g. outside market
// hours) are ignored there.
func (s *Service) Record(ctx context.Context, q Quote) error {
	n, err := s.repo.SaveQuotes(ctx, []Quote{q})
	if err != nil {
		return fmt.Errorf("save quote: %w", err)
	}
	if n > 0 {
		metrics.QuotesSaved.Add(float64(n))
	}

	if err := s.exporter.Append(q); err != nil {
		return fmt.Errorf("append csv: %w", err)
	}

	metrics.LastPrice.WithLabelValues(q.Ticker).Set(q.CurrentPrice)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(q)
	}
	return nil
}

// Latest returns the most recently collected quote, or nil when nothing has
// been collected yet.
func (s *Service) Latest(ctx context.Context, ticker string) (*Quote, error) {
	return s.repo.Latest(ctx, ticker)
}

// History returns collected quotes for the requested window, newest last.
func (s *Service) History(ctx context.Context, ticker string, req HistoryRequest) ([]Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	to := req.To
	if to.IsZero() {
		to = time.Now().UTC()
	}

	quotes, err := s.repo.ListRange(ctx, ticker, req.From, to)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}
