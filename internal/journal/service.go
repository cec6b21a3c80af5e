package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotFound is returned when a cycle id does not exist.
var ErrNotFound = errors.New("cycle not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Begin opens a running cycle entry for the given ticker.
func (s *Service) Begin(ctx context.Context, ticker string) (*Cycle, error) {
	c := &Cycle{
		Ticker:    ticker,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("begin cycle: %w", err)
	}
	return c, nil
}

// Complete marks the cycle succeeded with the number of bars scraped.
func (s *Service) Complete(ctx context.Context, c *Cycle, barCount int) {
	c.Status = StatusSucceeded
	c.BarCount = int64(barCount)
	c.FinishedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		slog.Error("journal: update cycle", "cycle", c.ID, "error", err)
	}
}

// Fail marks the cycle failed with the error text.
func (s *Service) Fail(ctx context.Context, c *Cycle, cause error) {
	c.Status = StatusFailed
	c.Error = cause.Error()
	c.FinishedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		slog.Error("journal: update cycle", "cycle", c.ID, "error", err)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Cycle, error) {
	if id <= 0 {
		return nil, errors.New("cycle id must be positive")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, ticker string) ([]Cycle, error) {
	return s.repo.List(ctx, ticker, 100)
}

// RecoverInterrupted fails cycles a previous process left running. Called
// once at startup before the loop begins.
func (s *Service) RecoverInterrupted(ctx context.Context) error {
	n, err := s.repo.MarkInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("recover interrupted cycles: %w", err)
	}
	if n > 0 {
		slog.Info("recovered interrupted cycles", "count", n)
	}
	return nil
}
