package journal

import "context"

type Repository interface {
	Create(ctx context.Context, c *Cycle) error
	Update(ctx context.Context, c *Cycle) error
	Get(ctx context.Context, id int64) (*Cycle, error)
	List(ctx context.Context, ticker string, limit int) ([]Cycle, error)
	// MarkInterrupted fails every cycle still marked running, returning the
	// number of rows touched. Called once at startup.
	MarkInterrupted(ctx context.Context) (int64, error)
}
