package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/mertkaradayi/tickerd/internal/journal"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *domain.Cycle) error {
	const query = `INSERT INTO cycles (ticker, status, started_at) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		c.Ticker, string(c.Status), c.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create cycle: %w", err)
	}

	c.ID, _ = res.LastInsertId()
	return nil
}

func (r *Repository) Update(ctx context.Context, c *domain.Cycle) error {
	const query = `UPDATE cycles SET status = ?, error = ?, bar_count = ?, finished_at = ?
		WHERE id = ?`

	var finished any
	if !c.FinishedAt.IsZero() {
		finished = c.FinishedAt.UTC().Format(time.RFC3339)
	}

	_, err := r.db.ExecContext(ctx, query,
		string(c.Status), c.Error, c.BarCount, finished, c.ID)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Cycle, error) {
	const query = `SELECT id, ticker, status, error, bar_count, started_at, finished_at
		FROM cycles WHERE id = ?`

	c, err := scanCycle(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cycle: %w", err)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, ticker string, limit int) ([]domain.Cycle, error) {
	query := `SELECT id, ticker, status, error, bar_count, started_at, finished_at
		FROM cycles WHERE 1=1`

	var args []any
	if ticker != "" {
		query += " AND ticker = ?"
		args = append(args, ticker)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cycles []domain.Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, *c)
	}

	return cycles, rows.Err()
}

func (r *Repository) MarkInterrupted(ctx context.Context) (int64, error) {
	const query = `UPDATE cycles SET status = ?, error = 'interrupted',
		finished_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE status = ?`

	res, err := r.db.ExecContext(ctx, query,
		string(domain.StatusFailed), string(domain.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("mark interrupted cycles: %w", err)
	}

	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(row scanner) (*domain.Cycle, error) {
	c := &domain.Cycle{}
	var status, startedStr string
	var errStr, finishedStr sql.NullString

	err := row.Scan(&c.ID, &c.Ticker, &status, &errStr, &c.BarCount, &startedStr, &finishedStr)
	if err != nil {
		return nil, err
	}

	c.Status = domain.Status(status)
	if errStr.Valid {
		c.Error = errStr.String
	}
	c.StartedAt, err = time.Parse(time.RFC3339, startedStr)
	if err != nil {
		return nil, fmt.Errorf("parse cycle started_at: %w", err)
	}
	if finishedStr.Valid {
		c.FinishedAt, err = time.Parse(time.RFC3339, finishedStr.String)
		if err != nil {
			return nil, fmt.Errorf("parse cycle finished_at: %w", err)
		}
	}
	return c, nil
}
