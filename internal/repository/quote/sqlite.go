package quote

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	domain "github.com/mertkaradayi/tickerd/internal/quote"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveQuotes inserts quotes, ignoring rows whose (ticker, ts) already exist.
// Indicators that are NaN are stored as NULL.
func (r *Repository) SaveQuotes(ctx context.Context, quotes []domain.Quote) (int64, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	const batchSize = 500
	var total int64

	for i := 0; i < len(quotes); i += batchSize {
		end := min(i+batchSize, len(quotes))
		batch := quotes[i:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*12)
		for j, q := range batch {
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args,
				q.Ticker, q.Timestamp.UTC().Format(time.RFC3339),
				q.CurrentPrice, q.Open, q.High, q.Low, q.Close, q.Volume,
				nullIndicator(q.RSI), nullIndicator(q.SMA10),
				nullIndicator(q.SMA50), nullIndicator(q.SMA200),
			)
		}

		query := fmt.Sprintf(
			"INSERT OR IGNORE INTO quotes (ticker, ts, current_price, open, high, low, close, volume, rsi, sma10, sma50, sma200) VALUES %s",
			strings.Join(placeholders, ", "),
		)

		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("save quotes: %w", err)
		}

		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

const selectColumns = `id, ticker, ts, current_price, open, high, low, close, volume,
	rsi, sma10, sma50, sma200, created_at`

func (r *Repository) Latest(ctx context.Context, ticker string) (*domain.Quote, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE ticker = ? ORDER BY ts DESC LIMIT 1`, selectColumns)

	q, err := scanQuote(r.db.QueryRowContext(ctx, query, ticker))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest quote: %w", err)
	}
	return q, nil
}

func (r *Repository) ListRange(ctx context.Context, ticker string, from, to time.Time) ([]domain.Quote, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes
		WHERE ticker = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC`, selectColumns)

	rows, err := r.db.QueryContext(ctx, query, ticker,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var quotes []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}

	return quotes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (*domain.Quote, error) {
	var q domain.Quote
	var tsStr, createdStr string
	var rsi, sma10, sma50, sma200 sql.NullFloat64

	err := row.Scan(
		&q.ID, &q.Ticker, &tsStr,
		&q.CurrentPrice, &q.Open, &q.High, &q.Low, &q.Close, &q.Volume,
		&rsi, &sma10, &sma50, &sma200, &createdStr,
	)
	if err != nil {
		return nil, err
	}

	q.Timestamp, err = time.Parse(time.RFC3339, tsStr)
	if err != nil {
		return nil, fmt.Errorf("parse quote ts: %w", err)
	}
	q.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, fmt.Errorf("parse quote created_at: %w", err)
	}
	q.RSI = fromNull(rsi)
	q.SMA10 = fromNull(sma10)
	q.SMA50 = fromNull(sma50)
	q.SMA200 = fromNull(sma200)
	return &q, nil
}

func nullIndicator(v domain.Indicator) any {
	if !v.Defined() {
		return nil
	}
	return float64(v)
}

func fromNull(v sql.NullFloat64) domain.Indicator {
	if !v.Valid {
		return domain.Indicator(math.NaN())
	}
	return domain.Indicator(v.Float64)
}
