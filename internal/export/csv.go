// Package export maintains the per-ticker CSV file. The file is removed at
// startup and rebuilt one appended row per collection cycle, with the header
// written only when the file is created.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mertkaradayi/tickerd/internal/quote"
)

// Header is the CSV column schema.
const Header = "Timestamp,Current Price,Ticker,Open,High,Low,Close,Volume,RSI,SMA10,SMA50,SMA200"

const timestampLayout = "2006-01-02 15:04:05 MST"

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// easternLocation returns US Eastern time, falling back to UTC when the zone
// database is unavailable.
func easternLocation() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			slog.Error("csv: load timezone, falling back to UTC", "error", err)
			loc = time.UTC
		}
		eastern = loc
	})
	return eastern
}

// Writer appends quotes to a single CSV file.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter creates a Writer for the given path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the CSV file path.
func (w *Writer) Path() string { return w.path }

// Reset deletes the CSV file so the run starts from a clean slate. Either
// outcome is logged; a missing file is not an error.
func (w *Writer) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := os.Remove(w.path)
	switch {
	case err == nil:
		slog.Info("deleted old csv file", "path", w.path)
		return nil
	case os.IsNotExist(err):
		slog.Info("no csv file to delete", "path", w.path)
		return nil
	default:
		return fmt.Errorf("delete csv file: %w", err)
	}
}

// Append writes one row for the quote, creating the file with a header row
// first if it does not exist yet.
func (w *Writer) Append(q quote.Quote) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, statErr := os.Stat(w.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if writeHeader {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	if _, err := fmt.Fprintln(f, FormatRow(q)); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

// FormatRow renders a quote as one CSV line in the Header column order.
// Timestamps are written in US Eastern time; indicators that could not be
// computed yet render as NaN.
func FormatRow(q quote.Quote) string {
	fields := []string{
		q.Timestamp.In(easternLocation()).Format(timestampLayout),
		formatFloat(q.CurrentPrice),
		q.Ticker,
		formatFloat(q.Open),
		formatFloat(q.High),
		formatFloat(q.Low),
		formatFloat(q.Close),
		strconv.FormatInt(q.Volume, 10),
		formatFloat(float64(q.RSI)),
		formatFloat(float64(q.SMA10)),
		formatFloat(float64(q.SMA50)),
		formatFloat(float64(q.SMA200)),
	}
	return strings.Join(fields, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
