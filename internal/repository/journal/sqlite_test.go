package journal

import (
	"context"
	"testing"
	"time"

	domain "github.com/mertkaradayi/tickerd/internal/journal"
	"github.com/mertkaradayi/tickerd/internal/platform/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreate_Update_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	c := &domain.Cycle{
		Ticker:    "SPY",
		Status:    domain.StatusRunning,
		StartedAt: time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected cycle id to be set")
	}

	c.Status = domain.StatusSucceeded
	c.BarCount = 384
	c.FinishedAt = c.StartedAt.Add(2 * time.Second)
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusSucceeded {
		t.Errorf("expected succeeded, got %s", got.Status)
	}
	if got.BarCount != 384 {
		t.Errorf("expected 384 bars, got %d", got.BarCount)
	}
	if got.FinishedAt.IsZero() {
		t.Error("expected finished_at to be set")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	_, err := repo.Get(context.Background(), 42)
	if err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	for range 3 {
		c := &domain.Cycle{Ticker: "SPY", Status: domain.StatusSucceeded, StartedAt: time.Now().UTC()}
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cycles, err := repo.List(ctx, "SPY", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(cycles))
	}
	if cycles[0].ID < cycles[1].ID {
		t.Error("expected newest cycle first")
	}
}

func TestGet_CorruptedTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	res, err := db.ExecContext(ctx, `INSERT INTO cycles (ticker, status, started_at)
		VALUES ('SPY', 'running', 'garbage')`)
	if err != nil {
		t.Fatalf("insert corrupted row: %v", err)
	}
	id, _ := res.LastInsertId()

	if _, err := repo.Get(ctx, id); err == nil {
		t.Fatal("expected error for unparseable started_at")
	}
}

func TestMarkInterrupted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	running := &domain.Cycle{Ticker: "SPY", Status: domain.StatusRunning, StartedAt: time.Now().UTC()}
	finished := &domain.Cycle{Ticker: "SPY", Status: domain.StatusSucceeded, StartedAt: time.Now().UTC()}
	if err := repo.Create(ctx, running); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, finished); err != nil {
		t.Fatal(err)
	}

	n, err := repo.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("mark interrupted: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}

	got, err := repo.Get(ctx, running.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusFailed || got.Error != "interrupted" {
		t.Errorf("expected failed/interrupted, got %s/%s", got.Status, got.Error)
	}
}
