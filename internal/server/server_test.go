package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mertkaradayi/tickerd/internal/export"
	"github.com/mertkaradayi/tickerd/internal/journal"
	"github.com/mertkaradayi/tickerd/internal/platform/sqlite"
	"github.com/mertkaradayi/tickerd/internal/quote"
	journalrepo "github.com/mertkaradayi/tickerd/internal/repository/journal"
	quoterepo "github.com/mertkaradayi/tickerd/internal/repository/quote"
	"github.com/mertkaradayi/tickerd/internal/stream"
)

type testEnv struct {
	ts       *httptest.Server
	quoteSvc *quote.Service
	jrnlSvc  *journal.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	exp := export.NewWriter(t.TempDir() + "/SPY_stock_data.csv")
	quoteSvc := quote.NewService(quoterepo.NewRepository(db.DB), exp, nil)
	jrnlSvc := journal.NewService(journalrepo.NewRepository(db.DB))

	ts := httptest.NewServer(NewHandler("SPY", quoteSvc, jrnlSvc, stream.NewHub()))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, quoteSvc: quoteSvc, jrnlSvc: jrnlSvc}
}

func (e *testEnv) seedQuote(t *testing.T, ts time.Time, price float64) {
	t.Helper()
	q := quote.Quote{
		Ticker:       "SPY",
		Timestamp:    ts,
		CurrentPrice: price,
		Open:         price,
		High:         price,
		Low:          price,
		Close:        price,
		Volume:       1000,
		RSI:          quote.Indicator(50),
		SMA10:        quote.Indicator(price),
		SMA50:        quote.Indicator(price),
		SMA200:       quote.Indicator(price),
	}
	if err := e.quoteSvc.Record(t.Context(), q); err != nil {
		t.Fatalf("seed quote: %v", err)
	}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, err := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	res, body := get(t, env.ts.URL+"/health")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(string(body), `"SPY"`) {
		t.Errorf("expected ticker in health payload: %s", body)
	}
}

func TestLatestQuote(t *testing.T) {
	env := newTestEnv(t)

	res, _ := get(t, env.ts.URL+"/api/v1/quote")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any collection, got %d", res.StatusCode)
	}

	env.seedQuote(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), 475.0)
	env.seedQuote(t, time.Date(2024, 1, 2, 14, 35, 0, 0, time.UTC), 476.0)

	res, body := get(t, env.ts.URL+"/api/v1/quote")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, body)
	}

	var resp APIResponse[quote.Quote]
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.CurrentPrice != 476.0 {
		t.Errorf("expected the newest quote, got %+v", resp.Data)
	}
}

func TestListQuotes_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seedQuote(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), 475.0)
	env.seedQuote(t, time.Date(2024, 1, 2, 14, 35, 0, 0, time.UTC), 476.0)

	res, body := get(t, env.ts.URL+"/api/v1/quotes?from=2024-01-02&to=2024-01-03")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, body)
	}

	var resp APIResponse[[]quote.Quote]
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(resp.Data))
	}
	if resp.Data[0].CurrentPrice != 475.0 {
		t.Errorf("expected oldest first, got %+v", resp.Data[0])
	}
}

func TestListQuotes_CSV(t *testing.T) {
	env := newTestEnv(t)
	env.seedQuote(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), 475.0)

	res, body := get(t, env.ts.URL+"/api/v1/quotes?from=2024-01-02&format=csv")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != export.Header {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestListQuotes_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := []string{
		"/api/v1/quotes",                                // missing from
		"/api/v1/quotes?from=not-a-date",                // bad from
		"/api/v1/quotes?from=2024-01-02&to=2024-01-01",  // to before from
		"/api/v1/quotes?from=2024-01-02&format=parquet", // bad format
	}
	for _, path := range cases {
		res, _ := get(t, env.ts.URL+path)
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, res.StatusCode)
		}
	}
}

func TestCycles(t *testing.T) {
	env := newTestEnv(t)

	cy, err := env.jrnlSvc.Begin(t.Context(), "SPY")
	if err != nil {
		t.Fatalf("begin cycle: %v", err)
	}
	env.jrnlSvc.Complete(t.Context(), cy, 384)

	res, body := get(t, env.ts.URL+"/api/v1/cycles")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var listResp APIResponse[[]journal.Cycle]
	if err := json.Unmarshal(body, &listResp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(listResp.Data) != 1 || listResp.Data[0].Status != journal.StatusSucceeded {
		t.Fatalf("unexpected cycles: %+v", listResp.Data)
	}

	res, body = get(t, fmt.Sprintf("%s/api/v1/cycles/%d", env.ts.URL, cy.ID))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, body)
	}

	res, _ = get(t, env.ts.URL+"/api/v1/cycles/9999")
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown cycle, got %d", res.StatusCode)
	}

	res, _ = get(t, env.ts.URL+"/api/v1/cycles/abc")
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad cycle id, got %d", res.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	res, body := get(t, env.ts.URL+"/metrics")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected default process metrics in /metrics output")
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	res, _ := get(t, env.ts.URL+"/health")
	if res.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
