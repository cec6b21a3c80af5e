// Package collector runs the periodic collection loop: scrape the ticker,
// decorate the newest bar with indicators, record it, and journal the
// outcome. A failed cycle is logged and journaled, then the loop simply
// waits for the next tick.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mertkaradayi/tickerd/internal/indicator"
	"github.com/mertkaradayi/tickerd/internal/journal"
	"github.com/mertkaradayi/tickerd/internal/metrics"
	"github.com/mertkaradayi/tickerd/internal/quote"
	"github.com/mertkaradayi/tickerd/internal/scraper"
)

const (
	rsiWindow = 14
	smaShort  = 10
	smaMedium = 50
	smaLong   = 200
)

type Collector struct {
	ticker   string
	source   string
	interval time.Duration
	registry *scraper.Registry
	quotes   *quote.Service
	journal  *journal.Service
}

func New(ticker, source string, interval time.Duration, registry *scraper.Registry, quotes *quote.Service, jrnl *journal.Service) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		ticker:   ticker,
		source:   source,
		interval: interval,
		registry: registry,
		quotes:   quotes,
		journal:  jrnl,
	}
}

// Run executes one cycle immediately, then one per interval, until ctx is
// cancelled. Cycle failures do not stop the loop.
func (c *Collector) Run(ctx context.Context) error {
	sc, err := c.registry.Get(c.source)
	if err != nil {
		return err
	}

	if err := c.journal.RecoverInterrupted(ctx); err != nil {
		slog.Error("collector: recover interrupted cycles", "error", err)
	}

	slog.Info("starting collection loop", "ticker", c.ticker, "source", c.source, "interval", c.interval.String())

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect(ctx, sc)

		select {
		case <-ctx.Done():
			slog.Info("collection loop stopped", "ticker", c.ticker)
			return nil
		case <-ticker.C:
		}
	}
}

// collect performs a single cycle.
func (c *Collector) collect(ctx context.Context, sc scraper.Scraper) {
	slog.Info("running scraper", "ticker", c.ticker, "source", c.source)

	cy, err := c.journal.Begin(ctx, c.ticker)
	if err != nil {
		if ctx.Err() != nil {
			return // shutting down
		}
		slog.Error("collector: begin cycle", "ticker", c.ticker, "error", err)
		return
	}

	start := time.Now()
	bars, err := sc.Scrape(ctx, c.ticker)
	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())

	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("no bars returned for %s", c.ticker)
	}
	if err != nil {
		c.fail(ctx, cy, err)
		return
	}

	q := buildQuote(c.ticker, bars)
	if err := c.quotes.Record(ctx, q); err != nil {
		c.fail(ctx, cy, err)
		return
	}

	c.journal.Complete(ctx, cy, len(bars))
	metrics.CyclesTotal.WithLabelValues(c.ticker, string(journal.StatusSucceeded)).Inc()
	slog.Info("stock data scraped", "ticker", c.ticker,
		"price", q.CurrentPrice, "bars", len(bars),
		"duration", time.Since(start).String())
}

func (c *Collector) fail(ctx context.Context, cy *journal.Cycle, err error) {
	c.journal.Fail(ctx, cy, err)
	metrics.CyclesTotal.WithLabelValues(c.ticker, string(journal.StatusFailed)).Inc()
	slog.Error("scrape cycle failed", "ticker", c.ticker, "error", err)
}

// buildQuote turns the scraped bar series into a quote for the newest bar,
// with indicators computed over the full series of closes.
func buildQuote(ticker string, bars []scraper.Bar) quote.Quote {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	last := bars[len(bars)-1]
	return quote.Quote{
		Ticker:       ticker,
		Timestamp:    last.Timestamp,
		CurrentPrice: last.Close,
		Open:         last.Open,
		High:         last.High,
		Low:          last.Low,
		Close:        last.Close,
		Volume:       last.Volume,
		RSI:          quote.Indicator(indicator.RSI(closes, rsiWindow)),
		SMA10:        quote.Indicator(indicator.SMA(closes, smaShort)),
		SMA50:        quote.Indicator(indicator.SMA(closes, smaMedium)),
		SMA200:       quote.Indicator(indicator.SMA(closes, smaLong)),
	}
}
