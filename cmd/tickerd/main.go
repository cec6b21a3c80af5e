package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mertkaradayi/tickerd/internal/collector"
	"github.com/mertkaradayi/tickerd/internal/config"
	"github.com/mertkaradayi/tickerd/internal/export"
	"github.com/mertkaradayi/tickerd/internal/journal"
	"github.com/mertkaradayi/tickerd/internal/platform/sqlite"
	"github.com/mertkaradayi/tickerd/internal/quote"
	journalrepo "github.com/mertkaradayi/tickerd/internal/repository/journal"
	quoterepo "github.com/mertkaradayi/tickerd/internal/repository/quote"
	"github.com/mertkaradayi/tickerd/internal/scraper"
	"github.com/mertkaradayi/tickerd/internal/scraper/yahoo"
	"github.com/mertkaradayi/tickerd/internal/server"
	"github.com/mertkaradayi/tickerd/internal/stream"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.App.LogLevel)

	// Root context: cancelled on SIGINT/SIGTERM so the collection loop and
	// in-flight requests stop promptly during graceful shutdown.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open database
	db, err := sqlite.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Repositories
	quoteRepo := quoterepo.NewRepository(db.DB)
	cycleRepo := journalrepo.NewRepository(db.DB)

	// The CSV file starts each run from a clean slate.
	exporter := export.NewWriter(cfg.Ticker.CSVPath)
	if err := exporter.Reset(); err != nil {
		slog.Error("failed to reset csv file", "path", exporter.Path(), "error", err)
	}

	// Services
	hub := stream.NewHub()
	quoteSvc := quote.NewService(quoteRepo, exporter, hub)
	journalSvc := journal.NewService(cycleRepo)

	// Scraper registry
	registry := scraper.NewRegistry()
	registry.Register(yahoo.New())

	col := collector.New(cfg.Ticker.Symbol, cfg.Ticker.Source, cfg.Interval(),
		registry, quoteSvc, journalSvc)

	// HTTP server — rootCtx is used as BaseContext so every request context
	// inherits from it and is cancelled on shutdown.
	srv := server.New(rootCtx, cfg.App.Port, cfg.Ticker.Symbol, quoteSvc, journalSvc, hub)

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return col.Run(gctx)
	})

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Drain connections with a deadline once shutdown begins.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("tickerd started",
		"ticker", cfg.Ticker.Symbol,
		"interval", cfg.Interval().String(),
		"csv", cfg.Ticker.CSVPath,
		"port", cfg.App.Port,
	)

	if err := g.Wait(); err != nil {
		slog.Error("tickerd stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("tickerd stopped")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
