package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mertkaradayi/tickerd/internal/journal"
	"github.com/mertkaradayi/tickerd/internal/quote"
	"github.com/mertkaradayi/tickerd/internal/stream"
)

// NewHandler creates the full HTTP handler with routes and middleware.
// Exported for use in tests (e.g., httptest.NewServer).
func NewHandler(ticker string, quoteSvc *quote.Service, journalSvc *journal.Service, hub *stream.Hub) http.Handler {
	return newMux(ticker, quoteSvc, journalSvc, hub)
}

func newMux(ticker string, quoteSvc *quote.Service, journalSvc *journal.Service, hub *stream.Hub) http.Handler {
	h := &handler{
		ticker:     ticker,
		quoteSvc:   quoteSvc,
		journalSvc: journalSvc,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/v1/quote", h.latestQuote)
	mux.HandleFunc("GET /api/v1/quotes", h.listQuotes)
	mux.HandleFunc("GET /api/v1/cycles", h.listCycles)
	mux.HandleFunc("GET /api/v1/cycles/{id}", h.getCycle)
	if hub != nil {
		mux.Handle("GET /api/v1/stream", hub)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware stack: recovery -> requestID -> logging
	var handler http.Handler = mux
	handler = logging(handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}
