package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mertkaradayi/tickerd/internal/journal"
	"github.com/mertkaradayi/tickerd/internal/quote"
)

const dateFormat = "2006-01-02"

type handler struct {
	ticker     string
	quoteSvc   *quote.Service
	journalSvc *journal.Service
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "ticker": h.ticker})
}

func (h *handler) latestQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.quoteSvc.Latest(r.Context(), h.ticker)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "no quote collected yet")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	if fromStr == "" {
		writeError(w, http.StatusBadRequest, "from is required")
		return
	}
	from, err := parseDateOrTime(fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from, expected YYYY-MM-DD or RFC3339")
		return
	}

	var to time.Time
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = parseDateOrTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to, expected YYYY-MM-DD or RFC3339")
			return
		}
	}

	format := r.URL.Query().Get("format")

	req := quote.HistoryRequest{From: from, To: to, Format: format}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quotes, err := h.quoteSvc.History(r.Context(), h.ticker, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if format == "csv" {
		writeCSV(w, quotes)
		return
	}

	writeJSON(w, http.StatusOK, quotes)
}

func (h *handler) listCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.journalSvc.List(r.Context(), r.URL.Query().Get("ticker"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (h *handler) getCycle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cycle id")
		return
	}

	c, err := h.journalSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cycle not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// parseDateOrTime accepts bare dates and full RFC3339 timestamps.
func parseDateOrTime(s string) (time.Time, error) {
	if t, err := time.Parse(dateFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
