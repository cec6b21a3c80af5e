package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mertkaradayi/tickerd/internal/export"
	"github.com/mertkaradayi/tickerd/internal/quote"
)

type APIResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[T]{
		Message: "ok",
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[string]{
		Message: message,
		Data:    "",
	})
}

// writeCSV streams quotes in the same column schema as the export file.
func writeCSV(w http.ResponseWriter, quotes []quote.Quote) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=quotes.csv")
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprintln(w, export.Header)
	for _, q := range quotes {
		_, _ = fmt.Fprintln(w, export.FormatRow(q))
	}
}
