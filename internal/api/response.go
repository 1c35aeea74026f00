package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// envelope is the uniform response body: data on success, a list of
// human-readable errors on failure. Errors is always present so clients
// can check it without a nil guard.
type envelope struct {
	Data   any      `json:"data"`
	Errors []string `json:"errors"`
}

// writeData writes a success envelope. Buffer-first so headers are only
// sent after the body encoded cleanly.
func writeData(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	writeEnvelope(w, status, envelope{Data: data, Errors: []string{}}, logger)
}

// writeError writes a failure envelope with a null data field.
func writeError(w http.ResponseWriter, status int, logger *slog.Logger, messages ...string) {
	writeEnvelope(w, status, envelope{Errors: messages}, logger)
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope, logger *slog.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(env); err != nil {
		logger.Error("encoding response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("writing response body", "error", err)
	}
}
