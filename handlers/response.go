package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// WriteJSON writes data as a JSON response. The body is encoded before the
// status is sent, so an unencodable value becomes a 500 instead of a
// truncated 200.
func WriteJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"Something went wrong"}` + "\n")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}

// writeStoreError answers a failed store call with a 500. When the request ran
// past its deadline nothing is written and the timeout middleware replies 504.
func writeStoreError(w http.ResponseWriter, err error, logger *slog.Logger, msg string, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(msg, args...)
		return
	}
	logger.Error(msg, args...)
	WriteError(w, http.StatusInternalServerError, "Something went wrong", logger)
}
