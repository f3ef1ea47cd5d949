package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/shared"
)

const maxBodyBytes = 1 << 20

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing text for err. Server errors do not leak detail.
func messageFor(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "Server error"
	}

	msg := err.Error()
	for _, sentinel := range []error{shared.ErrValidation, shared.ErrUnauthenticated, shared.ErrNotFound, shared.ErrConflict} {
		if _, rest, ok := strings.Cut(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError answers with the status and message for err, logging server errors.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeMessage(w, status, messageFor(status, err))
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", shared.ErrValidation, err)
	}
	return nil
}

// pathID parses the positive integer path value name.
func pathID(r *http.Request, name, label string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: Invalid %s id", shared.ErrValidation, label)
	}
	return id, nil
}
