package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"fintrack/internal/models"
	"fintrack/pkg/utils"
)

const maxBodyBytes = 1 << 20

// DecodeBody reads a single JSON object into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding worked.
func DecodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			utils.WriteError(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF):
			utils.WriteError(w, "request body is required", http.StatusBadRequest)
		default:
			utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		}
		return false
	}
	if decoder.More() {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// CurrentUser returns the authenticated caller's id and email.
func CurrentUser(w http.ResponseWriter, r *http.Request) (userID, email string, ok bool) {
	userID, ok = utils.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return "", "", false
	}
	email, ok = utils.EmailFromContext(r.Context())
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return "", "", false
	}
	return userID, email, true
}

// AllowMethod writes 405 unless r uses method.
func AllowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// DateParam parses an optional YYYY-MM-DD query parameter.
func DateParam(w http.ResponseWriter, r *http.Request, name string) (models.Date, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return models.Date{}, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		utils.WriteError(w, name+": "+err.Error(), http.StatusBadRequest)
		return models.Date{}, false
	}
	return d, true
}
