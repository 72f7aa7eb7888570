package utils

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/apperrors"

	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	writeError(w, "", message, statusCode)
}

func writeError(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindForbidden, apperrors.KindEmailMismatch:
		return http.StatusForbidden
	case apperrors.KindAlreadyMember, apperrors.KindConflict, apperrors.KindInvalidState:
		return http.StatusConflict
	case apperrors.KindUnknownUser:
		return http.StatusUnprocessableEntity
	case apperrors.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err using its kind. Server-side failures are logged
// and their cause is kept out of the response.
func WriteAppError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		Logger.WithFields(logrus.Fields{
			"code":  kind,
			"error": err.Error(),
		}).Error("request failed")
	}
	writeError(w, string(kind), apperrors.Message(err), status)
}
