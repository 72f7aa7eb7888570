package utils

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, data interface{}) {
	WriteJSONStatus(w, http.StatusOK, data)
}

func WriteJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		Logger.WithError(err).Error("failed to encode JSON response")
	}
}

// Success wraps data in the success envelope.
func Success(message string, data interface{}) map[string]interface{} {
	response := map[string]interface{}{
		"status": "success",
		"data":   data,
	}
	if message != "" {
		response["message"] = message
	}
	return response
}
