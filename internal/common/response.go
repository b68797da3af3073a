package common

import (
	"encoding/json"
	"net/http"
)

// Failure is the error envelope every endpoint returns.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONFailure renders {"success": false, "error": message}.
func JSONFailure(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Failure{Success: false, Error: message})
}
