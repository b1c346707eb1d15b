// Package respond centralizes JSON response writing for the API layer.
package respond

import (
	"encoding/json"
	"net/http"
)

// WriteJSONObject marshals v and writes it with the given status.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal encoding failure"}`, http.StatusInternalServerError)
		return
	}
	WriteJSONBytes(w, status, data)
}

// WriteJSONBytes writes pre-encoded JSON with the given status.
func WriteJSONBytes(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// Error writes a standard error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	WriteJSONObject(w, status, map[string]interface{}{"error": message})
}
