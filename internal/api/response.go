package api

import (
	"encoding/json"
	"net/http"
)

// Envelope is the success envelope: {"data": ...}
type Envelope struct {
	Data any `json:"data,omitempty"`
}

// ErrorBody is the error envelope: {"error":{"code","message"}}
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, Envelope{Data: payload})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorPayload{Code: code, Message: message}})
}
