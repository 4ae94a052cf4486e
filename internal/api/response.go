package api

import (
	"encoding/json"
	"net/http"
)

// Ok is the success envelope shared by all JSON endpoints.
type Ok struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeOK(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Ok{Status: "ok", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: detail})
}
