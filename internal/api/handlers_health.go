package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status string `json:"status"`
	Broker string `json:"broker"`
}

// Health reports broker connectivity without failing on it: a degraded
// broker means degraded real-time delivery, not an unhealthy process. Only
// a failing database marks the service unhealthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.dbPing != nil {
		hctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := h.dbPing(hctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unhealthy: db")
			return
		}
	}

	resp := healthResponse{Status: "ok", Broker: "ok"}
	if !h.broker.Ready() {
		resp.Broker = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
