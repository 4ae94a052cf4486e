package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
	"github.com/akudrin/taskwire/internal/obs"
	"github.com/akudrin/taskwire/internal/services/notifier"
)

type targetedMessage struct {
	Message map[string]any `json:"message"`
}

// SendToUser lets other services push an arbitrary message onto one user's
// channel. Returns 503 while the broker is degraded.
func (h *Handler) SendToUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req targetedMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil {
		writeError(w, http.StatusBadRequest, "message object is required")
		return
	}

	payload, err := json.Marshal(req.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, "message is not serializable")
		return
	}

	channel := notifier.ChannelFor(userID)
	if err := h.broker.Publish(r.Context(), channel, payload); err != nil {
		if errors.Is(err, broker.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "cannot send message, broker is not available")
			return
		}
		obs.WithTrace(r.Context(), h.log).Error("publish failed", zap.String("channel", channel), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "publish failed")
		return
	}

	h.log.Info("message published", zap.String("channel", channel))
	writeOK(w, http.StatusOK, "Message published successfully.", map[string]string{"channel": channel})
}
