package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	pg "github.com/akudrin/taskwire/internal/repository/postgres"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(w, r)
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := h.notifs.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.log.Error("list notifications", zap.String("user_id", userID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, http.StatusOK, "Notifications retrieved successfully.", items)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifs.MarkRead(r.Context(), id, userID); err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.log.Error("mark notification read", zap.String("id", id.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, http.StatusOK, "Notification marked as read.", nil)
}

// identityFrom pulls the caller identity from the X-User-ID header. Full
// authentication lives in front of this service.
func identityFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}
