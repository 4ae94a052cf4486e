package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/settings"
	pg "github.com/akudrin/taskwire/internal/repository/postgres"
)

func (h *Handler) GetUserSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(w, r)
	if !ok {
		return
	}

	s, err := h.settings.GetByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User settings not found")
			return
		}
		h.log.Error("get user settings", zap.String("user_id", userID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, http.StatusOK, "Settings retrieved successfully.", s)
}

func (h *Handler) UpdateUserSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var upd settings.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body")
		return
	}
	if upd.Empty() {
		writeError(w, http.StatusBadRequest, "No valid update data provided")
		return
	}

	s, err := h.settings.Update(r.Context(), userID, &upd)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User settings not found")
			return
		}
		h.log.Error("update user settings", zap.String("user_id", userID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, http.StatusOK, "Settings updated successfully.", s)
}
