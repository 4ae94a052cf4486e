package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/notification"
	"github.com/akudrin/taskwire/internal/obs"
)

type ingestEventRequest struct {
	ActorID  uuid.UUID  `json:"actor_id"`
	Type     string     `json:"type"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	TaskID   uuid.UUID  `json:"task_id"`
	StoryID  *uuid.UUID `json:"story_id"`
	CommitID *string    `json:"commit_id"`
}

// IngestEvent is the entry point for completed business actions (comments,
// invites, task updates). Fan-out is fire-and-forget for the caller:
// per-recipient failures are logged by the engine, never surfaced here.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var req ingestEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}
	if req.Type == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "type and message are required")
		return
	}
	if req.TaskID == uuid.Nil || req.ActorID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "task_id and actor_id are required")
		return
	}

	title := req.Title
	if title == "" {
		title = req.Type
	}
	ev := notification.Event{
		ActorID:  req.ActorID,
		Type:     req.Type,
		Title:    title,
		Message:  req.Message,
		TaskID:   req.TaskID,
		StoryID:  req.StoryID,
		CommitID: req.CommitID,
	}

	if err := h.fanout.NotifyTaskCollaborators(r.Context(), ev); err != nil {
		obs.WithTrace(r.Context(), h.log).Error("fan-out failed",
			zap.String("task_id", req.TaskID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not resolve event audience")
		return
	}

	writeOK(w, http.StatusAccepted, "Event accepted.", nil)
}
