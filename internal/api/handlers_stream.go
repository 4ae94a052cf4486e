package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/akudrin/taskwire/internal/services/notifier"
)

// Stream is the long-lived event endpoint. Each unit on the wire is either
// "data: <json>\n\n" or the ":heartbeat\n\n" keepalive comment. When the
// broker is degraded the stream ends immediately without emitting anything.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	fl, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	sess := notifier.NewSession(userID, h.broker, h.heartbeat, h.log)
	// Session errors are already logged with session context; the client
	// just sees the socket close.
	_ = sess.Run(r.Context(), flushSink{w: w, f: fl})
}

// flushSink pushes each frame to the client immediately so heartbeats and
// events are not held back by response buffering.
type flushSink struct {
	w io.Writer
	f http.Flusher
}

func (s flushSink) Send(frame string) error {
	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
