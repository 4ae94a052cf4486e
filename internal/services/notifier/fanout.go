package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
	"github.com/akudrin/taskwire/internal/domain/notification"
)

var (
	mFanoutSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_fanout_sent_total",
		Help: "Notifications persisted and handed to the broker.",
	})
	mFanoutSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_fanout_suppressed_total",
		Help: "Notifications suppressed by recipient preferences.",
	})
	mFanoutFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_fanout_failed_total",
		Help: "Per-recipient delivery failures.",
	})
)

// Engine distributes one domain event to every collaborator of the affected
// task, minus the actor, gated by each recipient's preferences.
type Engine struct {
	log      *zap.Logger
	collabs  notification.CollaboratorsReader
	settings notification.SettingsReader
	store    notification.Repo
	pub      broker.Publisher
}

func NewEngine(
	log *zap.Logger,
	collabs notification.CollaboratorsReader,
	settings notification.SettingsReader,
	store notification.Repo,
	pub broker.Publisher,
) *Engine {
	return &Engine{
		log:      log.With(zap.String("component", "notifier.fanout")),
		collabs:  collabs,
		settings: settings,
		store:    store,
		pub:      pub,
	}
}

// outcome is the tri-state result of one recipient's delivery.
type outcome int

const (
	outcomeSent outcome = iota
	outcomeSuppressed
	outcomeFailed
)

// streamPayload is the wire shape pushed onto a recipient's channel.
type streamPayload struct {
	Event string            `json:"event"`
	Data  streamPayloadData `json:"data"`
}

type streamPayloadData struct {
	Message  string  `json:"message"`
	TaskID   string  `json:"task_id"`
	StoryID  *string `json:"story_id"`
	CommitID *string `json:"commit_id"`
}

// NotifyTaskCollaborators resolves the audience and delivers to each
// recipient independently. One recipient's failure never aborts the others;
// per-recipient failures are logged and counted, not returned. The only
// error surfaced is a failure to resolve the audience itself.
func (e *Engine) NotifyTaskCollaborators(ctx context.Context, ev notification.Event) error {
	recipients, err := e.collabs.ListUserIDs(ctx, ev.TaskID)
	if err != nil {
		return fmt.Errorf("list task collaborators: %w", err)
	}

	for _, uid := range recipients {
		if uid == ev.ActorID {
			continue
		}
		out, err := e.deliver(ctx, uid, ev)
		switch out {
		case outcomeSent:
			mFanoutSent.Inc()
		case outcomeSuppressed:
			mFanoutSuppressed.Inc()
		case outcomeFailed:
			mFanoutFailed.Inc()
			e.log.Error("recipient delivery failed",
				zap.String("user_id", uid.String()),
				zap.String("type", ev.Type),
				zap.String("task_id", ev.TaskID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (e *Engine) deliver(ctx context.Context, recipient uuid.UUID, ev notification.Event) (outcome, error) {
	prefs, err := e.settings.GetByUser(ctx, recipient)
	if err != nil {
		return outcomeFailed, fmt.Errorf("load settings: %w", err)
	}
	if !prefs.Allows(ev.Type, &ev.TaskID) {
		// Silent suppression: no record, no publish.
		return outcomeSuppressed, nil
	}

	taskID := ev.TaskID
	n := &notification.Notification{
		UserID:   recipient,
		Type:     ev.Type,
		Title:    ev.Title,
		Message:  ev.Message,
		TaskID:   &taskID,
		StoryID:  ev.StoryID,
		CommitID: ev.CommitID,
	}
	if err := e.store.Create(ctx, n); err != nil {
		return outcomeFailed, fmt.Errorf("persist notification: %w", err)
	}

	data := streamPayloadData{
		Message:  ev.Message,
		TaskID:   ev.TaskID.String(),
		CommitID: ev.CommitID,
	}
	if ev.StoryID != nil {
		s := ev.StoryID.String()
		data.StoryID = &s
	}
	body, err := json.Marshal(streamPayload{Event: ev.Type, Data: data})
	if err != nil {
		return outcomeFailed, fmt.Errorf("encode payload: %w", err)
	}

	// The persisted record is the source of truth; real-time delivery is
	// best-effort and a failed publish is not rolled back or retried.
	if err := e.pub.Publish(ctx, ChannelFor(recipient), body); err != nil {
		e.log.Warn("publish failed, record kept",
			zap.String("user_id", recipient.String()),
			zap.String("type", ev.Type),
			zap.Error(err),
		)
	}
	return outcomeSent, nil
}
