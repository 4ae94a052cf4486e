package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
	"github.com/akudrin/taskwire/internal/domain/notification"
	"github.com/akudrin/taskwire/internal/domain/settings"
)

// Broker is the slice of the broker client the HTTP surface needs.
type Broker interface {
	Ready() bool
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(channel string) (broker.Subscription, error)
}

// FanOut is the domain-event entry point into the delivery core.
type FanOut interface {
	NotifyTaskCollaborators(ctx context.Context, ev notification.Event) error
}

// SettingsStore is the read/write settings surface; absence is ErrNotFound
// from the repository, mapped to 404 here.
type SettingsStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*settings.Settings, error)
	Update(ctx context.Context, userID uuid.UUID, u *settings.Update) (*settings.Settings, error)
}

type Handler struct {
	log       *zap.Logger
	broker    Broker
	fanout    FanOut
	notifs    notification.Repo
	settings  SettingsStore
	dbPing    func(ctx context.Context) error
	heartbeat time.Duration
}

func NewHandler(
	log *zap.Logger,
	b Broker,
	fanout FanOut,
	notifs notification.Repo,
	settingsStore SettingsStore,
	dbPing func(ctx context.Context) error,
	heartbeat time.Duration,
) *Handler {
	return &Handler{
		log:       log.With(zap.String("component", "api")),
		broker:    b,
		fanout:    fanout,
		notifs:    notifs,
		settings:  settingsStore,
		dbPing:    dbPing,
		heartbeat: heartbeat,
	}
}
