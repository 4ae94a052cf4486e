package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/akudrin/taskwire/internal/domain/settings"
)

type Repo interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// SettingsReader returns nil (not an error) when the user never stored
// settings; a nil Settings allows everything.
type SettingsReader interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*settings.Settings, error)
}

// CollaboratorsReader resolves the audience of a task, role-agnostic.
type CollaboratorsReader interface {
	ListUserIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
}
