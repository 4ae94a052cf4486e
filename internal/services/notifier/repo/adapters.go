package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/akudrin/taskwire/internal/domain/settings"
	pg "github.com/akudrin/taskwire/internal/repository/postgres"
)

// SettingsReader adapts the postgres settings repo to the fan-out engine's
// port: a user with no stored settings row is reported as nil settings
// (allow everything), not as an error.
type SettingsReader struct{ R *pg.SettingsRepo }

func (a SettingsReader) GetByUser(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	s, err := a.R.GetByUser(ctx, userID)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, nil
	}
	return s, err
}
