package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akudrin/taskwire/internal/domain/settings"
)

type SettingsRepo struct{ db *DB }

func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

const (
	qSettingsByUser = `
SELECT user_id, disable_all_notifications, disabled_notification_types,
       task_specific_settings, disable_all_email_notifications, ui_preferences
FROM user_settings
WHERE user_id = $1;`

	qSettingsUpdate = `
UPDATE user_settings
SET disable_all_notifications       = COALESCE($2, disable_all_notifications),
    disabled_notification_types     = COALESCE($3, disabled_notification_types),
    task_specific_settings          = COALESCE($4, task_specific_settings),
    disable_all_email_notifications = COALESCE($5, disable_all_email_notifications),
    ui_preferences                  = COALESCE($6, ui_preferences)
WHERE user_id = $1
RETURNING user_id, disable_all_notifications, disabled_notification_types,
          task_specific_settings, disable_all_email_notifications, ui_preferences;`
)

func (r *SettingsRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s settings.Settings
	if err := scanSettings(r.db.Pool.QueryRow(ctx, qSettingsByUser, userID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update applies the non-nil fields of u and returns the stored row.
func (r *SettingsRepo) Update(ctx context.Context, userID uuid.UUID, u *settings.Update) (*settings.Settings, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s settings.Settings
	if err := scanSettings(r.db.Pool.QueryRow(ctx, qSettingsUpdate,
		userID,
		u.DisableAllNotifications,
		u.DisabledNotificationTypes,
		u.TaskSpecificSettings,
		u.DisableAllEmailNotifications,
		u.UIPreferences,
	), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSettings(row pgx.Row, out *settings.Settings) error {
	if err := row.Scan(
		&out.UserID,
		&out.DisableAllNotifications,
		&out.DisabledNotificationTypes,
		&out.TaskSpecificSettings,
		&out.DisableAllEmailNotifications,
		&out.UIPreferences,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user settings: %w", err)
	}
	return nil
}
