package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/akudrin/taskwire/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const (
	qNotifInsert = `
INSERT INTO notifications (user_id, type, title, message, related_task_id, related_story_id, commit_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, is_read, created_at;
`
	qNotifByUser = `
SELECT id, user_id, type, title, message, is_read, created_at, related_task_id, related_story_id, commit_id
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	qNotifMarkRead = `
UPDATE notifications
SET is_read = TRUE
WHERE id = $1 AND user_id = $2;
`
)

func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.Pool.QueryRow(ctx, qNotifInsert,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.TaskID,
		n.StoryID,
		n.CommitID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qNotifByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0, limit)
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.IsRead, &n.CreatedAt, &n.TaskID, &n.StoryID, &n.CommitID,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		nc := n
		out = append(out, &nc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, qNotifMarkRead, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
