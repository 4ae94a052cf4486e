package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/akudrin/taskwire/internal/domain/notification"
)

var _ notification.CollaboratorsReader = (*CollaboratorRepo)(nil)

type CollaboratorRepo struct{ db *DB }

func NewCollaboratorRepo(db *DB) *CollaboratorRepo { return &CollaboratorRepo{db: db} }

const qCollaboratorsByTask = `
SELECT user_id
FROM task_collaborators
WHERE task_id = $1;`

func (r *CollaboratorRepo) ListUserIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qCollaboratorsByTask, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task collaborators: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
