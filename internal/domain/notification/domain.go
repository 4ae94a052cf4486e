package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification types produced by the business actions of the tracker.
const (
	TypeNewComment  = "new_comment"
	TypeStoryUpdate = "story_update"
	TypeTaskUpdate  = "task_update"
	TypeInvite      = "invite"
	TypeSystem      = "system"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	StoryID   *uuid.UUID `json:"story_id,omitempty"`
	CommitID  *string    `json:"commit_id,omitempty"`
}

// Event is what a completed business action hands to the fan-out engine.
// It is consumed exactly once and never stored as-is; the engine turns it
// into zero or more Notification records.
type Event struct {
	ActorID  uuid.UUID
	Type     string
	Title    string
	Message  string
	TaskID   uuid.UUID
	StoryID  *uuid.UUID
	CommitID *string
}
