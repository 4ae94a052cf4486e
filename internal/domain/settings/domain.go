package settings

import (
	"slices"

	"github.com/google/uuid"
)

// TaskOverride narrows notification delivery for a single task.
type TaskOverride struct {
	DisableAll    bool     `json:"disable_all"`
	DisabledTypes []string `json:"disabled_types"`
}

// Settings holds a user's notification preferences plus the UI/email knobs
// the settings API serves. Only the notification fields feed the gate.
type Settings struct {
	UserID                       uuid.UUID               `json:"user_id"`
	DisableAllNotifications      bool                    `json:"disable_all_notifications"`
	DisabledNotificationTypes    []string                `json:"disabled_notification_types"`
	TaskSpecificSettings         map[string]TaskOverride `json:"task_specific_settings"`
	DisableAllEmailNotifications bool                    `json:"disable_all_email_notifications"`
	UIPreferences                map[string]any          `json:"ui_preferences"`
}

// Update carries a partial settings change; nil fields are left untouched.
type Update struct {
	DisableAllNotifications      *bool                    `json:"disable_all_notifications"`
	DisabledNotificationTypes    *[]string                `json:"disabled_notification_types"`
	TaskSpecificSettings         *map[string]TaskOverride `json:"task_specific_settings"`
	DisableAllEmailNotifications *bool                    `json:"disable_all_email_notifications"`
	UIPreferences                *map[string]any          `json:"ui_preferences"`
}

func (u *Update) Empty() bool {
	return u.DisableAllNotifications == nil &&
		u.DisabledNotificationTypes == nil &&
		u.TaskSpecificSettings == nil &&
		u.DisableAllEmailNotifications == nil &&
		u.UIPreferences == nil
}

// Allows reports whether a notification of the given type, optionally scoped
// to a task, should reach this user. First matching rule wins: global mute,
// then muted types, then the task override. A nil receiver means the user
// never stored settings and everything is allowed.
func (s *Settings) Allows(typ string, taskID *uuid.UUID) bool {
	if s == nil {
		return true
	}
	if s.DisableAllNotifications {
		return false
	}
	if slices.Contains(s.DisabledNotificationTypes, typ) {
		return false
	}
	if taskID != nil {
		if ov, ok := s.TaskSpecificSettings[taskID.String()]; ok {
			if ov.DisableAll {
				return false
			}
			if slices.Contains(ov.DisabledTypes, typ) {
				return false
			}
		}
	}
	return true
}
