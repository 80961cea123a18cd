package model

import "time"

// SubscriptionKeys is the client key material used to encrypt push payloads.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is one registered push delivery endpoint. The endpoint
// URL is unique across the registry and is the sole deduplication key.
type PushSubscription struct {
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationSettings is the user-configured reminder policy. All times
// are 24-hour "HH:MM" strings in the server's local time.
type NotificationSettings struct {
	ReminderTime          string `json:"reminderTime"`
	HabitRemindersEnabled bool   `json:"habitRemindersEnabled"`
	TaskRemindersEnabled  bool   `json:"taskRemindersEnabled"`
	QuietHoursEnabled     bool   `json:"quietHoursEnabled"`
	QuietHoursStart       string `json:"quietHoursStart"`
	QuietHoursEnd         string `json:"quietHoursEnd"`
}

// DefaultNotificationSettings returns the settings used on first access and
// as the fallback when the settings file is missing or unreadable.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		ReminderTime:          "20:00",
		HabitRemindersEnabled: true,
		TaskRemindersEnabled:  true,
		QuietHoursEnabled:     false,
		QuietHoursStart:       "22:00",
		QuietHoursEnd:         "08:00",
	}
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	ReminderTime          *string `json:"reminderTime,omitempty"`
	HabitRemindersEnabled *bool   `json:"habitRemindersEnabled,omitempty"`
	TaskRemindersEnabled  *bool   `json:"taskRemindersEnabled,omitempty"`
	QuietHoursEnabled     *bool   `json:"quietHoursEnabled,omitempty"`
	QuietHoursStart       *string `json:"quietHoursStart,omitempty"`
	QuietHoursEnd         *string `json:"quietHoursEnd,omitempty"`
}

// NotificationState is the dedup bookkeeping, kept separate from settings.
// HabitReminderLastSent holds the "2006-01-02" date of the last successful
// daily reminder dispatch, or nil if none. TaskNotifications maps task IDs
// to the epoch-millisecond timestamp of their last due-soon notification.
type NotificationState struct {
	HabitReminderLastSent *string          `json:"habitReminderLastSent"`
	TaskNotifications     map[string]int64 `json:"taskNotifications"`
}
