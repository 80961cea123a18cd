package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mhollis/cadence/internal/model"
)

// SettingsStore persists the user's reminder policy. Reads never fail the
// caller: a missing or corrupt file yields the documented defaults.
type SettingsStore struct {
	mu     sync.Mutex
	path   string
	state  *StateStore
	logger *slog.Logger
}

// NewSettingsStore creates a settings store. The state store is needed
// because changing the reminder time resets same-day dedup state.
func NewSettingsStore(path string, state *StateStore, logger *slog.Logger) *SettingsStore {
	return &SettingsStore{path: path, state: state, logger: logger}
}

// Load returns the persisted settings merged over defaults.
func (s *SettingsStore) Load() model.NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Update merges the patch over the current settings, persists the result,
// and returns it. A changed reminder time first clears the daily reminder
// dedup marker so the reminder can fire again today at the new time.
func (s *SettingsStore) Update(patch model.SettingsPatch) (model.NotificationSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.loadLocked()

	if patch.ReminderTime != nil && *patch.ReminderTime != cfg.ReminderTime {
		if err := s.state.ClearHabitReminderSent(); err != nil {
			return cfg, fmt.Errorf("reset habit reminder state: %w", err)
		}
		cfg.ReminderTime = *patch.ReminderTime
	}
	if patch.HabitRemindersEnabled != nil {
		cfg.HabitRemindersEnabled = *patch.HabitRemindersEnabled
	}
	if patch.TaskRemindersEnabled != nil {
		cfg.TaskRemindersEnabled = *patch.TaskRemindersEnabled
	}
	if patch.QuietHoursEnabled != nil {
		cfg.QuietHoursEnabled = *patch.QuietHoursEnabled
	}
	if patch.QuietHoursStart != nil {
		cfg.QuietHoursStart = *patch.QuietHoursStart
	}
	if patch.QuietHoursEnd != nil {
		cfg.QuietHoursEnd = *patch.QuietHoursEnd
	}

	if err := writeJSONAtomic(s.path, cfg); err != nil {
		return cfg, fmt.Errorf("save notification settings: %w", err)
	}
	return cfg, nil
}

func (s *SettingsStore) loadLocked() model.NotificationSettings {
	cfg := model.DefaultNotificationSettings()
	if err := readJSON(s.path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read notification settings failed, using defaults", "error", err)
		}
		return model.DefaultNotificationSettings()
	}
	return cfg
}
