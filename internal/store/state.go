package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mhollis/cadence/internal/model"
)

// StateStore persists the notification dedup bookkeeping. Reads are
// fail-soft (a missing or corrupt file yields empty state), but writes
// surface errors: silently losing dedup state risks duplicate sends.
type StateStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewStateStore(path string, logger *slog.Logger) *StateStore {
	return &StateStore{path: path, logger: logger}
}

// Load returns the persisted dedup state, or empty state if the file is
// missing or unreadable.
func (s *StateStore) Load() model.NotificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save persists the full dedup state atomically.
func (s *StateStore) Save(st model.NotificationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(st)
}

// HabitReminderSentOn reports whether the daily habit reminder was already
// dispatched on the given "2006-01-02" date.
func (s *StateStore) HabitReminderSentOn(date string) bool {
	st := s.Load()
	return st.HabitReminderLastSent != nil && *st.HabitReminderLastSent == date
}

// MarkHabitReminderSent records the given date as the last successful daily
// reminder dispatch.
func (s *StateStore) MarkHabitReminderSent(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.loadLocked()
	st.HabitReminderLastSent = &date
	return s.saveLocked(st)
}

// ClearHabitReminderSent resets the daily reminder marker so the reminder
// may fire again today. Called when the reminder time changes.
func (s *StateStore) ClearHabitReminderSent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.loadLocked()
	if st.HabitReminderLastSent == nil {
		return nil
	}
	st.HabitReminderLastSent = nil
	return s.saveLocked(st)
}

// TaskNotified reports whether a due-soon notification was already sent for
// the task and not yet purged.
func (s *StateStore) TaskNotified(taskID string) bool {
	st := s.Load()
	_, ok := st.TaskNotifications[taskID]
	return ok
}

// MarkTaskNotified records a due-soon dispatch for the task at the given time.
func (s *StateStore) MarkTaskNotified(taskID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.loadLocked()
	st.TaskNotifications[taskID] = at.UnixMilli()
	return s.saveLocked(st)
}

// CleanupTaskNotifications purges task markers recorded before the cutoff,
// returning how many were removed. Entries are purged regardless of whether
// the task still exists.
func (s *StateStore) CleanupTaskNotifications(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.loadLocked()
	cutoff := before.UnixMilli()
	removed := 0
	for id, sentAt := range st.TaskNotifications {
		if sentAt < cutoff {
			delete(st.TaskNotifications, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.saveLocked(st); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *StateStore) loadLocked() model.NotificationState {
	var st model.NotificationState
	if err := readJSON(s.path, &st); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read notification state failed, starting empty", "error", err)
		}
		st = model.NotificationState{}
	}
	if st.TaskNotifications == nil {
		st.TaskNotifications = make(map[string]int64)
	}
	return st
}

func (s *StateStore) saveLocked(st model.NotificationState) error {
	if err := writeJSONAtomic(s.path, st); err != nil {
		return fmt.Errorf("save notification state: %w", err)
	}
	return nil
}
