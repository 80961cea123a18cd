package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhollis/cadence/internal/model"
	"github.com/mhollis/cadence/internal/store"
	"github.com/mhollis/cadence/internal/task"
)

const (
	// checkInterval is the cadence of the daily-reminder evaluation.
	checkInterval = time.Minute
	// cleanupInterval is the cadence of dedup-state cleanup.
	cleanupInterval = 5 * time.Minute
	// reminderTolerance is how far the clock may be from the configured
	// reminder time and still match; the tick is not guaranteed to land on
	// the exact minute.
	reminderTolerance = 1
	// taskDedupTTL is how long a per-task sent marker is kept before the
	// periodic cleanup purges it.
	taskDedupTTL = 7 * 24 * time.Hour

	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Scheduler evaluates reminder conditions on a fixed cadence and triggers
// the dispatcher at most once per logical event. Evaluations never overlap:
// ticks that would land while a previous evaluation is still running are
// skipped, and externally-driven task checks serialize behind the same lock.
type Scheduler struct {
	settings   *store.SettingsStore
	state      *store.StateStore
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	evalMu sync.Mutex

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(dispatcher *Dispatcher, settings *store.SettingsStore, state *store.StateStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		settings:   settings,
		state:      state,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Start begins the evaluation loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		check := time.NewTicker(checkInterval)
		defer check.Stop()
		cleanup := time.NewTicker(cleanupInterval)
		defer cleanup.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-check.C:
				s.tick()
			case <-cleanup.C:
				s.cleanup()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	// Skip the tick entirely if an evaluation is still in flight;
	// interleaved read-modify-write on the dedup state would reintroduce
	// duplicate sends.
	if !s.evalMu.TryLock() {
		s.logger.Debug("previous evaluation still running, skipping tick")
		return
	}
	defer s.evalMu.Unlock()

	s.checkDaily()
}

// checkDaily dispatches the daily habit reminder when all eligibility
// conditions hold, then marks today as sent. A zero-subscriber window
// short-circuits before marking, so the reminder can still fire later the
// same day once a subscriber registers.
func (s *Scheduler) checkDaily() {
	now := s.now()
	cfg := s.settings.Load()

	if !cfg.HabitRemindersEnabled {
		return
	}
	if !withinReminderWindow(now, cfg.ReminderTime) {
		return
	}
	if cfg.QuietHoursEnabled && inQuietHours(now, cfg.QuietHoursStart, cfg.QuietHoursEnd) {
		return
	}

	today := now.Format(dateLayout)
	if s.state.HabitReminderSentOn(today) {
		return
	}

	res := s.dispatcher.Dispatch(Payload{
		Title: "Habit Reminder",
		Body:  "Time to check in on today's habits",
		URL:   "/",
		Tag:   "habit-daily",
	})
	if res.Total == 0 {
		return
	}

	if err := s.state.MarkHabitReminderSent(today); err != nil {
		s.logger.Error("mark habit reminder sent", "error", err)
		return
	}
	s.logger.Info("sent daily habit reminder", "success", res.Success, "failed", res.Failed)
}

// CheckTasks runs one due-soon evaluation pass over the supplied task list
// and returns the number of tasks a notification was dispatched for. Each
// task is notified at most once until its dedup marker is purged.
func (s *Scheduler) CheckTasks(tasks []model.Task) int {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	cfg := s.settings.Load()
	if !cfg.TaskRemindersEnabled {
		return 0
	}

	now := s.now()
	sent := 0
	for _, t := range task.FilterNotifiable(tasks, now) {
		if s.state.TaskNotified(t.ID) {
			continue
		}

		minutes := int(t.DueDate.Sub(now).Minutes())
		if minutes < 1 {
			minutes = 1
		}
		res := s.dispatcher.Dispatch(Payload{
			Title: "Task Due Soon",
			Body:  fmt.Sprintf("%q is due in about %d min", t.Title, minutes),
			URL:   "/tasks",
			Tag:   "task-due-" + t.ID,
		})
		if res.Total == 0 {
			// No subscribers; leave the task unmarked so it can still be
			// notified once an endpoint registers.
			return sent
		}

		if err := s.state.MarkTaskNotified(t.ID, now); err != nil {
			s.logger.Error("mark task notified", "task_id", t.ID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// cleanup purges task dedup markers older than the retention threshold.
func (s *Scheduler) cleanup() {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	removed, err := s.state.CleanupTaskNotifications(s.now().Add(-taskDedupTTL))
	if err != nil {
		s.logger.Error("cleanup task notification state", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("purged stale task notification markers", "removed", removed)
	}
}

// withinReminderWindow reports whether now's wall-clock time is within the
// tolerance of the "HH:MM" reminder time, wrap-aware around midnight.
func withinReminderWindow(now time.Time, reminderTime string) bool {
	target, err := clockMinutes(reminderTime)
	if err != nil {
		return false
	}
	cur := now.Hour()*60 + now.Minute()

	diff := cur - target
	if diff < 0 {
		diff = -diff
	}
	if wrapped := 24*60 - diff; wrapped < diff {
		diff = wrapped
	}
	return diff <= reminderTolerance
}

// inQuietHours reports whether now falls inside the [start, end) quiet-hours
// span. start > end is an overnight span: inside means at-or-after start or
// before end.
func inQuietHours(now time.Time, start, end string) bool {
	startMin, err := clockMinutes(start)
	if err != nil {
		return false
	}
	endMin, err := clockMinutes(end)
	if err != nil {
		return false
	}
	cur := now.Hour()*60 + now.Minute()

	switch {
	case startMin < endMin:
		return cur >= startMin && cur < endMin
	case startMin > endMin:
		return cur >= startMin || cur < endMin
	default:
		return false
	}
}

func clockMinutes(hhmm string) (int, error) {
	t, err := time.Parse(clockLayout, hhmm)
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
