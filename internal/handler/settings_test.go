package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhollis/cadence/internal/model"
	"github.com/mhollis/cadence/internal/store"
)

func setupSettingsHandler(t *testing.T) (*SettingsHandler, *store.StateStore) {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()
	state := store.NewStateStore(filepath.Join(dir, "state.json"), logger)
	settings := store.NewSettingsStore(filepath.Join(dir, "settings.json"), state, logger)
	return NewSettingsHandler(settings, logger), state
}

func TestSettingsGetReturnsDefaults(t *testing.T) {
	h, _ := setupSettingsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cfg model.NotificationSettings
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cfg != model.DefaultNotificationSettings() {
		t.Errorf("settings = %+v, want defaults", cfg)
	}
}

func TestSettingsUpdate(t *testing.T) {
	h, state := setupSettingsHandler(t)

	if err := state.MarkHabitReminderSent("2026-08-31"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"reminderTime":"07:45"}`))
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cfg model.NotificationSettings
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cfg.ReminderTime != "07:45" {
		t.Errorf("reminderTime = %q, want %q", cfg.ReminderTime, "07:45")
	}
	if st := state.Load(); st.HabitReminderLastSent != nil {
		t.Error("changing reminder time should clear the daily dedup marker")
	}
}

func TestSettingsUpdateRejectsBadTimes(t *testing.T) {
	h, _ := setupSettingsHandler(t)

	cases := []string{
		`{"reminderTime":"25:00"}`,
		`{"reminderTime":"7:45"}`,
		`{"quietHoursStart":"22:61"}`,
		`{"quietHoursEnd":"noon"}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Update(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}
