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

// SubscriptionStore persists the set of registered push endpoints. The
// endpoint URL is the unique key. All mutation is read-full, modify,
// atomic-replace; the dataset is small and write volume low.
type SubscriptionStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	now    func() time.Time
}

func NewSubscriptionStore(path string, logger *slog.Logger) *SubscriptionStore {
	return &SubscriptionStore{path: path, logger: logger, now: time.Now}
}

// List returns a snapshot of all registered subscriptions. On read error
// the safe fallback is an empty list: better to send nothing than to push
// through garbled endpoint data.
func (s *SubscriptionStore) List() []model.PushSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Add registers a subscription. Returns false without touching storage if
// the endpoint is already registered; otherwise appends with a
// server-assigned creation time and returns true.
func (s *SubscriptionStore) Add(endpoint string, keys model.SubscriptionKeys) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.loadLocked()
	for _, sub := range subs {
		if sub.Endpoint == endpoint {
			return false, nil
		}
	}

	subs = append(subs, model.PushSubscription{
		Endpoint:  endpoint,
		Keys:      keys,
		CreatedAt: s.now().UTC(),
	})
	if err := writeJSONAtomic(s.path, subs); err != nil {
		return false, fmt.Errorf("save subscriptions: %w", err)
	}
	return true, nil
}

// Remove deletes the subscription with the given endpoint, reporting
// whether a removal occurred.
func (s *SubscriptionStore) Remove(endpoint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.loadLocked()
	kept := subs[:0]
	for _, sub := range subs {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	if len(kept) == len(subs) {
		return false, nil
	}
	if err := writeJSONAtomic(s.path, kept); err != nil {
		return false, fmt.Errorf("save subscriptions: %w", err)
	}
	return true, nil
}

func (s *SubscriptionStore) loadLocked() []model.PushSubscription {
	var subs []model.PushSubscription
	if err := readJSON(s.path, &subs); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read subscriptions failed, treating registry as empty", "error", err)
		}
		return nil
	}
	return subs
}
