package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/mhollis/cadence/internal/handler"
	"github.com/mhollis/cadence/internal/middleware"
	"github.com/mhollis/cadence/internal/push"
	"github.com/mhollis/cadence/internal/store"
)

type Server struct {
	settingsH *handler.SettingsHandler
	pushH     *handler.PushHandler
	scheduler *push.Scheduler
	logger    *slog.Logger
}

// New wires the stores, push service, dispatcher, and scheduler. Durable
// records live as JSON files under dataDir.
func New(dataDir string, pushCfg push.Config, logger *slog.Logger) *Server {
	storeLogger := logger.With("component", "store")
	stateStore := store.NewStateStore(filepath.Join(dataDir, "notification_state.json"), storeLogger)
	settingsStore := store.NewSettingsStore(filepath.Join(dataDir, "notification_settings.json"), stateStore, storeLogger)
	subStore := store.NewSubscriptionStore(filepath.Join(dataDir, "subscriptions.json"), storeLogger)

	pushLogger := logger.With("component", "push")
	pushSvc := push.NewService(pushCfg)
	dispatcher := push.NewDispatcher(pushSvc, subStore, pushLogger)
	scheduler := push.NewScheduler(dispatcher, settingsStore, stateStore, pushLogger)

	return &Server{
		settingsH: handler.NewSettingsHandler(settingsStore, logger.With("component", "settings_handler")),
		pushH:     handler.NewPushHandler(subStore, dispatcher, scheduler, pushSvc, logger.With("component", "push_handler")),
		scheduler: scheduler,
		logger:    logger,
	}
}

// Scheduler returns the reminder scheduler so main can start and stop it.
func (s *Server) Scheduler() *push.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /settings", s.settingsH.Get)
	mux.HandleFunc("PUT /settings", s.settingsH.Update)

	mux.HandleFunc("POST /subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /unsubscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("GET /vapid-public-key", s.pushH.VAPIDPublicKey)

	mux.HandleFunc("POST /check-tasks", s.pushH.CheckTasks)
	mux.HandleFunc("POST /send-notification", s.pushH.SendNotification)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
