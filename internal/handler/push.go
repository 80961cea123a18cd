package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mhollis/cadence/internal/model"
	"github.com/mhollis/cadence/internal/push"
	"github.com/mhollis/cadence/internal/store"
)

type PushHandler struct {
	subs       *store.SubscriptionStore
	dispatcher *push.Dispatcher
	scheduler  *push.Scheduler
	service    *push.Service
	logger     *slog.Logger
}

func NewPushHandler(subs *store.SubscriptionStore, dispatcher *push.Dispatcher, scheduler *push.Scheduler, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		subs:       subs,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		service:    service,
		logger:     logger,
	}
}

type subscribeRequest struct {
	Endpoint string                 `json:"endpoint"`
	Keys     model.SubscriptionKeys `json:"keys"`
}

// Subscribe handles POST /subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "keys.p256dh and keys.auth are required")
		return
	}

	added, err := h.subs.Add(req.Endpoint, req.Keys)
	if err != nil {
		h.logger.Error("add push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"subscribed": true})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe handles POST /unsubscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	removed, err := h.subs.Remove(req.Endpoint)
	if err != nil {
		h.logger.Error("remove push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// ListSubscriptions handles GET /subscriptions
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs := h.subs.List()
	if subs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// VAPIDPublicKey handles GET /vapid-public-key
func (h *PushHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.service.VAPIDPublicKey()})
}

type checkTasksRequest struct {
	Tasks []model.Task `json:"tasks"`
}

// CheckTasks handles POST /check-tasks
func (h *PushHandler) CheckTasks(w http.ResponseWriter, r *http.Request) {
	var req checkTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Tasks == nil {
		writeError(w, http.StatusBadRequest, "tasks must be an array")
		return
	}

	sent := h.scheduler.CheckTasks(req.Tasks)
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

type sendNotificationRequest struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// SendNotification handles POST /send-notification. It bypasses all
// scheduling and dedup logic and dispatches directly.
func (h *PushHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "title and body are required")
		return
	}

	res := h.dispatcher.Dispatch(push.Payload{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	writeJSON(w, http.StatusOK, res)
}
