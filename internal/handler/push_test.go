package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mhollis/cadence/internal/model"
	"github.com/mhollis/cadence/internal/push"
	"github.com/mhollis/cadence/internal/store"
)

type fakeSender struct {
	sent []push.Payload
	fail map[string]error
}

func (f *fakeSender) Send(sub *model.PushSubscription, payload push.Payload) error {
	if err, ok := f.fail[sub.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, payload)
	return nil
}

type pushEnv struct {
	handler *PushHandler
	sender  *fakeSender
	subs    *store.SubscriptionStore
	state   *store.StateStore
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupPushHandler(t *testing.T) *pushEnv {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()

	state := store.NewStateStore(filepath.Join(dir, "state.json"), logger)
	settings := store.NewSettingsStore(filepath.Join(dir, "settings.json"), state, logger)
	subs := store.NewSubscriptionStore(filepath.Join(dir, "subs.json"), logger)

	sender := &fakeSender{fail: make(map[string]error)}
	dispatcher := push.NewDispatcher(sender, subs, logger)
	scheduler := push.NewScheduler(dispatcher, settings, state, logger)
	svc := push.NewService(push.Config{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv", Subscriber: "mailto:t@example.com"})

	return &pushEnv{
		handler: NewPushHandler(subs, dispatcher, scheduler, svc, logger),
		sender:  sender,
		subs:    subs,
		state:   state,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestSubscribeCreatedThenOK(t *testing.T) {
	env := setupPushHandler(t)
	body := `{"endpoint":"https://push.example/ep1","keys":{"p256dh":"p","auth":"a"}}`

	rec := postJSON(t, env.handler.Subscribe, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first subscribe status = %d, want 201", rec.Code)
	}

	rec = postJSON(t, env.handler.Subscribe, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate subscribe status = %d, want 200", rec.Code)
	}

	if got := len(env.subs.List()); got != 1 {
		t.Errorf("registry size = %d, want 1", got)
	}
}

func TestSubscribeValidation(t *testing.T) {
	env := setupPushHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing endpoint", `{"keys":{"p256dh":"p","auth":"a"}}`},
		{"missing keys", `{"endpoint":"https://push.example/ep1"}`},
		{"invalid JSON", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postJSON(t, env.handler.Subscribe, tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUnsubscribe(t *testing.T) {
	env := setupPushHandler(t)
	postJSON(t, env.handler.Subscribe, `{"endpoint":"https://push.example/ep1","keys":{"p256dh":"p","auth":"a"}}`)

	rec := postJSON(t, env.handler.Unsubscribe, `{"endpoint":"https://push.example/ep1"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("unsubscribe status = %d, want 200", rec.Code)
	}

	rec = postJSON(t, env.handler.Unsubscribe, `{"endpoint":"https://push.example/ep1"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second unsubscribe status = %d, want 404", rec.Code)
	}

	rec = postJSON(t, env.handler.Unsubscribe, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing endpoint status = %d, want 400", rec.Code)
	}
}

func TestVAPIDPublicKey(t *testing.T) {
	env := setupPushHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/vapid-public-key", nil)
	rec := httptest.NewRecorder()
	env.handler.VAPIDPublicKey(rec, req)

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["publicKey"] != "pub" {
		t.Errorf("publicKey = %q, want %q", resp["publicKey"], "pub")
	}
}

func TestCheckTasksDedup(t *testing.T) {
	env := setupPushHandler(t)
	postJSON(t, env.handler.Subscribe, `{"endpoint":"https://push.example/ep1","keys":{"p256dh":"p","auth":"a"}}`)

	due := time.Now().Add(20 * time.Minute).Format(time.RFC3339)
	body := fmt.Sprintf(`{"tasks":[{"id":"t1","title":"Write report","priority":"High","status":"Planned","dueDate":%q}]}`, due)

	rec := postJSON(t, env.handler.CheckTasks, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-tasks status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["sent"] != 1 {
		t.Errorf("sent = %d, want 1", resp["sent"])
	}
	if !env.state.TaskNotified("t1") {
		t.Error("taskNotifications[t1] should be populated")
	}

	// Identical resubmission is deduplicated.
	rec = postJSON(t, env.handler.CheckTasks, body)
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["sent"] != 0 {
		t.Errorf("resubmit sent = %d, want 0", resp["sent"])
	}
}

func TestCheckTasksRequiresArray(t *testing.T) {
	env := setupPushHandler(t)

	for _, body := range []string{`{}`, `{"tasks":null}`, `{"tasks":"nope"}`} {
		if rec := postJSON(t, env.handler.CheckTasks, body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSendNotificationDirect(t *testing.T) {
	env := setupPushHandler(t)
	postJSON(t, env.handler.Subscribe, `{"endpoint":"https://push.example/ep1","keys":{"p256dh":"p","auth":"a"}}`)
	postJSON(t, env.handler.Subscribe, `{"endpoint":"https://push.example/ep2","keys":{"p256dh":"p","auth":"a"}}`)

	rec := postJSON(t, env.handler.SendNotification, `{"title":"Hi","body":"There"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("send-notification status = %d, want 200", rec.Code)
	}

	var res push.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Total != 2 || res.Success != 2 || res.Failed != 0 {
		t.Errorf("result = %+v, want total 2, success 2", res)
	}
}

func TestSendNotificationValidation(t *testing.T) {
	env := setupPushHandler(t)

	for _, body := range []string{`{"title":"Hi"}`, `{"body":"There"}`, `{}`} {
		if rec := postJSON(t, env.handler.SendNotification, body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}
