//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestFanout_EventThroughGatewayReachesUsers(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.AGBaseURL+"/healthz", 60*time.Second)
	WaitHealthz(t, cfg.WorkerHealth, 60*time.Second)
	db := DBOpen(t, cfg.DBDSN)

	var ann, bob struct {
		ID int64 `json:"id"`
	}
	suffix := time.Now().Format("150405.000000")
	_ = json.Unmarshal(HTTPDoJSON(t, http.MethodPost, cfg.AGBaseURL+"/v1/users", 0,
		map[string]string{"name": "Ann", "email": "ann" + suffix + "@example.com"}, http.StatusCreated), &ann)
	_ = json.Unmarshal(HTTPDoJSON(t, http.MethodPost, cfg.AGBaseURL+"/v1/users", 0,
		map[string]string{"name": "Bob", "email": "bob" + suffix + "@example.com"}, http.StatusCreated), &bob)

	contactID := RandID()
	HTTPDoJSON(t, http.MethodPost, cfg.AGBaseURL+"/v1/events", 0, map[string]any{
		"kind":   "note_attached",
		"target": map[string]any{"id": contactID, "type": "contact", "label": "ACME"},
		"sender": map[string]any{"id": ann.ID, "name": "Ann"},
	}, http.StatusAccepted)

	bodies := WaitNotifications(t, db, bob.ID, "contact.note_attached", "contact", contactID, 1, 30*time.Second)
	if len(bodies) != 1 {
		t.Fatalf("bob: want 1 notification, got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], "Ann added a note to contact ACME") {
		t.Fatalf("unexpected body: %s", bodies[0])
	}

	if got := WaitNotifications(t, db, ann.ID, "contact.note_attached", "contact", contactID, 1, 2*time.Second); len(got) != 0 {
		t.Fatalf("sender must not be notified, got %v", got)
	}
}

func TestFanout_WorkerConsumesQueueDirectly(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.FanoutTopic)
	WaitHealthz(t, cfg.WorkerHealth, 60*time.Second)
	db := DBOpen(t, cfg.DBDSN)

	first := SeedUser(t, db, "mentioned")
	other := SeedUser(t, db, "bystander")
	noteID := RandID()

	PublishJSON(t, cfg.KafkaBootstrap, cfg.FanoutTopic, []byte("note:1"), map[string]any{
		"idempotency_key": "it-" + time.Now().Format(time.RFC3339Nano),
		"requested_at":    time.Now().UTC(),
		"event": map[string]any{
			"kind":               "user_mentioned",
			"target":             map[string]any{"id": noteID, "type": "note"},
			"mentioned_user_ids": []int64{first},
			"occurred_at":        time.Now().UTC(),
		},
	})

	if got := WaitNotifications(t, db, first, "user_mentioned", "note", noteID, 1, 30*time.Second); len(got) != 1 {
		t.Fatalf("mentioned user: want 1 notification, got %d", len(got))
	}
	if got := WaitNotifications(t, db, other, "user_mentioned", "note", noteID, 1, time.Second); len(got) != 0 {
		t.Fatalf("bystander must not be notified, got %v", got)
	}
}
