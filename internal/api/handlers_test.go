package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/campointeligente/chatbot/internal/flow"
	"github.com/campointeligente/chatbot/internal/models"
	"github.com/campointeligente/chatbot/internal/openweather"
	"github.com/campointeligente/chatbot/internal/prompt"
	"github.com/campointeligente/chatbot/internal/store"
)

type stubWeather struct{}

func (stubWeather) CurrentWeather(ctx context.Context, city string) (*openweather.Weather, error) {
	return nil, nil
}

func (stubWeather) ForwardGeocode(ctx context.Context, city string) (*openweather.Place, error) {
	return nil, nil
}

func (stubWeather) ReverseGeocode(ctx context.Context, lat, lon float64) (*openweather.Place, error) {
	return nil, nil
}

type recordingSender struct {
	mu      sync.Mutex
	numbers []string
	texts   []string
}

func (m *recordingSender) SendText(ctx context.Context, number, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numbers = append(m.numbers, number)
	m.texts = append(m.texts, text)
	return nil
}

func newTestServer(t *testing.T) (*Server, *store.InMemoryStore, *recordingSender) {
	t.Helper()
	st := store.NewInMemoryStore()
	sender := &recordingSender{}
	engine, err := flow.NewEngine(st, prompt.NewResolver(st), stubWeather{}, sender)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return NewServer(engine, sender, st), st, sender
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebchatHandler(t *testing.T) {
	server, st, _ := newTestServer(t)

	rec := doJSON(t, server.Router(), http.MethodPost, "/webchat/message", `{"session_id":"abc123","message":"oi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	var resp models.WebChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.SessionID != "abc123" {
		t.Errorf("resp.SessionID = %q, want echoed session id", resp.SessionID)
	}
	if !strings.Contains(resp.Response, "como posso te chamar") {
		t.Errorf("resp.Response = %q, want ask-name prompt for a new session", resp.Response)
	}

	user, err := st.GetUser(models.WebChatIDPrefix + "abc123")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user == nil {
		t.Error("session not persisted under the prefixed identifier")
	}
}

func TestWebchatHandlerMissingSessionID(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server.Router(), http.MethodPost, "/webchat/message", `{"message":"oi"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebchatHandlerInvalidJSON(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server.Router(), http.MethodPost, "/webchat/message", `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookHandlerTextMessage(t *testing.T) {
	server, st, sender := newTestServer(t)
	body := `{
		"event": "messages.upsert",
		"instance": "campo",
		"data": {
			"key": {"remoteJid": "5581999990000@s.whatsapp.net", "fromMe": false, "id": "MSG1"},
			"pushName": "Zé",
			"messageType": "conversation",
			"message": {"conversation": "oi"}
		}
	}`

	rec := doJSON(t, server.Router(), http.MethodPost, "/webhook/evolution", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if len(sender.numbers) != 1 || sender.numbers[0] != "5581999990000" {
		t.Fatalf("sender.numbers = %v, want reply to the raw digits", sender.numbers)
	}
	if !strings.Contains(sender.texts[0], "como posso te chamar") {
		t.Errorf("sent reply = %q, want ask-name prompt", sender.texts[0])
	}

	user, err := st.GetUser("5581999990000")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user == nil || user.Stage != models.StateAwaitingName {
		t.Errorf("user = %+v, want onboarding armed", user)
	}
}

func TestWebhookHandlerOwnEchoIgnored(t *testing.T) {
	server, st, sender := newTestServer(t)
	body := `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5581999990000@s.whatsapp.net", "fromMe": true},
			"message": {"conversation": "reply sent by the bot"}
		}
	}`

	rec := doJSON(t, server.Router(), http.MethodPost, "/webhook/evolution", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the provider stops retrying", rec.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != string(models.APIStatusIgnored) {
		t.Errorf("resp.Status = %q, want ignored", resp.Status)
	}
	if len(sender.texts) != 0 {
		t.Errorf("sender.texts = %v, want no reply to a bot echo", sender.texts)
	}
	interactions, _ := st.GetInteractions()
	if len(interactions) != 0 {
		t.Errorf("interactions = %d, want none for an ignored event", len(interactions))
	}
}

func TestWebhookHandlerUnsupportedType(t *testing.T) {
	server, _, sender := newTestServer(t)
	body := `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5581999990000@s.whatsapp.net", "fromMe": false},
			"messageType": "audioMessage",
			"message": {}
		}
	}`

	rec := doJSON(t, server.Router(), http.MethodPost, "/webhook/evolution", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != string(models.APIStatusIgnored) {
		t.Errorf("resp.Status = %q, want ignored", resp.Status)
	}
	if len(sender.texts) != 0 {
		t.Errorf("sender.texts = %v, want no reply for unsupported type", sender.texts)
	}
}

func TestWebhookHandlerInvalidJSON(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server.Router(), http.MethodPost, "/webhook/evolution", `{broken`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for undecodable payload", rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	server, st, _ := newTestServer(t)
	doJSON(t, server.Router(), http.MethodPost, "/webchat/message", `{"session_id":"s1","message":"oi"}`)
	doJSON(t, server.Router(), http.MethodPost, "/webchat/message", `{"session_id":"s1","message":"Maria"}`)
	doJSON(t, server.Router(), http.MethodPost, "/webchat/message", `{"session_id":"s2","message":"oi"}`)

	req := httptest.NewRequest(http.MethodGet, "/interactions/stats", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
		Result struct {
			TotalInteractions   int            `json:"total_interactions"`
			InteractionsPerUser map[string]int `json:"interactions_per_user"`
			AvgReplyLength      float64        `json:"avg_reply_length"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Result.TotalInteractions != 3 {
		t.Errorf("total_interactions = %d, want 3", resp.Result.TotalInteractions)
	}
	if resp.Result.InteractionsPerUser[models.WebChatIDPrefix+"s1"] != 2 {
		t.Errorf("interactions_per_user = %v, want 2 for s1", resp.Result.InteractionsPerUser)
	}
	if resp.Result.AvgReplyLength <= 0 {
		t.Errorf("avg_reply_length = %v, want positive", resp.Result.AvgReplyLength)
	}

	interactions, _ := st.GetInteractions()
	if len(interactions) != 3 {
		t.Errorf("stored interactions = %d, want 3", len(interactions))
	}
}

func TestHealthHandler(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", resp["status"])
	}
}
