package ultravox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sparkline-ai/voicebridge/internal/upstream"
)

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{APIKey: "key_123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != "fixie-ai/ultravox-70B" {
		t.Errorf("model: got %q", c.model)
	}
	if c.voice != "Mark" {
		t.Errorf("voice: got %q", c.voice)
	}
	if c.joinTimeout != 30*time.Second {
		t.Errorf("joinTimeout: got %v", c.joinTimeout)
	}
}

func TestCreateSession_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if r.Header.Get("X-API-Key") != "test_key" {
			t.Errorf("api key header: got %q", r.Header.Get("X-API-Key"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type: got %q", r.Header.Get("Content-Type"))
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["systemPrompt"] != "You are a test agent." {
			t.Errorf("systemPrompt: got %v", payload["systemPrompt"])
		}
		if payload["model"] != "fixie-ai/ultravox-70B" {
			t.Errorf("model: got %v", payload["model"])
		}
		if payload["temperature"] != 0.7 {
			t.Errorf("temperature: got %v", payload["temperature"])
		}
		medium, ok := payload["medium"].(map[string]any)
		if !ok {
			t.Fatalf("medium: got %T", payload["medium"])
		}
		if _, ok := medium["plivo"]; !ok {
			t.Error("medium missing plivo channel")
		}
		if enabled, ok := payload["recordingEnabled"].(bool); !ok || enabled {
			t.Errorf("recordingEnabled: got %v", payload["recordingEnabled"])
		}
		if payload["firstSpeaker"] != "FIRST_SPEAKER_USER" {
			t.Errorf("firstSpeaker: got %v", payload["firstSpeaker"])
		}
		if payload["joinTimeout"] != "30s" {
			t.Errorf("joinTimeout: got %v", payload["joinTimeout"])
		}
		if payload["maxDuration"] != "300s" {
			t.Errorf("maxDuration: got %v", payload["maxDuration"])
		}
		vad, ok := payload["vadSettings"].(map[string]any)
		if !ok {
			t.Fatalf("vadSettings: got %T", payload["vadSettings"])
		}
		if vad["minimumTurnDuration"] != "0.15s" {
			t.Errorf("minimumTurnDuration: got %v", vad["minimumTurnDuration"])
		}
		tools, ok := payload["selectedTools"].([]any)
		if !ok || len(tools) != 1 {
			t.Fatalf("selectedTools: got %v", payload["selectedTools"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"callId":  "call_abc",
			"joinUrl": "wss://ultravox.example/join/abc",
		})
	}))
	defer server.Close()

	client, err := New(Config{
		APIKey:       "test_key",
		BaseURL:      server.URL,
		SystemPrompt: "You are a test agent.",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	session, err := client.CreateSession(context.Background(), CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID != "call_abc" {
		t.Errorf("ID: got %q", session.ID)
	}
	if session.JoinURL != "wss://ultravox.example/join/abc" {
		t.Errorf("JoinURL: got %q", session.JoinURL)
	}
}

func TestCreateSession_PromptOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["systemPrompt"] != "override prompt" {
			t.Errorf("systemPrompt: got %v", payload["systemPrompt"])
		}
		json.NewEncoder(w).Encode(map[string]string{"callId": "c", "joinUrl": "wss://x"})
	}))
	defer server.Close()

	client, _ := New(Config{APIKey: "k", BaseURL: server.URL, SystemPrompt: "default prompt"})
	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{SystemPrompt: "override prompt"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
}

func TestCreateSession_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"detail":"quota exceeded"}`))
	}))
	defer server.Close()

	client, _ := New(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.CreateSession(context.Background(), CreateSessionRequest{})
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected upstream.Error, got %v", err)
	}
	if upErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status: got %d", upErr.StatusCode)
	}
	if upErr.Provider != "ultravox" {
		t.Errorf("provider: got %q", upErr.Provider)
	}
}

func TestCreateSession_MissingJoinURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"callId": "call_abc"})
	}))
	defer server.Close()

	client, _ := New(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.CreateSession(context.Background(), CreateSessionRequest{})
	var violation *upstream.ContractViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected ContractViolation, got %v", err)
	}
	if violation.Field != "joinUrl" {
		t.Errorf("field: got %q", violation.Field)
	}
}

func TestGetSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: got %s", r.Method)
		}
		if r.URL.Path != "/call_abc" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"callId": "call_abc", "ended": true})
	}))
	defer server.Close()

	client, _ := New(Config{APIKey: "k", BaseURL: server.URL})
	session, err := client.GetSession(context.Background(), "call_abc")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session["callId"] != "call_abc" {
		t.Errorf("callId: got %v", session["callId"])
	}
}

func TestGetSession_EmptyID(t *testing.T) {
	client, _ := New(Config{APIKey: "k"})
	if _, err := client.GetSession(context.Background(), " "); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestListSessions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"results envelope", `{"results":[{"callId":"a"},{"callId":"b"}],"next":null}`, 2},
		{"bare array", `[{"callId":"a"}]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := New(Config{APIKey: "k", BaseURL: server.URL})
			sessions, err := client.ListSessions(context.Background())
			if err != nil {
				t.Fatalf("ListSessions: %v", err)
			}
			if len(sessions) != tt.want {
				t.Errorf("sessions: got %d, want %d", len(sessions), tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{300 * time.Second, "300s"},
		{150 * time.Millisecond, "0.15s"},
		{500 * time.Millisecond, "0.5s"},
		{time.Second, "1s"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
