package plivo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/sparkline-ai/voicebridge/internal/upstream"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := New(Config{
		AuthID:        "MA_TEST_ID",
		AuthToken:     "secret_token",
		FromNumber:    "+15550001111",
		PublicBaseURL: "https://relay.example.com",
		BaseURL:       serverURL,
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing auth", Config{PublicBaseURL: "https://relay.example.com"}},
		{"missing token", Config{AuthID: "id", PublicBaseURL: "https://relay.example.com"}},
		{"missing base url", Config{AuthID: "id", AuthToken: "tok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCreateCall_EmptyDestination(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.CreateCall(context.Background(), "wss://join", ""); err == nil {
		t.Error("expected error for empty destination")
	}
	if hits.Load() != 0 {
		t.Error("expected no API call for empty destination")
	}
}

func TestCreateCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		if r.URL.Path != "/v1/Account/MA_TEST_ID/Call/" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "MA_TEST_ID" || pass != "secret_token" {
			t.Errorf("basic auth: got %q/%q ok=%v", user, pass, ok)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["from"] != "+15550001111" {
			t.Errorf("from: got %q", body["from"])
		}
		if body["to"] != "+15559998888" {
			t.Errorf("to: got %q", body["to"])
		}
		if body["answer_method"] != "POST" {
			t.Errorf("answer_method: got %q", body["answer_method"])
		}
		answerURL, err := url.Parse(body["answer_url"])
		if err != nil {
			t.Fatalf("answer_url parse: %v", err)
		}
		if answerURL.Path != "/answer_url" {
			t.Errorf("answer_url path: got %q", answerURL.Path)
		}
		if got := answerURL.Query().Get("join_url"); got != "wss://ultravox.example/join?x=1&y=2" {
			t.Errorf("join_url round-trip: got %q", got)
		}

		json.NewEncoder(w).Encode(CallResponse{
			Message:     "call fired",
			RequestUUID: "req_12345",
			APIID:       "api_67890",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.CreateCall(context.Background(), "wss://ultravox.example/join?x=1&y=2", "+15559998888")
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if resp.RequestUUID != "req_12345" {
		t.Errorf("RequestUUID: got %q", resp.RequestUUID)
	}
}

func TestCreateCall_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid destination"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateCall(context.Background(), "wss://join", "+15559998888")
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected upstream.Error, got %v", err)
	}
	if upErr.Provider != "plivo" {
		t.Errorf("provider: got %q", upErr.Provider)
	}
	if upErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d", upErr.StatusCode)
	}
}

func TestCreateCall_MissingRequestUUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"call fired"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateCall(context.Background(), "wss://join", "+15559998888")
	var violation *upstream.ContractViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected ContractViolation, got %v", err)
	}
}

func TestSpeakText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/Account/MA_TEST_ID/Call/call_uuid_1/Speak/" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "Hello there" {
			t.Errorf("text: got %q", body["text"])
		}
		if body["voice"] != "WOMAN" {
			t.Errorf("voice default: got %q", body["voice"])
		}
		if body["language"] != "en-US" {
			t.Errorf("language default: got %q", body["language"])
		}
		w.Write([]byte(`{"message":"speak api accepted"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.SpeakText(context.Background(), "call_uuid_1", "Hello there", "", ""); err != nil {
		t.Fatalf("SpeakText: %v", err)
	}
}

func TestSpeakText_Validation(t *testing.T) {
	client := newTestClient(t, "http://unused.example")
	if err := client.SpeakText(context.Background(), "", "hi", "", ""); err == nil {
		t.Error("expected error for missing call UUID")
	}
	if err := client.SpeakText(context.Background(), "uuid", "  ", "", ""); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestAnswerCallbackURL(t *testing.T) {
	client := newTestClient(t, "http://unused.example")
	got := client.AnswerCallbackURL("wss://join?a=1&b=2")
	want := "https://relay.example.com/answer_url?join_url=" + url.QueryEscape("wss://join?a=1&b=2")
	if got != want {
		t.Errorf("AnswerCallbackURL: got %q, want %q", got, want)
	}
}
