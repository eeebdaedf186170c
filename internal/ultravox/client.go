package ultravox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sparkline-ai/voicebridge/internal/upstream"
	"github.com/sparkline-ai/voicebridge/pkg/logging"
)

const (
	defaultBaseURL  = "https://api.ultravox.ai/api/calls"
	defaultModel    = "fixie-ai/ultravox-70B"
	defaultVoice    = "Mark"
	defaultLanguage = "en-US"
	requestTimeout  = 15 * time.Second

	timeExceededMessage = "Sorry, The Call Time Limit Exceeded. Goodbye!"
	inactivityMessage   = "Inactivity Detected. Goodbye!"
)

// Client creates and inspects Ultravox voice sessions.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger

	systemPrompt      string
	model             string
	voice             string
	languageHint      string
	joinTimeout       time.Duration
	maxDuration       time.Duration
	inactivityTimeout time.Duration
}

// Config configures the Ultravox client.
type Config struct {
	// APIKey is the Ultravox API key (X-API-Key header).
	APIKey string
	// BaseURL overrides the Ultravox calls endpoint (for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *logging.Logger

	// SystemPrompt is the default agent prompt for new sessions.
	SystemPrompt string
	// Model, Voice and LanguageHint override the Ultravox defaults.
	Model        string
	Voice        string
	LanguageHint string
	// JoinTimeout is how long Ultravox waits for the media stream to join.
	JoinTimeout time.Duration
	// MaxDuration caps the call length.
	MaxDuration time.Duration
	// InactivityTimeout is the caller-silence window before hangup.
	InactivityTimeout time.Duration
}

// New creates a client for the Ultravox session API.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("ultravox: API key required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		apiKey:            cfg.APIKey,
		baseURL:           strings.TrimRight(baseURL, "/"),
		httpClient:        httpClient,
		logger:            logger,
		systemPrompt:      cfg.SystemPrompt,
		model:             cfg.Model,
		voice:             cfg.Voice,
		languageHint:      cfg.LanguageHint,
		joinTimeout:       cfg.JoinTimeout,
		maxDuration:       cfg.MaxDuration,
		inactivityTimeout: cfg.InactivityTimeout,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.voice == "" {
		c.voice = defaultVoice
	}
	if c.languageHint == "" {
		c.languageHint = defaultLanguage
	}
	if c.joinTimeout <= 0 {
		c.joinTimeout = 30 * time.Second
	}
	if c.maxDuration <= 0 {
		c.maxDuration = 300 * time.Second
	}
	if c.inactivityTimeout <= 0 {
		c.inactivityTimeout = 20 * time.Second
	}
	return c, nil
}

// CreateSessionRequest carries optional per-session overrides.
type CreateSessionRequest struct {
	// SystemPrompt overrides the configured default prompt.
	SystemPrompt string
	// InactivityMessages replaces the default single hang-up message.
	InactivityMessages []InactivityMessage
}

// Session is the subset of the Ultravox response this service needs. The join
// URL is the address the telephony stream connects to.
type Session struct {
	ID      string `json:"callId"`
	JoinURL string `json:"joinUrl"`
}

// CreateSession creates a new Ultravox voice session and returns its
// identifier and join URL. A success response without a join URL is a
// contract violation.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	cfg := c.buildConfig(req)

	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("ultravox: marshal session config: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ultravox: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	c.logger.Info("ultravox: creating session",
		"model", cfg.Model,
		"voice", cfg.Voice,
		"max_duration", cfg.MaxDuration,
	)

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, fmt.Errorf("ultravox: decode response: %w", err)
	}
	if strings.TrimSpace(session.JoinURL) == "" {
		return nil, &upstream.ContractViolation{Provider: "ultravox", Field: "joinUrl"}
	}

	c.logger.Info("ultravox: session created", "call_id", session.ID)
	return &session, nil
}

// GetSession fetches the details of one session.
func (c *Client) GetSession(ctx context.Context, id string) (map[string]any, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("ultravox: session id required")
	}
	body, err := c.get(ctx, c.baseURL+"/"+id)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ultravox: decode session %s: %w", id, err)
	}
	return out, nil
}

// ListSessions returns all sessions. Ultravox paginates with a results
// envelope; older deployments returned a bare array, so both are accepted.
func (c *Client) ListSessions(ctx context.Context) ([]map[string]any, error) {
	body, err := c.get(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("ultravox: decode session list: %w", err)
	}
	return list, nil
}

func (c *Client) buildConfig(req CreateSessionRequest) sessionConfig {
	prompt := req.SystemPrompt
	if prompt == "" {
		prompt = c.systemPrompt
	}
	inactivity := req.InactivityMessages
	if len(inactivity) == 0 {
		inactivity = []InactivityMessage{{
			Duration:    formatSeconds(c.inactivityTimeout),
			Message:     inactivityMessage,
			EndBehavior: "END_BEHAVIOR_HANG_UP_SOFT",
		}}
	}
	return sessionConfig{
		SystemPrompt: prompt,
		Temperature:  0.7,
		Model:        c.model,
		Voice:        c.voice,
		LanguageHint: c.languageHint,
		InitialMessages: []initialMessage{{
			Role:                  "MESSAGE_ROLE_USER",
			Medium:                "MESSAGE_MEDIUM_VOICE",
			CallStageMessageIndex: 1,
			CallStageID:           "1",
		}},
		JoinTimeout:         formatSeconds(c.joinTimeout),
		MaxDuration:         formatSeconds(c.maxDuration),
		TimeExceededMessage: timeExceededMessage,
		InactivityMessages:  inactivity,
		SelectedTools:       []selectedTool{{ToolName: "hangUp"}},
		Medium:              map[string]struct{}{"plivo": {}},
		RecordingEnabled:    false,
		FirstSpeaker:        "FIRST_SPEAKER_USER",
		TranscriptOptional:  true,
		InitialOutputMedium: "MESSAGE_MEDIUM_VOICE",
		VadSettings: vadSettings{
			TurnEndpointDelay:           "1s",
			MinimumTurnDuration:         "0.15s",
			MinimumInterruptionDuration: "0.5s",
			FrameActivationThreshold:    0.1,
		},
		ExperimentalSettings: map[string]any{},
		Metadata:             map[string]string{},
		InitialState:         map[string]any{},
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ultravox: create request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &upstream.Error{Provider: "ultravox", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ultravox: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ultravox: API error",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return nil, &upstream.Error{Provider: "ultravox", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// formatSeconds renders durations the way the Ultravox API expects them:
// "30s", "0.15s".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
