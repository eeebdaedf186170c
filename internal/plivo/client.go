package plivo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sparkline-ai/voicebridge/internal/upstream"
	"github.com/sparkline-ai/voicebridge/pkg/logging"
)

const (
	defaultPlivoBaseURL = "https://api.plivo.com"
	plivoCallTimeout    = 15 * time.Second
)

// Client places outbound calls and issues live-call Speak instructions via
// the Plivo voice API.
type Client struct {
	authID        string
	authToken     string
	fromNumber    string
	publicBaseURL string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// Config configures the Plivo client.
type Config struct {
	// AuthID and AuthToken are the Plivo account credentials (Basic auth).
	AuthID    string
	AuthToken string
	// FromNumber is the Plivo number outbound calls originate from (E.164).
	FromNumber string
	// PublicBaseURL is this service's externally reachable base URL; the
	// answer callback for outbound calls points at it.
	PublicBaseURL string
	// BaseURL overrides the Plivo API base URL (for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// New creates a client for the Plivo call-control API.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AuthID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("plivo: auth ID and token required")
	}
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		return nil, fmt.Errorf("plivo: public base URL required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPlivoBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: plivoCallTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		authID:        cfg.AuthID,
		authToken:     cfg.AuthToken,
		fromNumber:    cfg.FromNumber,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// CallResponse is the Plivo API response for call creation.
type CallResponse struct {
	Message     string `json:"message"`
	RequestUUID string `json:"request_uuid"`
	APIID       string `json:"api_id"`
}

type createCallRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	AnswerURL    string `json:"answer_url"`
	AnswerMethod string `json:"answer_method"`
}

// CreateCall places an outbound call to toNumber. The answer callback points
// back at this service's /answer_url with the join URL attached, so Plivo
// fetches the stream instructions once the call is answered.
func (c *Client) CreateCall(ctx context.Context, joinURL, toNumber string) (*CallResponse, error) {
	if strings.TrimSpace(toNumber) == "" {
		return nil, fmt.Errorf("plivo: destination number required")
	}
	if strings.TrimSpace(joinURL) == "" {
		return nil, fmt.Errorf("plivo: join URL required")
	}

	req := createCallRequest{
		From:         c.fromNumber,
		To:           toNumber,
		AnswerURL:    c.AnswerCallbackURL(joinURL),
		AnswerMethod: http.MethodPost,
	}

	c.logger.Info("plivo: creating outbound call",
		"from", c.fromNumber,
		"to", toNumber,
		"answer_url", req.AnswerURL,
	)

	endpoint := fmt.Sprintf("%s/v1/Account/%s/Call/", c.baseURL, c.authID)
	respBody, err := c.post(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}

	var resp CallResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("plivo: decode response: %w", err)
	}
	if strings.TrimSpace(resp.RequestUUID) == "" {
		return nil, &upstream.ContractViolation{Provider: "plivo", Field: "request_uuid"}
	}

	c.logger.Info("plivo: call created", "request_uuid", resp.RequestUUID)
	return &resp, nil
}

// SpeakText speaks text into a live call via the Plivo Speak API.
func (c *Client) SpeakText(ctx context.Context, callUUID, text, voice, language string) error {
	if strings.TrimSpace(callUUID) == "" {
		return fmt.Errorf("plivo: call UUID required")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("plivo: text required")
	}
	if voice == "" {
		voice = "WOMAN"
	}
	if language == "" {
		language = "en-US"
	}

	endpoint := fmt.Sprintf("%s/v1/Account/%s/Call/%s/Speak/", c.baseURL, c.authID, callUUID)
	payload := map[string]string{
		"text":     text,
		"voice":    voice,
		"language": language,
	}

	c.logger.Info("plivo: speaking text on call", "call_uuid", callUUID)
	if _, err := c.post(ctx, endpoint, payload); err != nil {
		return err
	}
	return nil
}

// AnswerCallbackURL builds the answer callback for an outbound call, carrying
// the join URL as a query parameter.
func (c *Client) AnswerCallbackURL(joinURL string) string {
	return c.publicBaseURL + "/answer_url?join_url=" + url.QueryEscape(joinURL)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("plivo: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("plivo: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.authID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &upstream.Error{Provider: "plivo", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("plivo: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("plivo: API error",
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return nil, &upstream.Error{Provider: "plivo", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
