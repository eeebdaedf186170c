package relay

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/sparkline-ai/voicebridge/internal/observability/metrics"
	"github.com/sparkline-ai/voicebridge/internal/plivo"
	"github.com/sparkline-ai/voicebridge/internal/ultravox"
	"github.com/sparkline-ai/voicebridge/pkg/logging"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// sessionCreator creates Ultravox voice sessions.
type sessionCreator interface {
	CreateSession(ctx context.Context, req ultravox.CreateSessionRequest) (*ultravox.Session, error)
}

// callDialer places Plivo calls and speaks into live ones.
type callDialer interface {
	CreateCall(ctx context.Context, joinURL, toNumber string) (*plivo.CallResponse, error)
	SpeakText(ctx context.Context, callUUID, text, voice, language string) error
}

// textReplier generates ad-hoc text replies (chat completion).
type textReplier interface {
	Reply(ctx context.Context, prompt, systemInstruction string) string
}

// Handler is the webhook/call-orchestration surface: it bridges inbound HTTP
// triggers to the Ultravox and Plivo APIs and relays their asynchronous
// events. It holds no cross-request state.
type Handler struct {
	sessions sessionCreator
	dialer   callDialer
	replier  textReplier
	logger   *logging.Logger
	metrics  *metrics.CallMetrics

	defaultToNumber string
	speakReplies    bool
	speakVoice      string
	speakLanguage   string
}

// HandlerConfig configures the relay handler.
type HandlerConfig struct {
	Sessions sessionCreator
	Dialer   callDialer
	// Replier is optional; without it the voice webhook answers with a
	// static apology.
	Replier textReplier
	Logger  *logging.Logger
	Metrics *metrics.CallMetrics

	// DefaultToNumber is dialed when a trigger supplies no override.
	DefaultToNumber string
	// SpeakReplies speaks canned transcription replies back into the live
	// call when the event carries a call UUID.
	SpeakReplies  bool
	SpeakVoice    string
	SpeakLanguage string
}

// NewHandler creates the relay handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.SpeakVoice == "" {
		cfg.SpeakVoice = "WOMAN"
	}
	if cfg.SpeakLanguage == "" {
		cfg.SpeakLanguage = "en-US"
	}
	return &Handler{
		sessions:        cfg.Sessions,
		dialer:          cfg.Dialer,
		replier:         cfg.Replier,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		defaultToNumber: cfg.DefaultToNumber,
		speakReplies:    cfg.SpeakReplies,
		speakVoice:      cfg.SpeakVoice,
		speakLanguage:   cfg.SpeakLanguage,
	}
}

// Index renders the landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		h.logger.Error("index: render failed", "error", err)
	}
}

// InitiateCall creates an Ultravox session and places a Plivo call bridged to
// it. GET or POST; the target number comes from the request (JSON body, then
// form, then query string) or falls back to the configured default.
func (h *Handler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.logger.Info("call initiation requested")

	toNumber := h.targetNumber(r)
	h.logger.Info("target phone number resolved", "to_number", toNumber)

	session, err := h.sessions.CreateSession(r.Context(), ultravox.CreateSessionRequest{})
	if err != nil {
		h.logger.Error("initiate_call: session creation failed",
			"error", err,
			"elapsed", elapsed(start),
		)
		h.observeCall("session_error")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":        err.Error(),
			"elapsed_time": elapsed(start),
		})
		return
	}

	call, err := h.dialer.CreateCall(r.Context(), session.JoinURL, toNumber)
	if err != nil {
		h.logger.Error("initiate_call: call creation failed",
			"error", err,
			"elapsed", elapsed(start),
		)
		h.observeCall("dial_error")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":        err.Error(),
			"elapsed_time": elapsed(start),
		})
		return
	}

	h.logger.Info("call initiated",
		"request_uuid", call.RequestUUID,
		"to_number", toNumber,
		"elapsed", elapsed(start),
	)
	h.observeCall("ok")
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Call initiated successfully",
		"plivo_call_uuid": call.RequestUUID,
		"to_number":       toNumber,
		"elapsed_time":    elapsed(start),
	})
}

// Webhook handles Ultravox JSON events and Plivo form-encoded stream events.
// Unrecognized event types are acknowledged, not rejected: providers retry on
// non-2xx and there is nothing to retry here.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if isJSONRequest(r) {
		var event struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			Reason   string `json:"reason"`
			CallUUID string `json:"call_uuid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			h.logger.Error("webhook: invalid JSON", "error", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		switch event.Type {
		case "transcription":
			reply := ReplyFor(event.Text)
			h.logger.Info("webhook: transcription",
				"text", event.Text,
				"reply", reply,
			)
			h.maybeSpeakReply(r.Context(), event.CallUUID, reply)
		case "call.ended":
			reason := event.Reason
			if reason == "" {
				reason = "unknown"
			}
			h.logger.Info("webhook: call ended", "reason", reason)
		default:
			h.logger.Info("webhook: unhandled event type", "type", event.Type)
		}
		h.observeWebhook("json", event.Type, start)
		h.writeJSON(w, http.StatusOK, map[string]string{
			"status":          "success",
			"processing_time": elapsed(start),
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("webhook: invalid form", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	event := r.PostFormValue("event")
	switch event {
	case "stream.start":
		h.logger.Info("webhook: audio streaming started")
	case "stream.end":
		h.logger.Info("webhook: audio streaming ended")
	default:
		h.logger.Info("webhook: unhandled stream event", "event", event)
	}
	h.observeWebhook("form", event, start)
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":          "success",
		"processing_time": elapsed(start),
	})
}

// VoiceWebhook is the chat-completion variant: Plivo posts the caller's
// transcribed speech and receives a Speak document with the generated reply.
func (h *Handler) VoiceWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeSpeakXML(w, "I'm sorry, I couldn't understand that request.")
		return
	}
	callUUID := r.PostFormValue("CallUUID")
	text := strings.TrimSpace(r.PostFormValue("Text"))

	h.logger.Info("voice webhook received",
		"call_uuid", callUUID,
		"from", r.PostFormValue("From"),
		"to", r.PostFormValue("To"),
		"has_text", text != "",
	)

	prompt := text
	if prompt == "" {
		prompt = "Greet the caller and ask how you can help them today."
	}

	reply := ApologyReply
	if h.replier != nil {
		reply = h.replier.Reply(r.Context(), prompt, "")
	}
	h.writeSpeakXML(w, reply)
}

// AnswerURL returns the bidirectional-stream document Plivo fetches when an
// outbound call is answered. The join URL arrives as a query parameter; the
// stream template is never emitted with an empty target.
func (h *Handler) AnswerURL(w http.ResponseWriter, r *http.Request) {
	joinURL := r.URL.Query().Get("join_url")
	if joinURL == "" {
		h.logger.Error("answer_url: no join_url provided")
		http.Error(w, "Error: No join URL provided", http.StatusBadRequest)
		return
	}

	h.logger.Info("answer_url: generating stream instructions")
	h.logger.Debug("answer_url join target", "join_url", joinURL)

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, plivo.AnswerXML(joinURL))
}

// CallStatus logs Plivo call-status notifications.
func (h *Handler) CallStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	callUUID := formValueOr(r, "CallUUID", "unknown")
	callStatus := formValueOr(r, "CallStatus", "unknown")

	h.logger.Info("call status update",
		"call_uuid", callUUID,
		"call_status", callStatus,
	)
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":      "success",
		"call_status": callStatus,
	})
}

// ApologyReply is spoken when no replier is configured or available.
const ApologyReply = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// targetNumber resolves the destination: JSON body, form, query string, then
// the configured default. First present wins.
func (h *Handler) targetNumber(r *http.Request) string {
	if isJSONRequest(r) {
		var body struct {
			ToNumber string `json:"to_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.ToNumber != "" {
			return body.ToNumber
		}
	} else if err := r.ParseForm(); err == nil {
		if n := r.PostFormValue("to_number"); n != "" {
			return n
		}
	}
	if n := r.URL.Query().Get("to_number"); n != "" {
		return n
	}
	return h.defaultToNumber
}

func (h *Handler) maybeSpeakReply(ctx context.Context, callUUID, reply string) {
	if !h.speakReplies || h.dialer == nil || callUUID == "" {
		return
	}
	if err := h.dialer.SpeakText(ctx, callUUID, reply, h.speakVoice, h.speakLanguage); err != nil {
		h.logger.Error("webhook: failed to speak reply", "error", err, "call_uuid", callUUID)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeSpeakXML(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, plivo.SpeakXML(text, h.speakVoice, h.speakLanguage))
}

func (h *Handler) observeCall(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveCallInitiated(outcome)
	}
}

func (h *Handler) observeWebhook(kind, event string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveWebhook(kind, event, time.Since(start).Seconds())
	}
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func formValueOr(r *http.Request, key, fallback string) string {
	if v := r.PostFormValue(key); v != "" {
		return v
	}
	return fallback
}

func elapsed(start time.Time) string {
	return fmt.Sprintf("%.2fs", time.Since(start).Seconds())
}
