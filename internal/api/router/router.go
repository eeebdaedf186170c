package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/sparkline-ai/voicebridge/internal/http/middleware"
	"github.com/sparkline-ai/voicebridge/internal/relay"
	"github.com/sparkline-ai/voicebridge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Relay          *relay.Handler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/", cfg.Relay.Index)
	r.Get("/initiate_call", cfg.Relay.InitiateCall)
	r.Post("/initiate_call", cfg.Relay.InitiateCall)
	r.Post("/webhook", cfg.Relay.Webhook)
	r.Post("/voice_webhook", cfg.Relay.VoiceWebhook)
	r.Get("/answer_url", cfg.Relay.AnswerURL)
	r.Post("/answer_url", cfg.Relay.AnswerURL)
	r.Post("/call_status", cfg.Relay.CallStatus)

	return r
}
