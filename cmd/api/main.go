package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparkline-ai/voicebridge/internal/api/router"
	"github.com/sparkline-ai/voicebridge/internal/assistant"
	appconfig "github.com/sparkline-ai/voicebridge/internal/config"
	"github.com/sparkline-ai/voicebridge/internal/observability/metrics"
	"github.com/sparkline-ai/voicebridge/internal/plivo"
	"github.com/sparkline-ai/voicebridge/internal/relay"
	"github.com/sparkline-ai/voicebridge/internal/ultravox"
	"github.com/sparkline-ai/voicebridge/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voicebridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	sessions, err := ultravox.New(ultravox.Config{
		APIKey:            cfg.UltravoxAPIKey,
		BaseURL:           cfg.UltravoxBaseURL,
		Logger:            logger,
		SystemPrompt:      cfg.SystemPrompt,
		Model:             cfg.UltravoxModel,
		Voice:             cfg.UltravoxVoice,
		LanguageHint:      cfg.UltravoxLanguageHint,
		JoinTimeout:       cfg.JoinTimeout,
		MaxDuration:       cfg.MaxCallDuration,
		InactivityTimeout: cfg.InactivityTimeout,
	})
	if err != nil {
		logger.Error("failed to create ultravox client", "error", err)
		os.Exit(1)
	}

	dialer, err := plivo.New(plivo.Config{
		AuthID:        cfg.PlivoAuthID,
		AuthToken:     cfg.PlivoAuthToken,
		FromNumber:    cfg.PlivoPhoneNumber,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create plivo client", "error", err)
		os.Exit(1)
	}

	var replier *assistant.Replier
	if cfg.OpenAIAPIKey != "" {
		replier = assistant.NewOpenAIReplier(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set; voice webhook replies fall back to apology")
	}

	registry := prometheus.NewRegistry()
	callMetrics := metrics.NewCallMetrics(registry)

	relayCfg := relay.HandlerConfig{
		Sessions:        sessions,
		Dialer:          dialer,
		Logger:          logger,
		Metrics:         callMetrics,
		DefaultToNumber: cfg.DefaultToNumber,
		SpeakReplies:    cfg.SpeakRepliesEnabled,
	}
	if replier != nil {
		relayCfg.Replier = replier
	}
	relayHandler := relay.NewHandler(relayCfg)

	r := router.New(&router.Config{
		Logger:         logger,
		Relay:          relayHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
