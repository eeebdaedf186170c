package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sparkline-ai/voicebridge/pkg/logging"
)

// ApologyFallback is returned whenever a completion fails. The voice channel
// needs an utterance, not an error, so failures are absorbed here; this is
// the only place in the service where an error is swallowed instead of
// surfaced.
const ApologyFallback = "I'm sorry, I'm having trouble processing your request right now."

const defaultSystemInstruction = "You are a helpful voice assistant. Keep your responses concise and natural for voice."

var replierTracer = otel.Tracer("voicebridge.internal.assistant")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Replier produces ad-hoc text replies through a chat-completion API.
type Replier struct {
	client chatClient
	model  string
	logger *logging.Logger
}

// NewReplier returns a chat-completion-backed replier.
func NewReplier(client chatClient, model string, logger *logging.Logger) *Replier {
	if client == nil {
		panic("assistant: chat client cannot be nil")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Replier{client: client, model: model, logger: logger}
}

// NewOpenAIReplier wires a Replier to the OpenAI API with the given key.
func NewOpenAIReplier(apiKey, model string, logger *logging.Logger) *Replier {
	return NewReplier(openai.NewClient(apiKey), model, logger)
}

// Reply generates a response to prompt under systemInstruction. Any failure
// yields the fixed apology string.
func (r *Replier) Reply(ctx context.Context, prompt, systemInstruction string) string {
	ctx, span := replierTracer.Start(ctx, "assistant.reply")
	defer span.End()
	span.SetAttributes(attribute.String("voicebridge.model", r.model))

	if systemInstruction == "" {
		systemInstruction = defaultSystemInstruction
	}

	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("assistant: completion failed", "error", err)
		return ApologyFallback
	}
	if len(resp.Choices) == 0 {
		err := errors.New("assistant: completion returned no choices")
		span.RecordError(err)
		r.logger.Error("assistant: empty completion", "error", err)
		return ApologyFallback
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
