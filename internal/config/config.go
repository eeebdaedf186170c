package config

import (
	"os"
	"strconv"
	"time"
)

const defaultSystemPrompt = `You are Steve, an engaging AI assistant having a phone conversation.
- Start with a warm, friendly greeting
- Listen actively and acknowledge what the caller says
- Keep responses natural and conversational (like a friend)
- Ask open-ended questions to encourage discussion
- Show empathy and understanding
- If the caller seems quiet, gently prompt them
- End each response with something that invites further conversation
- If they ask you to stop, apologise and stop`

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// OpenAI chat-completion settings.
	OpenAIAPIKey string
	OpenAIModel  string

	// Plivo telephony settings.
	PlivoAuthID      string
	PlivoAuthToken   string
	PlivoPhoneNumber string
	DefaultToNumber  string

	// Ultravox voice-session settings.
	UltravoxAPIKey       string
	UltravoxPhoneNumber  string
	UltravoxBaseURL      string
	UltravoxModel        string
	UltravoxVoice        string
	UltravoxLanguageHint string
	SystemPrompt         string
	JoinTimeout          time.Duration
	MaxCallDuration      time.Duration
	InactivityTimeout    time.Duration

	// SpeakRepliesEnabled wires webhook transcription replies back into the
	// live call via the Plivo Speak API.
	SpeakRepliesEnabled bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		PlivoAuthID:      getEnv("PLIVO_AUTH_ID", ""),
		PlivoAuthToken:   getEnv("PLIVO_AUTH_TOKEN", ""),
		PlivoPhoneNumber: getEnv("PLIVO_PHONE_NUMBER", ""),
		DefaultToNumber:  getEnv("TO_NUMBER", ""),

		UltravoxAPIKey:       getEnv("ULTRAVOX_API_KEY", ""),
		UltravoxPhoneNumber:  getEnv("ULTRAVOX_PHONE_NUMBER", ""),
		UltravoxBaseURL:      getEnv("ULTRAVOX_BASE_URL", "https://api.ultravox.ai/api/calls"),
		UltravoxModel:        getEnv("ULTRAVOX_MODEL", "fixie-ai/ultravox-70B"),
		UltravoxVoice:        getEnv("ULTRAVOX_VOICE", "Mark"),
		UltravoxLanguageHint: getEnv("ULTRAVOX_LANGUAGE_HINT", "en-US"),
		SystemPrompt:         getEnv("SYSTEM_PROMPT", defaultSystemPrompt),
		JoinTimeout:          getEnvAsDuration("JOIN_TIMEOUT", 30*time.Second),
		MaxCallDuration:      getEnvAsDuration("MAX_CALL_DURATION", 300*time.Second),
		InactivityTimeout:    getEnvAsDuration("INACTIVITY_TIMEOUT", 20*time.Second),

		SpeakRepliesEnabled: getEnvAsBool("SPEAK_REPLIES_ENABLED", false),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a
// default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
