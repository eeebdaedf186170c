package relay

import (
	"fmt"
	"strings"
)

// Canned transcription replies. The match is a static keyword scan; anything
// unmatched echoes the caller's text.
const (
	replyGreeting = "Hello! Great to hear from you. How can I help you today?"
	replyWeather  = "I can't check the weather from here, but I'm happy to keep chatting!"
	replyName     = "I'm Steve, your AI voice assistant."
	replyGoodbye  = "Goodbye! It was lovely talking with you."
)

var greetingWords = []string{"hello", "hi", "hey"}
var goodbyeWords = []string{"bye", "goodbye", "see you"}

// ReplyFor picks a canned response for a transcription snippet.
func ReplyFor(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, greetingWords):
		return replyGreeting
	case strings.Contains(lower, "weather"):
		return replyWeather
	case strings.Contains(lower, "name"):
		return replyName
	case containsAny(lower, goodbyeWords):
		return replyGoodbye
	default:
		return fmt.Sprintf("You said: %s", text)
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
