package ultravox

// Session configuration payload for POST /api/calls. Field names follow the
// Ultravox API exactly; zero values like recordingEnabled=false must still be
// serialized, so nothing here is omitempty unless the API treats absence and
// empty the same way.

type sessionConfig struct {
	SystemPrompt         string               `json:"systemPrompt"`
	Temperature          float64              `json:"temperature"`
	Model                string               `json:"model"`
	Voice                string               `json:"voice"`
	LanguageHint         string               `json:"languageHint"`
	InitialMessages      []initialMessage     `json:"initialMessages"`
	JoinTimeout          string               `json:"joinTimeout"`
	MaxDuration          string               `json:"maxDuration"`
	TimeExceededMessage  string               `json:"timeExceededMessage"`
	InactivityMessages   []InactivityMessage  `json:"inactivityMessages"`
	SelectedTools        []selectedTool       `json:"selectedTools"`
	Medium               map[string]struct{}  `json:"medium"`
	RecordingEnabled     bool                 `json:"recordingEnabled"`
	FirstSpeaker         string               `json:"firstSpeaker"`
	TranscriptOptional   bool                 `json:"transcriptOptional"`
	InitialOutputMedium  string               `json:"initialOutputMedium"`
	VadSettings          vadSettings          `json:"vadSettings"`
	FirstSpeakerSettings firstSpeakerSettings `json:"firstSpeakerSettings"`
	ExperimentalSettings map[string]any       `json:"experimentalSettings"`
	Metadata             map[string]string    `json:"metadata"`
	InitialState         map[string]any       `json:"initialState"`
}

// initialMessage is the placeholder first entry Ultravox expects in the
// message list when the caller speaks first.
type initialMessage struct {
	Role                  string `json:"role"`
	Text                  string `json:"text"`
	InvocationID          string `json:"invocationId"`
	ToolName              string `json:"toolName"`
	ErrorDetails          string `json:"errorDetails"`
	Medium                string `json:"medium"`
	CallStageMessageIndex int    `json:"callStageMessageIndex"`
	CallStageID           string `json:"callStageId"`
}

// InactivityMessage tells Ultravox what to play after Duration of caller
// silence and whether to end the call afterwards.
type InactivityMessage struct {
	Duration    string `json:"duration"`
	Message     string `json:"message"`
	EndBehavior string `json:"endBehavior"`
}

type selectedTool struct {
	ToolName string `json:"toolName"`
}

type vadSettings struct {
	TurnEndpointDelay           string  `json:"turnEndpointDelay"`
	MinimumTurnDuration         string  `json:"minimumTurnDuration"`
	MinimumInterruptionDuration string  `json:"minimumInterruptionDuration"`
	FrameActivationThreshold    float64 `json:"frameActivationThreshold"`
}

type firstSpeakerSettings struct {
	User struct{} `json:"user"`
}
