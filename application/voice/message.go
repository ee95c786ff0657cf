// Package voice relays a voice agent's function calls to the graph control
// store and tracks the agent's call state.
package voice

// MessageType tags the messages exchanged with the voice platform
type MessageType string

const (
	TypeFunctionCall       MessageType = "function-call"
	TypeFunctionCallResult MessageType = "function-call-result"
	TypeTranscript         MessageType = "transcript"
	TypeCallConnecting     MessageType = "call-connecting"
	TypeCallStart          MessageType = "call-start"
	TypeCallEnd            MessageType = "call-end"
	TypeSpeechStart        MessageType = "speech-start"
	TypeSpeechEnd          MessageType = "speech-end"
	TypeError              MessageType = "error"
	TypeStateChanged       MessageType = "voice-state"
	TypeTranscriptLog      MessageType = "transcript-log"
)

// TranscriptFinal marks a transcript that will not be revised
const TranscriptFinal = "final"

// FunctionCall is a structured intent emitted by the voice agent
type FunctionCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Message is an event relayed from the voice platform
type Message struct {
	Type           MessageType   `json:"type"`
	FunctionCallID string        `json:"functionCallId,omitempty"`
	FunctionCall   *FunctionCall `json:"functionCall,omitempty"`
	Role           string        `json:"role,omitempty"`
	TranscriptType string        `json:"transcriptType,omitempty"`
	Transcript     string        `json:"transcript,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// FunctionCallResult answers one function call
type FunctionCallResult struct {
	Type           MessageType `json:"type"`
	FunctionCallID string      `json:"functionCallId"`
	Result         any         `json:"result"`
}

// StateChanged tells the browser to update its call indicator
type StateChanged struct {
	Type  MessageType `json:"type"`
	State State       `json:"state"`
}

// TranscriptLog carries the session's kept transcript, oldest first
type TranscriptLog struct {
	Type    MessageType       `json:"type"`
	Entries []TranscriptEntry `json:"entries"`
}

// Ack is the bare success reply
type Ack struct {
	Success bool `json:"success"`
}

// Failure is a reply the agent can read out
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NodeRef identifies a node in a reply
type NodeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NodeFound answers a successful search
type NodeFound struct {
	Success bool    `json:"success"`
	Node    NodeRef `json:"node"`
}

// CourseFound answers getCourseInfo
type CourseFound struct {
	Success     bool     `json:"success"`
	Course      string   `json:"course"`
	ModuleCount int      `json:"moduleCount"`
	Modules     []string `json:"modules"`
}

func fail(message string) Failure {
	return Failure{Success: false, Message: message}
}
