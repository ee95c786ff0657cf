package voice

import (
	"sync"
	"time"
)

// State is the voice call indicator state
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateListening  State = "listening"
	StateSpeaking   State = "speaking"
)

// Active reports whether a call is in progress
func (s State) Active() bool {
	return s == StateListening || s == StateSpeaking
}

// DefaultTranscriptLimit bounds the transcript kept per session
const DefaultTranscriptLimit = 100

// TranscriptEntry is one final utterance
type TranscriptEntry struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Session tracks the call state and transcript of one voice call. It only
// observes lifecycle events from the platform and never starts or ends a call.
type Session struct {
	mu         sync.Mutex
	state      State
	transcript []TranscriptEntry
	limit      int
	now        func() time.Time
}

// NewSession creates an idle session keeping at most limit transcript entries
func NewSession(limit int) *Session {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &Session{state: StateIdle, limit: limit, now: time.Now}
}

// State returns the current call state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the kept transcript, oldest first
func (s *Session) Transcript() []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Observe applies a lifecycle or transcript message and reports whether the
// call state changed.
func (s *Session) Observe(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	switch msg.Type {
	case TypeCallConnecting:
		if s.state == StateIdle {
			s.state = StateConnecting
		}
	case TypeCallStart:
		if s.state == StateIdle || s.state == StateConnecting {
			s.state = StateListening
		}
	case TypeCallEnd:
		s.state = StateIdle
	case TypeSpeechStart:
		if s.state.Active() {
			s.state = StateSpeaking
		}
	case TypeSpeechEnd:
		if s.state.Active() {
			s.state = StateListening
		}
	case TypeError:
		if s.state == StateConnecting {
			s.state = StateIdle
		}
	case TypeTranscript:
		if logged(msg) {
			s.append(TranscriptEntry{Role: msg.Role, Text: msg.Transcript, Time: s.now()})
		}
	}
	return s.state != prev
}

// logged reports whether msg is a final utterance kept in the transcript
func logged(msg Message) bool {
	return msg.Type == TypeTranscript && msg.TranscriptType == TranscriptFinal &&
		(msg.Role == "user" || msg.Role == "assistant")
}

func (s *Session) append(e TranscriptEntry) {
	s.transcript = append(s.transcript, e)
	if over := len(s.transcript) - s.limit; over > 0 {
		s.transcript = append(s.transcript[:0], s.transcript[over:]...)
	}
}
