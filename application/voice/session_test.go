package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		events  []MessageType
		want    State
		changed bool
	}{
		{"starts idle", nil, StateIdle, false},
		{"connecting", []MessageType{TypeCallConnecting}, StateConnecting, true},
		{"call start from idle", []MessageType{TypeCallStart}, StateListening, true},
		{"call start after connecting", []MessageType{TypeCallConnecting, TypeCallStart}, StateListening, true},
		{"speaking", []MessageType{TypeCallStart, TypeSpeechStart}, StateSpeaking, true},
		{"back to listening", []MessageType{TypeCallStart, TypeSpeechStart, TypeSpeechEnd}, StateListening, true},
		{"speech ignored while idle", []MessageType{TypeSpeechStart}, StateIdle, false},
		{"end while speaking", []MessageType{TypeCallStart, TypeSpeechStart, TypeCallEnd}, StateIdle, true},
		{"error aborts connecting", []MessageType{TypeCallConnecting, TypeError}, StateIdle, true},
		{"error keeps active call", []MessageType{TypeCallStart, TypeError}, StateListening, false},
		{"connecting ignored during call", []MessageType{TypeCallStart, TypeCallConnecting}, StateListening, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(0)
			changed := false
			for _, typ := range tt.events {
				changed = s.Observe(Message{Type: typ})
			}
			assert.Equal(t, tt.want, s.State())
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestSession_TranscriptKeepsFinalEntriesWithinLimit(t *testing.T) {
	// Arrange
	s := NewSession(2)
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	// Act
	s.Observe(Message{Type: TypeTranscript, Role: "user", TranscriptType: "partial", Transcript: "zo"})
	s.Observe(Message{Type: TypeTranscript, Role: "user", TranscriptType: TranscriptFinal, Transcript: "zoom to cse"})
	s.Observe(Message{Type: TypeTranscript, Role: "system", TranscriptType: TranscriptFinal, Transcript: "ignored"})
	s.Observe(Message{Type: TypeTranscript, Role: "assistant", TranscriptType: TranscriptFinal, Transcript: "done"})
	s.Observe(Message{Type: TypeTranscript, Role: "user", TranscriptType: TranscriptFinal, Transcript: "thanks"})

	// Assert
	got := s.Transcript()
	require.Len(t, got, 2)
	assert.Equal(t, TranscriptEntry{Role: "assistant", Text: "done", Time: fixed}, got[0])
	assert.Equal(t, "thanks", got[1].Text)
}
