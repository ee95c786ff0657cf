package websocket

import (
	"coursegraph/application/graphcontrol"
	"coursegraph/application/voice"
	"coursegraph/domain/graph"
)

// Session message types. Voice platform messages use voice.MessageType.
const (
	TypeConnectionEstablished = "CONNECTION_ESTABLISHED"
	TypeGraphData             = "graph-data"
	TypeCamera                = "camera"
	TypeSelect                = "select"
	TypeRequestDelete         = "request-delete"
	TypeCancelDelete          = "cancel-delete"
	TypeConfirmDelete         = "confirm-delete"
	TypeSelection             = "selection"
	TypePong                  = "pong"
	TypeError                 = "session-error"
)

type inbound struct {
	Type   string          `json:"type"`
	NodeID string          `json:"nodeId,omitempty"`
	Data   *graph.Snapshot `json:"data,omitempty"`
}

type connectionData struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
}

type connectionEstablished struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      connectionData `json:"data"`
}

// cameraCommand asks the browser's renderer to animate its camera
type cameraCommand struct {
	Type       string     `json:"type"`
	Position   graph.Vec3 `json:"position"`
	LookAt     graph.Vec3 `json:"lookAt"`
	Transition int64      `json:"transitionMs"`
}

type selectionMessage struct {
	Type      string                 `json:"type"`
	Selection graphcontrol.Selection `json:"selection"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func isVoiceMessage(t string) bool {
	switch voice.MessageType(t) {
	case voice.TypeFunctionCall, voice.TypeTranscript, voice.TypeCallConnecting,
		voice.TypeCallStart, voice.TypeCallEnd, voice.TypeSpeechStart,
		voice.TypeSpeechEnd, voice.TypeError:
		return true
	}
	return false
}
