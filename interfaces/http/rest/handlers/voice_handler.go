package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"coursegraph/application/voice"
	"coursegraph/pkg/auth"
)

// CourseLister names the courses on the graphs a user currently has open
type CourseLister interface {
	CourseNames(userID string) []string
}

// VoiceHandler hands the browser what it needs to start a voice call
type VoiceHandler struct {
	courses   CourseLister
	publicKey string
	settings  voice.AssistantSettings
	logger    *zap.Logger
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(courses CourseLister, publicKey string, settings voice.AssistantSettings, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		courses:   courses,
		publicKey: publicKey,
		settings:  settings,
		logger:    logger,
	}
}

type assistantResponse struct {
	Success   bool            `json:"success"`
	PublicKey string          `json:"publicKey"`
	Assistant voice.Assistant `json:"assistant"`
}

// Assistant handles GET /api/voice/assistant. The system prompt lists the
// courses rendered in the caller's open sessions.
func (h *VoiceHandler) Assistant(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}

	courses := h.courses.CourseNames(user.UserID)
	h.logger.Debug("Building voice assistant", zap.String("userID", user.UserID), zap.Int("courses", len(courses)))

	respondJSON(w, h.logger, http.StatusOK, assistantResponse{
		Success:   true,
		PublicKey: h.publicKey,
		Assistant: voice.BuildAssistant(h.settings, courses),
	})
}
