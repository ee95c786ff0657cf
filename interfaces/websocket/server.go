// Package websocket serves the per-browser graph session: camera control,
// dashboard selection and voice agent relay over one connection.
package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"coursegraph/application/voice"
	"coursegraph/pkg/auth"
)

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
	// MaxConnections caps the open sessions of a single user
	MaxConnections int
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxConnections:  10,
	}
}

// Server upgrades authenticated requests into graph sessions
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	deleter  NodeDeleter
	intents  voice.IntentRecorder
	maxConns int
	logger   *zap.Logger
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, deleter NodeDeleter, intents voice.IntentRecorder, config *ServerConfig, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     checkOrigin(config.AllowedOrigins),
		},
		deleter:  deleter,
		intents:  intents,
		maxConns: config.MaxConnections,
		logger:   logger,
	}
}

// HandleWebSocket handles GET /api/session/ws. The session middleware has
// already put the user in the request context.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.maxConns > 0 && s.hub.ConnectionCount(user.UserID) >= s.maxConns {
		s.logger.Warn("Connection limit exceeded for user",
			zap.String("userID", user.UserID),
			zap.Int("currentConnections", s.hub.ConnectionCount(user.UserID)),
		)
		http.Error(w, "Connection limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Error("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(user.UserID, s.hub, conn, s.deleter, s.intents, s.logger)
	if !client.Start() {
		s.logger.Warn("Hub is shutting down, session refused", zap.String("userID", user.UserID))
		return
	}

	s.logger.Info("New WebSocket connection established",
		zap.String("userID", user.UserID),
		zap.String("connectionID", client.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}

// checkOrigin accepts same-host requests, requests without an Origin header
// and the configured origins.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
