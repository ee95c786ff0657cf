package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"coursegraph/application/graphcontrol"
	"coursegraph/application/voice"
	pkgerrors "coursegraph/pkg/errors"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Graph snapshots with live positions can be large
	maxMessageSize = 4 << 20

	sendBufferSize = 256
)

var (
	errClientClosed = errors.New("client closed")
	errSendBuffer   = errors.New("send buffer full")
)

// NodeDeleter deletes a graph node on behalf of a user
type NodeDeleter interface {
	DeleteNode(ctx context.Context, userID, nodeID string) error
}

// Client is one browser session. It owns the session's graph control store
// and voice router; the browser's renderer is mounted once it reports data.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc

	store    *graphcontrol.Store
	renderer *browserRenderer
	router   *voice.Router
	deleter  NodeDeleter
	logger   *zap.Logger
}

// NewClient creates a session for userID over conn
func NewClient(userID string, hub *Hub, conn *websocket.Conn, deleter NodeDeleter, intents voice.IntentRecorder, logger *zap.Logger) *Client {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:      id,
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		ctx:     ctx,
		cancel:  cancel,
		store:   graphcontrol.NewStore(),
		deleter: deleter,
		logger: logger.With(
			zap.String("userID", userID),
			zap.String("connectionID", id),
		),
	}
	c.renderer = newBrowserRenderer(c, c.logger)
	c.router = voice.NewRouter(c.store, voice.NewSession(voice.DefaultTranscriptLimit), c, intents, c.logger)
	return c
}

// Start registers the client and begins its read and write pumps. Registration
// completes before the read pump can unregister the client. Start reports
// false and closes the connection when the hub is shutting down.
func (c *Client) Start() bool {
	if !c.hub.registerClient(c) {
		c.conn.Close()
		return false
	}

	go c.writePump()
	go c.readPump()

	if err := c.Send(connectionEstablished{
		Type:      TypeConnectionEstablished,
		Timestamp: time.Now().Unix(),
		Data:      connectionData{ConnectionID: c.id, UserID: c.userID},
	}); err != nil {
		c.logger.Error("Failed to send connection established message", zap.Error(err))
	}
	return true
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Send queues v as a JSON text message
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBuffer
	}
}

// close ends the session: the write pump sends a close frame and in-flight
// work bound to the session context is cancelled.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.cancel()
	c.store.Unmount()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
		c.logger.Info("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.handleTextMessage(bytes.TrimSpace(message))
		case websocket.BinaryMessage:
			c.logger.Warn("Binary messages not supported")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Info("Write pump stopped")
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) handleTextMessage(message []byte) {
	var in inbound
	if err := json.Unmarshal(message, &in); err != nil {
		c.logger.Warn("Malformed message from client", zap.Error(err))
		c.sendError("Malformed message")
		return
	}

	switch in.Type {
	case TypePong:
		c.logger.Debug("Received pong")

	case TypeGraphData:
		if in.Data == nil {
			c.sendError("graph-data requires data")
			return
		}
		if err := in.Data.Validate(); err != nil {
			c.logger.Warn("Rejected graph data", zap.Error(err))
			c.sendError(pkgerrors.MessageOf(err, "Invalid graph data"))
			return
		}
		c.renderer.update(*in.Data)
		if !c.store.Mounted() {
			c.store.Mount(c.renderer)
			c.logger.Debug("Renderer mounted", zap.Int("nodes", len(in.Data.Nodes)))
		}

	case TypeSelect:
		c.store.Select(in.NodeID)
		c.sendSelection()

	case TypeRequestDelete:
		c.store.RequestDelete()
		c.sendSelection()

	case TypeCancelDelete:
		c.store.CancelDelete()
		c.sendSelection()

	case TypeConfirmDelete:
		go c.confirmDelete()

	default:
		if !isVoiceMessage(in.Type) {
			c.logger.Debug("Unknown message type", zap.String("type", in.Type))
			return
		}
		var msg voice.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("Malformed voice message", zap.Error(err))
			return
		}
		c.router.Handle(msg)
	}
}

// confirmDelete runs off the read pump so the session stays responsive while
// the PDF backend works.
func (c *Client) confirmDelete() {
	err := c.store.ConfirmDelete(c.ctx, func(ctx context.Context, nodeID string) error {
		c.sendSelection()
		return c.deleter.DeleteNode(ctx, c.userID, nodeID)
	})
	if err != nil {
		c.logger.Warn("Delete from dashboard failed", zap.Error(err))
	}
	c.sendSelection()
}

func (c *Client) sendSelection() {
	if err := c.Send(selectionMessage{Type: TypeSelection, Selection: c.store.Selection()}); err != nil {
		c.logger.Debug("Failed to send selection", zap.Error(err))
	}
}

func (c *Client) sendError(message string) {
	if err := c.Send(errorMessage{Type: TypeError, Error: message}); err != nil {
		c.logger.Debug("Failed to send error", zap.Error(err))
	}
}
