package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"coursegraph/domain/graph"
)

// browserRenderer mirrors the graph the browser is rendering and forwards
// camera moves to it.
type browserRenderer struct {
	mu     sync.RWMutex
	data   graph.Snapshot
	client *Client
	logger *zap.Logger
}

func newBrowserRenderer(client *Client, logger *zap.Logger) *browserRenderer {
	return &browserRenderer{client: client, logger: logger}
}

func (r *browserRenderer) update(s graph.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = s
}

func (r *browserRenderer) GraphData() graph.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data
}

func (r *browserRenderer) CameraPosition(position, lookAt graph.Vec3, transition time.Duration) {
	err := r.client.Send(cameraCommand{
		Type:       TypeCamera,
		Position:   position,
		LookAt:     lookAt,
		Transition: transition.Milliseconds(),
	})
	if err != nil {
		r.logger.Warn("Failed to send camera command", zap.Error(err))
	}
}
