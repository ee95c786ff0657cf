package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"coursegraph/application/queries"
	querybus "coursegraph/application/queries/bus"
	"coursegraph/pkg/auth"
)

// GraphHandler serves the user's document graph
type GraphHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// GetGraph handles GET /api/graph. The body is the bare {nodes, links}
// snapshot the renderer consumes.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphDataQuery{UserID: user.UserID})
	if err != nil {
		h.logger.Error("Failed to get graph data",
			zap.String("userID", user.UserID),
			zap.Error(err),
		)
		respondError(w, h.logger, err, "Failed to get graph data")
		return
	}

	graph := result.(*queries.GetGraphDataResult)
	if graph.Placeholder {
		w.Header().Set("X-Graph-Placeholder", "true")
	}
	respondJSON(w, h.logger, http.StatusOK, graph.Snapshot)
}
