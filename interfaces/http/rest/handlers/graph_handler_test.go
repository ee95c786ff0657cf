package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coursegraph/application/queries"
	querybus "coursegraph/application/queries/bus"
	"coursegraph/domain/graph"
	"coursegraph/domain/identity"
	"coursegraph/pkg/auth"
)

func courseSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "root", Name: "My Courses", Type: graph.NodeTypeRoot},
			{ID: "cse101", Name: "CSE 101", Type: graph.NodeTypeCourse},
			{ID: "math18", Name: "MATH 18", Type: graph.NodeTypeCourse},
			{ID: "cse101_mod1", Name: "Sorting", Type: graph.NodeTypeModule},
		},
		Links: []graph.Link{
			{Source: "root", Target: "cse101"},
			{Source: "root", Target: "math18"},
			{Source: "cse101", Target: "cse101_mod1"},
		},
	}
}

// graphBus answers graph queries with result, or with err when set
func graphBus(t *testing.T, result *queries.GetGraphDataResult, err error) *querybus.QueryBus {
	t.Helper()
	b := querybus.NewQueryBus()
	require.NoError(t, b.Register(queries.GetGraphDataQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, q querybus.Query) (any, error) {
			if err != nil {
				return nil, err
			}
			return result, nil
		})))
	return b
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(auth.SetUserInContext(r.Context(), &identity.User{UserID: "u1"}))
}

func TestGraphHandler_GetGraph(t *testing.T) {
	tests := []struct {
		name            string
		result          *queries.GetGraphDataResult
		wantPlaceholder string
	}{
		{
			name:   "assembled graph",
			result: &queries.GetGraphDataResult{Snapshot: courseSnapshot()},
		},
		{
			name:            "placeholder",
			result:          &queries.GetGraphDataResult{Snapshot: graph.Placeholder(), Placeholder: true},
			wantPlaceholder: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := NewGraphHandler(graphBus(t, tt.result, nil), zap.NewNop())

			// Act
			rec := httptest.NewRecorder()
			h.GetGraph(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/graph", nil)))

			// Assert
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantPlaceholder, rec.Header().Get("X-Graph-Placeholder"))

			var got graph.Snapshot
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Len(t, got.Nodes, len(tt.result.Snapshot.Nodes))
			assert.Len(t, got.Links, len(tt.result.Snapshot.Links))
		})
	}
}

func TestGraphHandler_RequiresUser(t *testing.T) {
	h := NewGraphHandler(graphBus(t, &queries.GetGraphDataResult{}, nil), zap.NewNop())

	rec := httptest.NewRecorder()
	h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
