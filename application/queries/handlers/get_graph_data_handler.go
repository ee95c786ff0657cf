package handlers

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coursegraph/application/ports"
	"coursegraph/application/queries"
	"coursegraph/application/queries/bus"
	"coursegraph/domain/graph"
)

// DanglingRecorder counts links dropped during assembly
type DanglingRecorder interface {
	RecordDanglingLinks(n int)
}

// GetGraphDataHandler assembles a user's document graph from the store
type GetGraphDataHandler struct {
	store       ports.DocumentStore
	concurrency int
	metrics     DanglingRecorder
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewGetGraphDataHandler creates a new graph data handler. concurrency bounds
// the number of relationship lookups in flight.
func NewGetGraphDataHandler(
	store ports.DocumentStore,
	concurrency int,
	metrics DanglingRecorder,
	logger *zap.Logger,
) *GetGraphDataHandler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &GetGraphDataHandler{
		store:       store,
		concurrency: concurrency,
		metrics:     metrics,
		tracer:      otel.Tracer("coursegraph/assembler"),
		logger:      logger,
	}
}

// Handle executes the graph data query. Store failures never surface as
// errors: a failed relationship lookup contributes no links and a failed
// document listing yields the placeholder graph.
func (h *GetGraphDataHandler) Handle(ctx context.Context, q bus.Query) (any, error) {
	query, ok := q.(queries.GetGraphDataQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	ctx, span := h.tracer.Start(ctx, "assembler.GetGraphData", trace.WithAttributes(
		attribute.String("user.id", query.UserID),
	))
	defer span.End()

	docs, err := h.store.DocumentsByUser(ctx, query.UserID)
	if err != nil {
		h.logger.Error("Failed to list documents, serving placeholder graph",
			zap.String("userID", query.UserID),
			zap.Error(err),
		)
		span.RecordError(err)
		return &queries.GetGraphDataResult{Snapshot: graph.Placeholder(), Placeholder: true}, nil
	}

	related := h.fetchRelated(ctx, docs)

	snapshot, dropped := graph.Assemble(docs, related)
	if dropped > 0 {
		h.logger.Info("Dropped links to documents outside the graph",
			zap.String("userID", query.UserID),
			zap.Int("dropped", dropped),
		)
		if h.metrics != nil {
			h.metrics.RecordDanglingLinks(dropped)
		}
	}

	span.SetAttributes(
		attribute.Int("graph.nodes", len(snapshot.Nodes)),
		attribute.Int("graph.links", len(snapshot.Links)),
	)
	h.logger.Debug("Graph data assembled",
		zap.String("userID", query.UserID),
		zap.Int("nodeCount", len(snapshot.Nodes)),
		zap.Int("linkCount", len(snapshot.Links)),
	)

	return &queries.GetGraphDataResult{Snapshot: snapshot}, nil
}

// fetchRelated looks up every document's related list concurrently. Each
// lookup is isolated; a failure leaves that document's list empty.
func (h *GetGraphDataHandler) fetchRelated(ctx context.Context, docs []graph.Document) [][]graph.Document {
	related := make([][]graph.Document, len(docs))

	var g errgroup.Group
	g.SetLimit(h.concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			rel, err := h.store.RelatedDocuments(ctx, doc.PDFID)
			if err != nil {
				h.logger.Warn("Failed to fetch related documents",
					zap.Int64("pdfID", doc.PDFID),
					zap.Error(err),
				)
				return nil
			}
			related[i] = rel
			return nil
		})
	}
	_ = g.Wait()

	return related
}
