// Package documents runs uploads and deletions against the PDF backend and
// keeps cached graphs and open sessions in step with them.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"coursegraph/application/ports"
	"coursegraph/domain/events"
	"coursegraph/domain/graph"
	pkgerrors "coursegraph/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// MessageGraphUpdated tells open sessions to refetch the graph
	MessageGraphUpdated = "GRAPH_UPDATED"
)

// File is one file of a batch upload
type File struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// IsPDF reports whether the file is a PDF by content type, falling back to
// the extension when the client sent no specific type.
func (f File) IsPDF() bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0]))
	switch ct {
	case "application/pdf":
		return true
	case "", "application/octet-stream":
		return strings.EqualFold(filepath.Ext(f.Filename), ".pdf")
	}
	return false
}

// UploadResult is the outcome for one file
type UploadResult struct {
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	PDFID       int64  `json:"pdfId,omitempty"`
	Title       string `json:"title,omitempty"`
	Connections int    `json:"connections,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchResult holds per-file results in input order
type BatchResult struct {
	Results          []UploadResult `json:"results"`
	Skipped          []string       `json:"skipped,omitempty"`
	SuccessCount     int            `json:"successCount"`
	ErrorCount       int            `json:"errorCount"`
	TotalConnections int            `json:"totalConnections"`
}

func (b *BatchResult) add(r UploadResult) {
	b.Results = append(b.Results, r)
	if r.Status == StatusSuccess {
		b.SuccessCount++
		b.TotalConnections += r.Connections
	} else {
		b.ErrorCount++
	}
}

// GraphUpdated is pushed to a user's sessions after their documents change
type GraphUpdated struct {
	Type   string  `json:"type"`
	Reason string  `json:"reason"`
	PDFIDs []int64 `json:"pdfIds,omitempty"`
}

// UploadRecorder counts upload outcomes
type UploadRecorder interface {
	RecordUpload(status string)
}

// Service implements document upload, deletion and download links
type Service struct {
	backend  ports.PDFBackend
	store    ports.DocumentStore
	cache    ports.GraphCache
	notifier ports.SessionNotifier
	events   ports.EventPublisher
	metrics  UploadRecorder
	delay    time.Duration
	logger   *zap.Logger
}

// NewService creates the document service. store answers ownership checks;
// delay separates consecutive uploads.
func NewService(
	backend ports.PDFBackend,
	store ports.DocumentStore,
	cache ports.GraphCache,
	notifier ports.SessionNotifier,
	publisher ports.EventPublisher,
	metrics UploadRecorder,
	delay time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		backend:  backend,
		store:    store,
		cache:    cache,
		notifier: notifier,
		events:   publisher,
		metrics:  metrics,
		delay:    delay,
		logger:   logger,
	}
}

// UploadBatch uploads and processes the PDFs among files one at a time,
// pausing between files. A failing file yields an error entry and the batch
// continues. If ctx ends, the remaining files are reported as errors.
func (s *Service) UploadBatch(ctx context.Context, userID string, files []File) *BatchResult {
	batch := &BatchResult{Results: make([]UploadResult, 0, len(files))}

	pdfs := make([]File, 0, len(files))
	for _, f := range files {
		if f.IsPDF() {
			pdfs = append(pdfs, f)
		} else {
			batch.Skipped = append(batch.Skipped, f.Filename)
		}
	}

	var uploaded []int64
	for i, f := range pdfs {
		if ctx.Err() != nil {
			batch.add(UploadResult{Filename: f.Filename, Status: StatusError, Error: "Upload cancelled"})
			continue
		}

		res := s.uploadOne(ctx, userID, f)
		batch.add(res)
		s.record(res.Status)
		if res.Status == StatusSuccess {
			uploaded = append(uploaded, res.PDFID)
		}

		if i < len(pdfs)-1 {
			s.pause(ctx)
		}
	}

	s.logger.Info("Batch upload finished",
		zap.String("userID", userID),
		zap.Int("files", len(pdfs)),
		zap.Int("skipped", len(batch.Skipped)),
		zap.Int("succeeded", batch.SuccessCount),
		zap.Int("connections", batch.TotalConnections),
	)

	if len(uploaded) > 0 {
		s.changed(ctx, userID, "uploaded", uploaded, events.TypeDocumentsUploaded)
	}
	return batch
}

func (s *Service) uploadOne(ctx context.Context, userID string, f File) UploadResult {
	fail := func(err error) UploadResult {
		s.logger.Warn("Document upload failed", zap.String("filename", f.Filename), zap.Error(err))
		return UploadResult{Filename: f.Filename, Status: StatusError, Error: errorMessage(err, "Upload failed")}
	}

	rc, err := f.Open()
	if err != nil {
		return fail(fmt.Errorf("open %s: %w", f.Filename, err))
	}
	defer rc.Close()

	up, err := s.backend.Upload(ctx, userID, f.Filename, rc)
	if err != nil {
		return fail(err)
	}

	doc, err := s.backend.Process(ctx, userID, up.S3Key)
	if err != nil {
		return fail(err)
	}

	return UploadResult{
		Filename:    f.Filename,
		Status:      StatusSuccess,
		PDFID:       doc.PDFID,
		Title:       doc.Title,
		Connections: doc.ConnectionsFound,
	}
}

// pause waits for the inter-file delay or until ctx ends
func (s *Service) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Delete removes a document. A refusal by the backend surfaces its message.
func (s *Service) Delete(ctx context.Context, userID string, pdfID int64) error {
	if err := s.backend.Delete(ctx, userID, pdfID); err != nil {
		s.logger.Error("Delete PDF error", zap.Int64("pdfID", pdfID), zap.Error(err))
		appErr := pkgerrors.NewExternalError("pdf backend", err)
		appErr.Message = errorMessage(err, "Failed to delete PDF")
		return appErr
	}

	s.changed(ctx, userID, "deleted", []int64{pdfID}, events.TypeDocumentDeleted)
	return nil
}

// DeleteNode deletes the document behind a graph node id
func (s *Service) DeleteNode(ctx context.Context, userID, nodeID string) error {
	pdfID, ok := graph.ParseDocumentNodeID(nodeID)
	if !ok {
		return pkgerrors.NewValidationError("Only documents can be deleted")
	}
	return s.Delete(ctx, userID, pdfID)
}

// DownloadURL returns a link to one of the user's stored files. Documents of
// other users are reported as not found.
func (s *Service) DownloadURL(ctx context.Context, userID string, pdfID int64) (string, error) {
	owned, err := s.owns(ctx, userID, pdfID)
	if err != nil {
		s.logger.Error("Ownership lookup failed", zap.Int64("pdfID", pdfID), zap.Error(err))
		appErr := pkgerrors.NewExternalError("document store", err)
		appErr.Message = "Failed to get download link"
		return "", appErr
	}
	if !owned {
		s.logger.Warn("Download link refused for foreign document",
			zap.String("userID", userID),
			zap.Int64("pdfID", pdfID),
		)
		return "", pkgerrors.NewNotFoundError("PDF not found")
	}

	url, err := s.backend.DownloadURL(ctx, pdfID)
	if err != nil {
		appErr := pkgerrors.NewExternalError("pdf backend", err)
		appErr.Message = errorMessage(err, "Failed to get download link")
		return "", appErr
	}
	return url, nil
}

func (s *Service) owns(ctx context.Context, userID string, pdfID int64) (bool, error) {
	docs, err := s.store.DocumentsByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, d := range docs {
		if d.PDFID == pdfID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) changed(ctx context.Context, userID, reason string, pdfIDs []int64, eventType string) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, GraphUpdated{Type: MessageGraphUpdated, Reason: reason, PDFIDs: pdfIDs})
	}
	if s.events != nil {
		e := events.New(eventType, userID, map[string]any{"pdf_ids": pdfIDs})
		if err := s.events.Publish(ctx, e); err != nil {
			s.logger.Warn("Failed to publish event", zap.String("eventType", eventType), zap.Error(err))
		}
	}
}

func (s *Service) record(status string) {
	if s.metrics != nil {
		s.metrics.RecordUpload(status)
	}
}

// errorMessage picks the client-facing text for err. Cancellation and
// deadline errors get fixed wording; anything else uses its own text.
func errorMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return fallback
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
