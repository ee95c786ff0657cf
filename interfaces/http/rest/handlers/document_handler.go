package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"coursegraph/application/documents"
	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files
const multipartMemory = 32 << 20

// DocumentService uploads and deletes a user's PDFs
type DocumentService interface {
	UploadBatch(ctx context.Context, userID string, files []documents.File) *documents.BatchResult
	Delete(ctx context.Context, userID string, pdfID int64) error
	DownloadURL(ctx context.Context, userID string, pdfID int64) (string, error)
}

// DocumentHandler serves /api/documents
type DocumentHandler struct {
	service  DocumentService
	maxBytes int64
	logger   *zap.Logger
}

// NewDocumentHandler creates a new document handler. maxBytes caps the whole
// multipart body of an upload.
func NewDocumentHandler(service DocumentService, maxBytes int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	*documents.BatchResult
}

type downloadURLResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// Upload handles POST /api/documents
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, h.logger, pkgerrors.NewValidationError("Invalid upload").WithCause(err), "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, h.logger, pkgerrors.NewValidationError("No files provided"), "")
		return
	}

	files := make([]documents.File, 0, len(headers))
	pdfs := 0
	for _, fh := range headers {
		f := formFile(fh)
		if f.IsPDF() {
			pdfs++
		}
		files = append(files, f)
	}
	if pdfs == 0 {
		respondError(w, h.logger, pkgerrors.NewValidationError("Please select PDF files only"), "")
		return
	}

	result := h.service.UploadBatch(r.Context(), user.UserID, files)
	respondJSON(w, h.logger, http.StatusOK, uploadResponse{Success: true, BatchResult: result})
}

// Delete handles DELETE /api/documents/{pdfID}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}

	pdfID, err := pdfIDParam(r)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	if err := h.service.Delete(r.Context(), user.UserID, pdfID); err != nil {
		respondError(w, h.logger, err, "Failed to delete PDF")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, messageResponse{
		Success: true,
		Message: "PDF deleted successfully",
	})
}

// DownloadURL handles GET /api/documents/{pdfID}/download-url
func (h *DocumentHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return
	}

	pdfID, err := pdfIDParam(r)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	url, err := h.service.DownloadURL(r.Context(), user.UserID, pdfID)
	if err != nil {
		respondError(w, h.logger, err, "Failed to get download link")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, downloadURLResponse{Success: true, URL: url})
}

func pdfIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pdfID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.NewValidationError("Invalid PDF id")
	}
	return id, nil
}

func formFile(fh *multipart.FileHeader) documents.File {
	return documents.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
