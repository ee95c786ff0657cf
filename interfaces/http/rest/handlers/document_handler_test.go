package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coursegraph/application/documents"
	"coursegraph/domain/identity"
	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

type mockDocumentService struct {
	mock.Mock
}

func (m *mockDocumentService) UploadBatch(ctx context.Context, userID string, files []documents.File) *documents.BatchResult {
	return m.Called(ctx, userID, files).Get(0).(*documents.BatchResult)
}

func (m *mockDocumentService) Delete(ctx context.Context, userID string, pdfID int64) error {
	return m.Called(ctx, userID, pdfID).Error(0)
}

func (m *mockDocumentService) DownloadURL(ctx context.Context, userID string, pdfID int64) (string, error) {
	args := m.Called(ctx, userID, pdfID)
	return args.String(0), args.Error(1)
}

func documentRouter(svc DocumentService) http.Handler {
	h := NewDocumentHandler(svc, 1<<20, zap.NewNop())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := &identity.User{UserID: "u1"}
			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	})
	r.Post("/api/documents", h.Upload)
	r.Delete("/api/documents/{pdfID}", h.Delete)
	r.Get("/api/documents/{pdfID}/download-url", h.DownloadURL)
	return r
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDocumentHandler_Upload(t *testing.T) {
	// Arrange
	svc := new(mockDocumentService)
	result := &documents.BatchResult{
		Results: []documents.UploadResult{
			{Filename: "a.pdf", Status: documents.StatusSuccess, PDFID: 1, Connections: 2},
		},
		Skipped:          []string{"notes.txt"},
		SuccessCount:     1,
		TotalConnections: 2,
	}
	var got []documents.File
	svc.On("UploadBatch", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).([]documents.File) }).
		Return(result)

	body, contentType := multipartBody(t, "a.pdf", "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)

	// Act
	rec := httptest.NewRecorder()
	documentRouter(svc).ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["successCount"])
	assert.Equal(t, float64(2), resp["totalConnections"])
	assert.Len(t, resp["results"], 1)

	require.Len(t, got, 2)
	assert.Equal(t, "a.pdf", got[0].Filename)
	rc, err := got[0].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 a.pdf", string(content))
}

func TestDocumentHandler_UploadRejects(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		wantErr string
	}{
		{name: "no files", files: nil, wantErr: "No files provided"},
		{name: "no pdfs", files: []string{"notes.txt", "slides.pptx"}, wantErr: "Please select PDF files only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockDocumentService)
			body, contentType := multipartBody(t, tt.files...)
			req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			documentRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["error"])
			svc.AssertNotCalled(t, "UploadBatch", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDocumentHandler_Delete(t *testing.T) {
	locked := pkgerrors.NewExternalError("pdf backend", assert.AnError)
	locked.Message = "PDF is locked"

	tests := []struct {
		name       string
		path       string
		serviceErr error
		callsSvc   bool
		wantStatus int
		wantKey    string
		wantText   string
	}{
		{
			name:       "deleted",
			path:       "/api/documents/42",
			callsSvc:   true,
			wantStatus: http.StatusOK,
			wantKey:    "message",
			wantText:   "PDF deleted successfully",
		},
		{
			name:       "backend refusal",
			path:       "/api/documents/42",
			serviceErr: locked,
			callsSvc:   true,
			wantStatus: http.StatusBadGateway,
			wantKey:    "error",
			wantText:   "PDF is locked",
		},
		{
			name:       "invalid id",
			path:       "/api/documents/abc",
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
			wantText:   "Invalid PDF id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockDocumentService)
			if tt.callsSvc {
				svc.On("Delete", mock.Anything, "u1", int64(42)).Return(tt.serviceErr)
			}

			rec := httptest.NewRecorder()
			documentRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantText, decodeBody(t, rec)[tt.wantKey])
			svc.AssertExpectations(t)
		})
	}
}

func TestDocumentHandler_DownloadURL(t *testing.T) {
	svc := new(mockDocumentService)
	svc.On("DownloadURL", mock.Anything, "u1", int64(7)).Return("https://files.example/7.pdf", nil)

	rec := httptest.NewRecorder()
	documentRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/7/download-url", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://files.example/7.pdf", body["url"])
}

func TestDocumentHandler_DownloadURLForeignDocument(t *testing.T) {
	// Arrange
	svc := new(mockDocumentService)
	svc.On("DownloadURL", mock.Anything, "u1", int64(9)).Return("", pkgerrors.NewNotFoundError("PDF not found"))

	// Act
	rec := httptest.NewRecorder()
	documentRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/9/download-url", nil))

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "PDF not found", body["error"])
	assert.NotContains(t, body, "url")
	svc.AssertExpectations(t)
}
