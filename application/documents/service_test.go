package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coursegraph/application/ports"
	"coursegraph/domain/events"
	"coursegraph/domain/graph"
	pkgerrors "coursegraph/pkg/errors"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Upload(ctx context.Context, userID, filename string, content io.Reader) (*ports.UploadedFile, error) {
	args := m.Called(ctx, userID, filename)
	up, _ := args.Get(0).(*ports.UploadedFile)
	return up, args.Error(1)
}

func (m *mockBackend) Process(ctx context.Context, userID, s3Key string) (*ports.ProcessedDocument, error) {
	args := m.Called(ctx, userID, s3Key)
	doc, _ := args.Get(0).(*ports.ProcessedDocument)
	return doc, args.Error(1)
}

func (m *mockBackend) Delete(ctx context.Context, userID string, pdfID int64) error {
	return m.Called(ctx, userID, pdfID).Error(0)
}

func (m *mockBackend) DownloadURL(ctx context.Context, pdfID int64) (string, error) {
	args := m.Called(ctx, pdfID)
	return args.String(0), args.Error(1)
}

type recorder struct {
	mu          sync.Mutex
	invalidated []string
	notified    []any
	published   []events.Event
	uploads     []string
}

func (r *recorder) InvalidateUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, userID)
}

func (r *recorder) NotifyUser(userID string, message any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, message)
}

func (r *recorder) Publish(_ context.Context, evts ...events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, evts...)
	return nil
}

func (r *recorder) RecordUpload(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, status)
}

func pdf(name string) File {
	return File{
		Filename:    name,
		ContentType: "application/pdf",
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("%PDF")), nil },
	}
}

type docStore struct {
	owned map[string][]graph.Document
	err   error
}

func (s docStore) DocumentsByUser(_ context.Context, userID string) ([]graph.Document, error) {
	return s.owned[userID], s.err
}

func (s docStore) RelatedDocuments(context.Context, int64) ([]graph.Document, error) {
	return nil, nil
}

func newService(backend *mockBackend, rec *recorder, delay time.Duration) *Service {
	store := docStore{owned: map[string][]graph.Document{"u1": {{PDFID: 7, UserID: "u1"}}}}
	return NewService(backend, store, rec, rec, rec, rec, delay, zap.NewNop())
}

func TestFile_IsPDF(t *testing.T) {
	tests := []struct {
		file File
		want bool
	}{
		{File{Filename: "a.pdf", ContentType: "application/pdf"}, true},
		{File{Filename: "a", ContentType: "application/pdf; charset=binary"}, true},
		{File{Filename: "a.PDF", ContentType: "application/octet-stream"}, true},
		{File{Filename: "a.pdf"}, true},
		{File{Filename: "a.txt", ContentType: "text/plain"}, false},
		{File{Filename: "a.pdf", ContentType: "image/png"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.file.IsPDF(), "%+v", tt.file)
	}
}

func TestService_UploadBatch_SecondFails(t *testing.T) {
	// Arrange
	backend := new(mockBackend)
	rec := &recorder{}
	svc := newService(backend, rec, 0)

	backend.On("Upload", mock.Anything, "u1", "a.pdf").Return(&ports.UploadedFile{S3Key: "k-a"}, nil)
	backend.On("Upload", mock.Anything, "u1", "b.pdf").Return(nil, errors.New("Upload failed with status: 500"))
	backend.On("Upload", mock.Anything, "u1", "c.pdf").Return(&ports.UploadedFile{S3Key: "k-c"}, nil)
	backend.On("Process", mock.Anything, "u1", "k-a").Return(&ports.ProcessedDocument{PDFID: 1, Title: "A", ConnectionsFound: 2}, nil)
	backend.On("Process", mock.Anything, "u1", "k-c").Return(&ports.ProcessedDocument{PDFID: 3, Title: "C", ConnectionsFound: 5}, nil)

	// Act
	batch := svc.UploadBatch(context.Background(), "u1", []File{pdf("a.pdf"), pdf("b.pdf"), pdf("c.pdf")})

	// Assert
	require.Len(t, batch.Results, 3)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, []string{batch.Results[0].Filename, batch.Results[1].Filename, batch.Results[2].Filename})
	assert.Equal(t, StatusSuccess, batch.Results[0].Status)
	assert.Equal(t, StatusError, batch.Results[1].Status)
	assert.Equal(t, "Upload failed with status: 500", batch.Results[1].Error)
	assert.Equal(t, StatusSuccess, batch.Results[2].Status)
	assert.Equal(t, 1, batch.ErrorCount)
	assert.Equal(t, 2, batch.SuccessCount)
	assert.Equal(t, 7, batch.TotalConnections)

	assert.Equal(t, []string{"u1"}, rec.invalidated)
	require.Len(t, rec.notified, 1)
	assert.Equal(t, GraphUpdated{Type: MessageGraphUpdated, Reason: "uploaded", PDFIDs: []int64{1, 3}}, rec.notified[0])
	assert.Equal(t, []string{"success", "error", "success"}, rec.uploads)
}

func TestService_UploadBatch_SkipsNonPDFs(t *testing.T) {
	backend := new(mockBackend)
	rec := &recorder{}
	svc := newService(backend, rec, 0)
	backend.On("Upload", mock.Anything, "u1", "a.pdf").Return(&ports.UploadedFile{S3Key: "k"}, nil)
	backend.On("Process", mock.Anything, "u1", "k").Return(&ports.ProcessedDocument{PDFID: 1}, nil)

	batch := svc.UploadBatch(context.Background(), "u1", []File{
		{Filename: "notes.txt", ContentType: "text/plain"},
		pdf("a.pdf"),
	})

	assert.Len(t, batch.Results, 1)
	assert.Equal(t, []string{"notes.txt"}, batch.Skipped)
}

func TestService_UploadBatch_ProcessFailureNotifiesNothing(t *testing.T) {
	backend := new(mockBackend)
	rec := &recorder{}
	svc := newService(backend, rec, 0)
	backend.On("Upload", mock.Anything, "u1", "a.pdf").Return(&ports.UploadedFile{S3Key: "k"}, nil)
	backend.On("Process", mock.Anything, "u1", "k").Return(nil, errors.New("Processing error"))

	batch := svc.UploadBatch(context.Background(), "u1", []File{pdf("a.pdf")})

	assert.Equal(t, "Processing error", batch.Results[0].Error)
	assert.Zero(t, batch.TotalConnections)
	assert.Empty(t, rec.invalidated)
	assert.Empty(t, rec.notified)
}

func TestService_UploadBatch_PausesBetweenFilesOnly(t *testing.T) {
	backend := new(mockBackend)
	rec := &recorder{}
	svc := newService(backend, rec, 40*time.Millisecond)
	backend.On("Upload", mock.Anything, "u1", mock.Anything).Return(&ports.UploadedFile{S3Key: "k"}, nil)
	backend.On("Process", mock.Anything, "u1", "k").Return(&ports.ProcessedDocument{PDFID: 1}, nil)

	start := time.Now()
	svc.UploadBatch(context.Background(), "u1", []File{pdf("a.pdf"), pdf("b.pdf"), pdf("c.pdf")})
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestService_UploadBatch_Cancelled(t *testing.T) {
	backend := new(mockBackend)
	rec := &recorder{}
	svc := newService(backend, rec, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	backend.On("Upload", mock.Anything, "u1", "a.pdf").Return(&ports.UploadedFile{S3Key: "k"}, nil)
	backend.On("Process", mock.Anything, "u1", "k").Return(&ports.ProcessedDocument{PDFID: 1}, nil).Run(func(mock.Arguments) { cancel() })

	batch := svc.UploadBatch(ctx, "u1", []File{pdf("a.pdf"), pdf("b.pdf")})

	require.Len(t, batch.Results, 2)
	assert.Equal(t, StatusSuccess, batch.Results[0].Status)
	assert.Equal(t, "Upload cancelled", batch.Results[1].Error)
	backend.AssertNumberOfCalls(t, "Upload", 1)
}

func TestService_Delete(t *testing.T) {
	t.Run("success invalidates and notifies", func(t *testing.T) {
		backend := new(mockBackend)
		rec := &recorder{}
		svc := newService(backend, rec, 0)
		backend.On("Delete", mock.Anything, "u1", int64(7)).Return(nil)

		require.NoError(t, svc.DeleteNode(context.Background(), "u1", "pdf_7"))

		assert.Equal(t, []string{"u1"}, rec.invalidated)
		require.Len(t, rec.published, 1)
		assert.Equal(t, events.TypeDocumentDeleted, rec.published[0].Type)
	})

	t.Run("backend refusal surfaces message", func(t *testing.T) {
		backend := new(mockBackend)
		rec := &recorder{}
		svc := newService(backend, rec, 0)
		backend.On("Delete", mock.Anything, "u1", int64(7)).Return(errors.New("PDF is locked"))

		err := svc.Delete(context.Background(), "u1", 7)

		assert.Equal(t, "PDF is locked", pkgerrors.MessageOf(err, ""))
		assert.Empty(t, rec.invalidated)
	})

	t.Run("non-document node", func(t *testing.T) {
		svc := newService(new(mockBackend), &recorder{}, 0)

		err := svc.DeleteNode(context.Background(), "u1", "cse101")

		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
	})
}

func TestService_DownloadURL(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		pdfID       int64
		storeErr    error
		wantURL     string
		wantType    pkgerrors.ErrorType
		wantMessage string
	}{
		{name: "own document", userID: "u1", pdfID: 7, wantURL: "https://files.example/7.pdf"},
		{name: "foreign document", userID: "u2", pdfID: 7, wantType: pkgerrors.ErrorTypeNotFound, wantMessage: "PDF not found"},
		{name: "unknown document", userID: "u1", pdfID: 8, wantType: pkgerrors.ErrorTypeNotFound, wantMessage: "PDF not found"},
		{
			name:        "store down",
			userID:      "u1",
			pdfID:       7,
			storeErr:    errors.New("connection refused"),
			wantType:    pkgerrors.ErrorTypeExternal,
			wantMessage: "Failed to get download link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			backend := new(mockBackend)
			backend.On("DownloadURL", mock.Anything, int64(7)).Return("https://files.example/7.pdf", nil)
			store := docStore{owned: map[string][]graph.Document{"u1": {{PDFID: 7, UserID: "u1"}}}, err: tt.storeErr}
			svc := NewService(backend, store, nil, nil, nil, nil, 0, zap.NewNop())

			// Act
			url, err := svc.DownloadURL(context.Background(), tt.userID, tt.pdfID)

			// Assert
			if tt.wantURL != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, url)
				return
			}
			appErr := pkgerrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.wantMessage, appErr.Message)
			backend.AssertNotCalled(t, "DownloadURL", mock.Anything, mock.Anything)
		})
	}
}
