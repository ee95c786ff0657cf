// Package pdfapi is the client of the PDF processing backend, which stores
// uploads, extracts their content into the document store and deletes them.
package pdfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"coursegraph/application/ports"
)

// BackendError is a failure reported by the backend itself, either through a
// non-success status field or a non-2xx response.
type BackendError struct {
	Op      string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// Client implements ports.PDFBackend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a PDF backend client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type uploadResponse struct {
	statusResponse
	S3Key string `json:"s3_key"`
}

type processResponse struct {
	statusResponse
	PDFID            flexInt `json:"pdf_id"`
	Title            string  `json:"title"`
	ConnectionsFound int     `json:"connections_found"`
}

// Upload stores the file and returns its storage key
func (c *Client) Upload(ctx context.Context, userID, filename string, content io.Reader) (*ports.UploadedFile, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy upload content: %w", err)
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return nil, fmt.Errorf("write user_id field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadResponse
	if err := c.send(req, "Upload", &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, &BackendError{Op: "upload", Message: orDefault(out.Message, "Upload failed")}
	}
	return &ports.UploadedFile{S3Key: out.S3Key}, nil
}

// Process runs extraction and relationship discovery on an uploaded file
func (c *Client) Process(ctx context.Context, userID, s3Key string) (*ports.ProcessedDocument, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/process-pdf/", map[string]string{
		"s3_key":  s3Key,
		"user_id": userID,
	})
	if err != nil {
		return nil, err
	}

	var out processResponse
	if err := c.send(req, "Processing", &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, &BackendError{Op: "process", Message: orDefault(out.Message, "Processing error")}
	}
	return &ports.ProcessedDocument{
		PDFID:            int64(out.PDFID),
		Title:            out.Title,
		ConnectionsFound: out.ConnectionsFound,
	}, nil
}

// Delete removes the document and its stored file
func (c *Client) Delete(ctx context.Context, userID string, pdfID int64) error {
	req, err := c.jsonRequest(ctx, http.MethodDelete, "/pdf/"+strconv.FormatInt(pdfID, 10), map[string]any{
		"user_id":     userID,
		"delete_file": true,
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete pdf %d: %w", pdfID, err)
	}
	defer resp.Body.Close()

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return &BackendError{Op: "delete", Status: resp.StatusCode, Message: "Failed to delete PDF"}
	}
	if out.Status != "success" {
		return &BackendError{Op: "delete", Status: resp.StatusCode, Message: orDefault(out.Message, "Failed to delete PDF")}
	}
	return nil
}

// DownloadURL returns a time-limited link to the stored file
func (c *Client) DownloadURL(ctx context.Context, pdfID int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/pdf/"+strconv.FormatInt(pdfID, 10)+"/download-url", nil)
	if err != nil {
		return "", fmt.Errorf("build download-url request: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, "Download link", &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", &BackendError{Op: "download-url", Message: "Download link unavailable"}
	}
	return out.URL, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// send executes req, treating any non-2xx status as "<label> failed with status: N"
func (c *Client) send(req *http.Request, label string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("PDF backend returned error status",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return &BackendError{
			Op:      strings.ToLower(label),
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s failed with status: %d", label, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", strings.ToLower(label), err)
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// flexInt accepts a JSON number or a numeric string
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("pdf_id: %w", err)
	}
	*f = flexInt(n)
	return nil
}
