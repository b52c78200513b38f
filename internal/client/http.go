package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/alfredjeanlab/folio/internal/model"
)

// HTTPClient implements Remote using the folio HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	fallback   string
	httpClient *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithToken sets the bearer token attached to authenticated requests.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) { c.token = token }
}

// WithFallback sets a static JSON document FetchConfig returns when the
// backend cannot be reached or answers with an error.
func WithFallback(path string) HTTPOption {
	return func(c *HTTPClient) { c.fallback = path }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8000").
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Document ---

// FetchConfig loads the public document. When a fallback file is
// configured it is used if the request fails.
func (c *HTTPClient) FetchConfig(ctx context.Context) (*model.Document, error) {
	var doc model.Document
	err := c.doJSON(ctx, http.MethodGet, "/api/config", nil, &doc)
	if err == nil {
		doc.Normalize()
		return &doc, nil
	}
	if c.fallback == "" || ctx.Err() != nil {
		return nil, err
	}
	slog.Warn("config fetch failed, using fallback", "fallback", c.fallback, "error", err)
	return loadFallback(c.fallback)
}

// SaveConfig replaces the remote document.
func (c *HTTPClient) SaveConfig(ctx context.Context, doc *model.Document) error {
	if c.token == "" {
		return ErrNoToken
	}
	return c.doJSON(ctx, http.MethodPut, "/api/config", doc, nil)
}

// --- Media ---

// UploadImage uploads an image into the folder for kind ("profile",
// "project" or anything else for misc).
func (c *HTTPClient) UploadImage(ctx context.Context, kind, filename string, body io.Reader) (*Image, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", kind); err != nil {
		return nil, fmt.Errorf("writing form: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", imageContentType(filename))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("writing form: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("writing form: %w", err)
	}

	var img Image
	if err := c.do(ctx, http.MethodPost, "/api/upload", mw.FormDataContentType(), &buf, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteImage deletes an uploaded image. It reports false when the server
// had no file at path.
func (c *HTTPClient) DeleteImage(ctx context.Context, path string) (bool, error) {
	if c.token == "" {
		return false, ErrNoToken
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/api/images", map[string]string{"path": path}, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// --- Backups ---

// CreateBackup asks the server for a snapshot and returns its name.
func (c *HTTPClient) CreateBackup(ctx context.Context) (string, error) {
	if c.token == "" {
		return "", ErrNoToken
	}
	var resp struct {
		File string `json:"file"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/backup", nil, &resp); err != nil {
		return "", err
	}
	return resp.File, nil
}

// ListBackups returns the server's snapshots, newest first.
func (c *HTTPClient) ListBackups(ctx context.Context) ([]Backup, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	var backups []Backup
	if err := c.doJSON(ctx, http.MethodGet, "/api/backups", nil, &backups); err != nil {
		return nil, err
	}
	return backups, nil
}

// RestoreBackup replaces the server's document with the named snapshot.
func (c *HTTPClient) RestoreBackup(ctx context.Context, name string) error {
	if c.token == "" {
		return ErrNoToken
	}
	return c.doJSON(ctx, http.MethodPost, "/api/backups/"+url.PathEscape(name)+"/restore", nil, nil)
}

// --- Public endpoints ---

// SendMessage submits the public contact form.
func (c *HTTPClient) SendMessage(ctx context.Context, req *MessageRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/messages", req, nil)
}

// RecordVisit increments the visitor counter and returns the new total.
func (c *HTTPClient) RecordVisit(ctx context.Context) (int, error) {
	var resp struct {
		TotalVisitors int `json:"total_visitors"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/stats/visit", nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalVisitors, nil
}

// Health reports the backend status.
func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// --- Auth ---

// Login exchanges credentials for a session token.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*Login, error) {
	var l Login
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Logout revokes the client's token.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if c.token == "" {
		return ErrNoToken
	}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Verify checks the client's token and returns the user it belongs to.
func (c *HTTPClient) Verify(ctx context.Context) (string, error) {
	if c.token == "" {
		return "", ErrNoToken
	}
	var resp struct {
		Username string `json:"username"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/verify", nil, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// ChangePassword replaces the admin password.
func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if c.token == "" {
		return ErrNoToken
	}
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/change-password", body, nil)
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, bodyReader, result)
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// imageContentType guesses an image MIME type from the file extension.
func imageContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
