package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	query       string
	body        string
	contentType string
	auth        string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler, opts ...HTTPOption) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", opts...)
}

func TestHTTPClient_FetchConfig(t *testing.T) {
	h := &testHandler{responseBody: `{"personal_info":{"name":"Ada"},"skills":[{"id":"skill_1","name":"Go","level":90}]}`}
	c := newTestClient(t, h)

	doc, err := c.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig: %v", err)
	}
	if h.method != "GET" || h.path != "/api/config" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.auth != "" {
		t.Errorf("unexpected auth header %q", h.auth)
	}
	if doc.PersonalInfo.Name != "Ada" || len(doc.Skills) != 1 || doc.Projects == nil {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHTTPClient_FetchConfig_Fallback(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "portfolio_config.json")
	if err := os.WriteFile(fallback, []byte(`{"personal_info":{"name":"Static"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	h := &testHandler{statusCode: http.StatusInternalServerError, responseBody: `{"error":"boom"}`}
	c := newTestClient(t, h, WithFallback(fallback))
	doc, err := c.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig: %v", err)
	}
	if doc.PersonalInfo.Name != "Static" {
		t.Errorf("name = %q, want fallback document", doc.PersonalInfo.Name)
	}

	// Without a fallback the API error surfaces.
	c = newTestClient(t, h)
	_, err = c.FetchConfig(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.Message != "boom" {
		t.Fatalf("expected APIError 500 boom, got %v", err)
	}
}

func TestHTTPClient_SaveConfig(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true}`}
	c := newTestClient(t, h, WithToken("tok"))

	doc := model.NewDocument(nil)
	doc.PersonalInfo.Name = "Ada"
	if err := c.SaveConfig(context.Background(), doc); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if h.method != "PUT" || h.path != "/api/config" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.auth != "Bearer tok" {
		t.Errorf("auth = %q", h.auth)
	}
	if h.contentType != "application/json" || !strings.Contains(h.body, `"name":"Ada"`) {
		t.Errorf("content type %q body %s", h.contentType, h.body)
	}
}

func TestHTTPClient_RequiresToken(t *testing.T) {
	h := &testHandler{}
	c := newTestClient(t, h)
	ctx := context.Background()

	checks := map[string]error{
		"SaveConfig": c.SaveConfig(ctx, model.NewDocument(nil)),
		"Logout":     c.Logout(ctx),
	}
	_, checks["DeleteImage"] = c.DeleteImage(ctx, "/assets/x.png")
	_, checks["CreateBackup"] = c.CreateBackup(ctx)
	_, checks["UploadImage"] = c.UploadImage(ctx, "misc", "a.png", strings.NewReader("x"))
	for name, err := range checks {
		if !errors.Is(err, ErrNoToken) {
			t.Errorf("%s: expected ErrNoToken, got %v", name, err)
		}
	}
	if h.method != "" {
		t.Errorf("no request expected, got %s %s", h.method, h.path)
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	h := &testHandler{statusCode: http.StatusUnauthorized, responseBody: `{"error":"invalid token"}`}
	c := newTestClient(t, h, WithToken("stale"))
	err := c.SaveConfig(context.Background(), model.NewDocument(nil))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 401 || apiErr.Error() != "HTTP 401: invalid token" {
		t.Errorf("err = %v", apiErr)
	}

	// A non-JSON body is reported verbatim.
	h.responseBody = "bad gateway"
	h.statusCode = http.StatusBadGateway
	err = c.SaveConfig(context.Background(), model.NewDocument(nil))
	if !errors.As(err, &apiErr) || apiErr.Message != "bad gateway" {
		t.Errorf("err = %v", err)
	}
}

func TestHTTPClient_NonSuccessStatus(t *testing.T) {
	// A redirect without Location is handed back unfollowed.
	for _, code := range []int{http.StatusFound, http.StatusNotModified} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			h := &testHandler{statusCode: code}
			c := newTestClient(t, h, WithToken("tok"))
			err := c.SaveConfig(context.Background(), model.NewDocument(nil))
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != code {
				t.Fatalf("SaveConfig with HTTP %d: err = %v", code, err)
			}
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewHTTPClient(srv.URL)
	_, err := c.FetchConfig(context.Background())
	if err == nil || !strings.Contains(err.Error(), "performing request") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestHTTPClient_UploadImage(t *testing.T) {
	var kind, filename, partType, content string
	srv := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = r.FormValue("type")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		filename, partType, content = hdr.Filename, hdr.Header.Get("Content-Type"), string(data)
		fmt.Fprint(w, `{"success":true,"path":"/assets/images/projects/1_abc.png","filename":"1_abc.png"}`)
	})
	c := newTestClient(t, srv, WithToken("tok"))

	img, err := c.UploadImage(context.Background(), "project", "/tmp/shots/Screen.PNG", strings.NewReader("\x89PNG"))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if img.Path != "/assets/images/projects/1_abc.png" || img.Filename != "1_abc.png" {
		t.Errorf("img = %+v", img)
	}
	if kind != "project" || filename != "Screen.PNG" || partType != "image/png" || content != "\x89PNG" {
		t.Errorf("kind=%q filename=%q type=%q content=%q", kind, filename, partType, content)
	}
}

func TestHTTPClient_DeleteImage(t *testing.T) {
	h := &testHandler{responseBody: `{"success":false,"message":"File not found"}`}
	c := newTestClient(t, h, WithToken("tok"))
	deleted, err := c.DeleteImage(context.Background(), "/assets/images/misc/a.png")
	if err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false")
	}
	if h.method != "DELETE" || h.path != "/api/images" || h.body != `{"path":"/assets/images/misc/a.png"}` {
		t.Errorf("request = %s %s %s", h.method, h.path, h.body)
	}
}

func TestHTTPClient_BackupsAndLogin(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true,"file":"backup_20240102_030405.json"}`}
	c := newTestClient(t, h, WithToken("tok"))
	name, err := c.CreateBackup(context.Background())
	if err != nil || name != "backup_20240102_030405.json" {
		t.Fatalf("CreateBackup = %q, %v", name, err)
	}

	h.responseBody = `[{"name":"backup_b.json","size":20,"created":"2024-01-02T03:04:05Z"}]`
	list, err := c.ListBackups(context.Background())
	if err != nil || len(list) != 1 || list[0].Size != 20 {
		t.Fatalf("ListBackups = %+v, %v", list, err)
	}

	h.responseBody = `{"success":true,"token":"abc","expires_at":"2024-01-03T03:04:05Z"}`
	l, err := c.Login(context.Background(), "admin", "pw")
	if err != nil || l.Token != "abc" || !l.ExpiresAt.Equal(time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("Login = %+v, %v", l, err)
	}
	if h.path != "/api/auth/login" || !strings.Contains(h.body, `"username":"admin"`) {
		t.Errorf("login request = %s %s", h.path, h.body)
	}
}

func TestHTTPClient_SendMessageIsPublic(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true}`}
	c := newTestClient(t, h)
	err := c.SendMessage(context.Background(), &MessageRequest{FirstName: "A", Email: "a@example.com", Message: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if h.auth != "" || h.path != "/api/messages" || !strings.Contains(h.body, `"firstName":"A"`) {
		t.Errorf("request auth=%q path=%s body=%s", h.auth, h.path, h.body)
	}
}

func TestHTTPClient_StreamEvents(t *testing.T) {
	var gotQuery string
	srv := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("topics")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ":keepalive\n\n")
		fmt.Fprint(w, "id:1\nevent:folio.message.created\ndata:{\"message\":{\"id\":\"msg_1\"}}\n\n")
		fmt.Fprint(w, "id:2\nevent:folio.visit.recorded\ndata:{\"total_visitors\":3}\n\n")
	})
	c := newTestClient(t, srv, WithToken("tok"))

	ch, err := c.StreamEvents(context.Background(), []string{"folio.message.*", "folio.visit.*"})
	if err != nil {
		t.Fatalf("StreamEvents: %v", err)
	}
	var got []string
	for env := range ch {
		got = append(got, env.Topic+" "+string(env.Data))
	}
	want := []string{
		`folio.message.created {"message":{"id":"msg_1"}}`,
		`folio.visit.recorded {"total_visitors":3}`,
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("events = %q, want %q", got, want)
	}
	if gotQuery != "folio.message.*,folio.visit.*" {
		t.Errorf("topics query = %q", gotQuery)
	}
}
