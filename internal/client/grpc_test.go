package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/alfredjeanlab/folio/internal/auth"
	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/server"
	"github.com/alfredjeanlab/folio/internal/store/file"
)

// newGRPCTestClient serves a real backend over bufconn and returns a client
// for it using token.
func newGRPCTestClient(t *testing.T, token string) *GRPCClient {
	t.Helper()
	fs, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	if err := fs.SaveDocument(context.Background(), model.NewDocument(&model.Admin{Username: "admin"})); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	srv := server.New(server.Options{
		Store: fs,
		Auth:  auth.NewService(fs, auth.NewMemorySessions(time.Hour), "svc-token"),
	})

	lis := bufconn.Listen(1 << 20)
	gs := server.NewGRPCServer(srv)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("NewGRPCClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGRPCClient_SaveAndFetch(t *testing.T) {
	c := newGRPCTestClient(t, "svc-token")
	ctx := context.Background()

	doc := model.NewDocument(nil)
	doc.PersonalInfo.Name = "Ada"
	doc.Projects = []model.Project{{ID: "project_1", Title: "Engine", Technologies: []string{"Go", "gRPC"}, Featured: true}}
	if err := c.SaveConfig(ctx, doc); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := c.FetchConfig(ctx)
	if err != nil {
		t.Fatalf("FetchConfig: %v", err)
	}
	if got.PersonalInfo.Name != "Ada" || len(got.Projects) != 1 {
		t.Fatalf("got %+v", got)
	}
	p := got.Projects[0]
	if p.Title != "Engine" || !p.Featured || len(p.Technologies) != 2 || p.Technologies[1] != "gRPC" {
		t.Errorf("project = %+v", p)
	}
	if got.Admin != nil {
		t.Error("admin must not be returned")
	}
}

func TestGRPCClient_BackupAndImage(t *testing.T) {
	c := newGRPCTestClient(t, "svc-token")
	ctx := context.Background()

	name, err := c.CreateBackup(ctx)
	if err != nil || name == "" {
		t.Fatalf("CreateBackup = %q, %v", name, err)
	}
	// No media library is configured on this server.
	if _, err := c.DeleteImage(ctx, "/assets/images/misc/a.png"); status.Code(err) != codes.Internal {
		t.Errorf("DeleteImage without media: got %v", err)
	}
}

func TestGRPCClient_Auth(t *testing.T) {
	if _, err := newGRPCTestClient(t, "").FetchConfig(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
	_, err := newGRPCTestClient(t, "wrong").FetchConfig(context.Background())
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
}

func TestGRPCClient_Health(t *testing.T) {
	c := newGRPCTestClient(t, "")
	st, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if st != "SERVING" {
		t.Errorf("status = %q", st)
	}
}
