package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/folio/internal/auth"
	"github.com/alfredjeanlab/folio/internal/rpc"
)

// stubVerifier accepts a single token as user "admin".
type stubVerifier string

func (v stubVerifier) Verify(_ context.Context, token string) (string, error) {
	if token != string(v) {
		return "", auth.ErrInvalidToken
	}
	return "admin", nil
}

// stubHandler is a no-op gRPC handler used in interceptor tests. It echoes
// the authenticated user.
func stubHandler(ctx context.Context, _ any) (any, error) {
	return "ok:" + UserFromContext(ctx), nil
}

var getConfigInfo = &grpc.UnaryServerInfo{FullMethod: rpc.MethodGetConfig}

func TestAuthInterceptor_HealthExempt(t *testing.T) {
	interceptor := AuthInterceptor(stubVerifier("secret"))
	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, stubHandler)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp != "ok:" {
		t.Fatalf("expected 'ok:', got %v", resp)
	}
}

func TestAuthInterceptor_Rejects(t *testing.T) {
	interceptor := AuthInterceptor(stubVerifier("secret"))
	for _, tc := range []struct {
		name string
		ctx  context.Context
	}{
		{"missing metadata", context.Background()},
		{"missing header", metadata.NewIncomingContext(context.Background(), metadata.Pairs("other", "value"))},
		{"wrong token", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer wrong"))},
		{"invalid scheme", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic secret"))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := interceptor(tc.ctx, nil, getConfigInfo, stubHandler)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if status.Code(err) != codes.Unauthenticated {
				t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
			}
		})
	}
}

func TestAuthInterceptor_CorrectToken(t *testing.T) {
	interceptor := AuthInterceptor(stubVerifier("secret"))
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer secret"))
	resp, err := interceptor(ctx, nil, getConfigInfo, stubHandler)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp != "ok:admin" {
		t.Fatalf("expected 'ok:admin', got %v", resp)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	_, err := RecoveryInterceptor(context.Background(), nil, getConfigInfo, func(context.Context, any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

// --- AuthMiddleware tests ---

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"user": UserFromContext(r.Context())})
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(stubVerifier("secret"), okHandler())
	for _, tc := range []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Basic secret", http.StatusUnauthorized},
		{"Bearer", http.StatusUnauthorized},
		{"Bearer secret", http.StatusOK},
	} {
		t.Run(tc.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d; body: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

// failingVerifier simulates a session backend outage.
type failingVerifier struct{}

func (failingVerifier) Verify(context.Context, string) (string, error) {
	return "", errors.New("redis: connection refused")
}

func TestAuthMiddleware_BackendFailureIsUnauthorized(t *testing.T) {
	handler := AuthMiddleware(failingVerifier{}, okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
