package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/rpc"
)

// GRPCClient implements Remote using the gRPC transport.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client *rpc.ConfigServiceClient
	health healthpb.HealthClient
	token  string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// Extra dial options are appended to the defaults (insecure transport).
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: rpc.NewConfigServiceClient(conn),
		health: healthpb.NewHealthClient(conn),
		token:  token,
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// authed attaches the bearer token to outgoing metadata.
func (c *GRPCClient) authed(ctx context.Context) (context.Context, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token), nil
}

func (c *GRPCClient) FetchConfig(ctx context.Context) (*model.Document, error) {
	ctx, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	s, err := c.client.GetConfig(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return rpc.StructToDocument(s)
}

func (c *GRPCClient) SaveConfig(ctx context.Context, doc *model.Document) error {
	ctx, err := c.authed(ctx)
	if err != nil {
		return err
	}
	s, err := rpc.DocumentToStruct(doc)
	if err != nil {
		return err
	}
	_, err = c.client.PutConfig(ctx, s)
	return err
}

func (c *GRPCClient) DeleteImage(ctx context.Context, path string) (bool, error) {
	ctx, err := c.authed(ctx)
	if err != nil {
		return false, err
	}
	resp, err := c.client.DeleteImage(ctx, wrapperspb.String(path))
	if err != nil {
		return false, err
	}
	return resp.GetValue(), nil
}

func (c *GRPCClient) CreateBackup(ctx context.Context) (string, error) {
	ctx, err := c.authed(ctx)
	if err != nil {
		return "", err
	}
	resp, err := c.client.CreateBackup(ctx, &emptypb.Empty{})
	if err != nil {
		return "", err
	}
	return resp.GetValue(), nil
}

// Health reports the serving status of the ConfigService.
func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: rpc.ServiceName})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}
