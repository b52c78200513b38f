package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/rpc"
	"github.com/alfredjeanlab/folio/internal/store"
)

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the ConfigService, health, reflection, and returns the server
// ready to serve.
func NewGRPCServer(s *Server) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(s.auth),
		),
	)

	rpc.RegisterConfigServiceServer(srv, &configService{s: s})

	hs := health.NewServer()
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)

	return srv
}

// configService adapts Server to rpc.ConfigServiceServer.
type configService struct {
	s *Server
}

var _ rpc.ConfigServiceServer = (*configService)(nil)

func (c *configService) GetConfig(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	doc, err := c.s.publicConfig(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	out, err := rpc.DocumentToStruct(doc)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode config: %v", err)
	}
	return out, nil
}

func (c *configService) PutConfig(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	doc, err := rpc.StructToDocument(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid config: %v", err)
	}
	if _, err := c.s.replaceConfig(ctx, doc, "grpc"); err != nil {
		return nil, grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

func (c *configService) DeleteImage(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	deleted, err := c.s.deleteImage(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return wrapperspb.Bool(deleted), nil
}

func (c *configService) CreateBackup(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	b, err := c.s.createBackup(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return wrapperspb.String(b.Name), nil
}

// grpcError maps a domain error to a gRPC status.
func grpcError(err error) error {
	var ie inputError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ie), errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "config not found")
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}
