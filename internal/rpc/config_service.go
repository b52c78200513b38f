// Package rpc defines the folio.v1.ConfigService gRPC service. Messages are
// the protobuf well-known types; the portfolio document travels as a
// google.protobuf.Struct.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/folio/internal/model"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "folio.v1.ConfigService"

const (
	MethodGetConfig    = "/" + ServiceName + "/GetConfig"
	MethodPutConfig    = "/" + ServiceName + "/PutConfig"
	MethodDeleteImage  = "/" + ServiceName + "/DeleteImage"
	MethodCreateBackup = "/" + ServiceName + "/CreateBackup"
)

// ConfigServiceServer is the server API for ConfigService.
type ConfigServiceServer interface {
	// GetConfig returns the public document.
	GetConfig(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// PutConfig replaces the document.
	PutConfig(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// DeleteImage removes an uploaded image by public path and reports
	// whether anything was deleted.
	DeleteImage(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	// CreateBackup snapshots the document and returns the backup name.
	CreateBackup(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterConfigServiceServer registers srv on s.
func RegisterConfigServiceServer(s grpc.ServiceRegistrar, srv ConfigServiceServer) {
	s.RegisterService(&ConfigServiceDesc, srv)
}

// ConfigServiceDesc is the grpc.ServiceDesc for ConfigService.
var ConfigServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConfigServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetConfig", Handler: unaryHandler(MethodGetConfig, ConfigServiceServer.GetConfig)},
		{MethodName: "PutConfig", Handler: unaryHandler(MethodPutConfig, ConfigServiceServer.PutConfig)},
		{MethodName: "DeleteImage", Handler: unaryHandler(MethodDeleteImage, ConfigServiceServer.DeleteImage)},
		{MethodName: "CreateBackup", Handler: unaryHandler(MethodCreateBackup, ConfigServiceServer.CreateBackup)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "folio/v1/config.proto",
}

// unaryHandler adapts a typed ConfigServiceServer method to a
// grpc.MethodDesc handler, running it through the server's interceptors.
func unaryHandler[Req, Resp any](fullMethod string, call func(ConfigServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ConfigServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ConfigServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ConfigServiceClient is the client API for ConfigService.
type ConfigServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewConfigServiceClient returns a client that issues calls on cc.
func NewConfigServiceClient(cc grpc.ClientConnInterface) *ConfigServiceClient {
	return &ConfigServiceClient{cc: cc}
}

func (c *ConfigServiceClient) GetConfig(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetConfig, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConfigServiceClient) PutConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodPutConfig, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConfigServiceClient) DeleteImage(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, MethodDeleteImage, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConfigServiceClient) CreateBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodCreateBackup, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DocumentToStruct converts a document to its Struct form.
func DocumentToStruct(doc *model.Document) (*structpb.Struct, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return structpb.NewStruct(m)
}

// StructToDocument converts a Struct back to a document.
func StructToDocument(s *structpb.Struct) (*model.Document, error) {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("marshal struct: %w", err)
	}
	return model.DecodeDocument(data)
}
