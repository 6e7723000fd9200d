// Package transcriber describes the TranscriberService gRPC contract.
//
// Messages are google.protobuf.Struct values, so the service needs no
// generated code; the field layout is fixed by the helpers in messages.go.
package transcriber

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "lingua.transcriber.v1.TranscriberService"

	TranscribeFullMethodName  = "/" + ServiceName + "/Transcribe"
	TranslateFullMethodName   = "/" + ServiceName + "/Translate"
	HealthCheckFullMethodName = "/" + ServiceName + "/HealthCheck"

	// MaxMessageSize fits a base64 encoded upload at the HTTP size limit.
	MaxMessageSize = 64 << 20
)

type TranscriberServiceServer interface {
	Transcribe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Translate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterTranscriberServiceServer(s grpc.ServiceRegistrar, srv TranscriberServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscriberServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Transcribe",
			Handler:    unaryHandler(TranscribeFullMethodName, TranscriberServiceServer.Transcribe),
		},
		{
			MethodName: "Translate",
			Handler:    unaryHandler(TranslateFullMethodName, TranscriberServiceServer.Translate),
		},
		{
			MethodName: "HealthCheck",
			Handler:    unaryHandler(HealthCheckFullMethodName, TranscriberServiceServer.HealthCheck),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "transcriber/v1/transcriber.proto",
}

type unaryMethod func(TranscriberServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(TranscriberServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(TranscriberServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type TranscriberServiceClient interface {
	Transcribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Translate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type transcriberServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTranscriberServiceClient(cc grpc.ClientConnInterface) TranscriberServiceClient {
	return &transcriberServiceClient{cc}
}

func (c *transcriberServiceClient) Transcribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TranscribeFullMethodName, in, opts...)
}

func (c *transcriberServiceClient) Translate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TranslateFullMethodName, in, opts...)
}

func (c *transcriberServiceClient) HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, HealthCheckFullMethodName, in, opts...)
}

func (c *transcriberServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
