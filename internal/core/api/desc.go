package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "factkeeper.engine.v1.EngineAPI"

const (
	EngineAPI_Run_FullMethodName      = "/" + ServiceName + "/Run"
	EngineAPI_Export_FullMethodName   = "/" + ServiceName + "/Export"
	EngineAPI_Validate_FullMethodName = "/" + ServiceName + "/Validate"
)

// EngineAPIServer is the server API for the EngineAPI service.
// Messages are protobuf well-known types carrying JSON-shaped documents.
type EngineAPIServer interface {
	// Run executes the stored rule set against the given fact values.
	Run(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Export returns the stored document.
	Export(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Validate reports rules with validation problems.
	Validate(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterEngineAPIServer registers srv on s.
func RegisterEngineAPIServer(s grpc.ServiceRegistrar, srv EngineAPIServer) {
	s.RegisterService(&EngineAPI_ServiceDesc, srv)
}

// EngineAPI_ServiceDesc is the grpc.ServiceDesc for the EngineAPI service.
var EngineAPI_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: _EngineAPI_Run_Handler},
		{MethodName: "Export", Handler: _EngineAPI_Export_Handler},
		{MethodName: "Validate", Handler: _EngineAPI_Validate_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "factkeeper/engine/v1/engine.proto",
}

func _EngineAPI_Run_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineAPIServer).Run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EngineAPI_Run_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineAPIServer).Run(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _EngineAPI_Export_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineAPIServer).Export(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EngineAPI_Export_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineAPIServer).Export(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _EngineAPI_Validate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineAPIServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EngineAPI_Validate_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineAPIServer).Validate(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// EngineAPIClient is the client API for the EngineAPI service.
type EngineAPIClient interface {
	Run(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Validate(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type engineAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewEngineAPIClient returns a client calling the service over cc.
func NewEngineAPIClient(cc grpc.ClientConnInterface) EngineAPIClient {
	return &engineAPIClient{cc}
}

func (c *engineAPIClient) Run(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EngineAPI_Run_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineAPIClient) Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EngineAPI_Export_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineAPIClient) Validate(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EngineAPI_Validate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
