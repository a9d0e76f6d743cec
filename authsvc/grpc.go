package authsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AuthorityServer is the server API for the Authority gRPC service.
//
// Requests and replies use protobuf well-known types, so the service needs no
// protoc/codegen toolchain.
type AuthorityServer interface {
	Issue(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TokenID(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// UnimplementedAuthorityServer can be embedded to have forward compatible implementations.
type UnimplementedAuthorityServer struct{}

func (UnimplementedAuthorityServer) Issue(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Issue not implemented")
}
func (UnimplementedAuthorityServer) Verify(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Verify not implemented")
}
func (UnimplementedAuthorityServer) TokenID(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method TokenID not implemented")
}

// RegisterAuthorityServer registers the Authority service on a gRPC server.
func RegisterAuthorityServer(s grpc.ServiceRegistrar, srv AuthorityServer) {
	s.RegisterService(&Authority_ServiceDesc, srv)
}

// AuthorityClient is the client API for the Authority gRPC service.
type AuthorityClient interface {
	Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	TokenID(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

const (
	serviceName       = "spiralverse.authsvc.v1.Authority"
	issueFullMethod   = "/" + serviceName + "/Issue"
	verifyFullMethod  = "/" + serviceName + "/Verify"
	tokenIDFullMethod = "/" + serviceName + "/TokenID"
)

type authorityClient struct{ cc grpc.ClientConnInterface }

func NewAuthorityClient(cc grpc.ClientConnInterface) AuthorityClient {
	return &authorityClient{cc: cc}
}

func (c *authorityClient) Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, issueFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authorityClient) Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, verifyFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authorityClient) TokenID(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, tokenIDFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Authority_Issue_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorityServer).Issue(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: issueFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorityServer).Issue(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Authority_Verify_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorityServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: verifyFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorityServer).Verify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Authority_TokenID_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorityServer).TokenID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: tokenIDFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorityServer).TokenID(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Authority_ServiceDesc is the grpc.ServiceDesc for the Authority service.
var Authority_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuthorityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Issue", Handler: _Authority_Issue_Handler},
		{MethodName: "Verify", Handler: _Authority_Verify_Handler},
		{MethodName: "TokenID", Handler: _Authority_TokenID_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authority.proto",
}
