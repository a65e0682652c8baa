// Package rpc defines the nutrito.v1 gRPC services.
//
// Every method takes and returns a google.protobuf.Struct; the typed
// request/response shapes live in package convert.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service names.
const (
	TablesServiceName = "nutrito.v1.Tables"
	AuthServiceName   = "nutrito.v1.Auth"
)

// Full method names.
const (
	Tables_Select_FullMethodName = "/nutrito.v1.Tables/Select"
	Tables_Insert_FullMethodName = "/nutrito.v1.Tables/Insert"
	Tables_Update_FullMethodName = "/nutrito.v1.Tables/Update"
	Tables_Delete_FullMethodName = "/nutrito.v1.Tables/Delete"
	Tables_Upsert_FullMethodName = "/nutrito.v1.Tables/Upsert"

	Auth_SignUp_FullMethodName             = "/nutrito.v1.Auth/SignUp"
	Auth_SignInWithPassword_FullMethodName = "/nutrito.v1.Auth/SignInWithPassword"
	Auth_GetUser_FullMethodName            = "/nutrito.v1.Auth/GetUser"
)

// TablesServer is the server API for the Tables service.
type TablesServer interface {
	Select(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Upsert(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// AuthServer is the server API for the Auth service.
type AuthServer interface {
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignInWithPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func handler(fullMethod string, call structCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		})
	}
}

// Tables_ServiceDesc is the grpc.ServiceDesc for the Tables service.
var Tables_ServiceDesc = grpc.ServiceDesc{
	ServiceName: TablesServiceName,
	HandlerType: (*TablesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Select", Handler: handler(Tables_Select_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(TablesServer).Select(ctx, in)
		})},
		{MethodName: "Insert", Handler: handler(Tables_Insert_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(TablesServer).Insert(ctx, in)
		})},
		{MethodName: "Update", Handler: handler(Tables_Update_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(TablesServer).Update(ctx, in)
		})},
		{MethodName: "Delete", Handler: handler(Tables_Delete_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(TablesServer).Delete(ctx, in)
		})},
		{MethodName: "Upsert", Handler: handler(Tables_Upsert_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(TablesServer).Upsert(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nutrito/v1/nutrito.proto",
}

// Auth_ServiceDesc is the grpc.ServiceDesc for the Auth service.
var Auth_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: handler(Auth_SignUp_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).SignUp(ctx, in)
		})},
		{MethodName: "SignInWithPassword", Handler: handler(Auth_SignInWithPassword_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).SignInWithPassword(ctx, in)
		})},
		{MethodName: "GetUser", Handler: handler(Auth_GetUser_FullMethodName, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).GetUser(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nutrito/v1/nutrito.proto",
}

// RegisterTablesServer registers srv on s.
func RegisterTablesServer(s grpc.ServiceRegistrar, srv TablesServer) {
	s.RegisterService(&Tables_ServiceDesc, srv)
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&Auth_ServiceDesc, srv)
}
