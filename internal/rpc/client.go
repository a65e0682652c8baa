package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// TablesClient is the client API for the Tables service.
type TablesClient struct{ cc grpc.ClientConnInterface }

// NewTablesClient wraps a connection.
func NewTablesClient(cc grpc.ClientConnInterface) *TablesClient { return &TablesClient{cc: cc} }

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TablesClient) Select(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Tables_Select_FullMethodName, in, opts...)
}

func (c *TablesClient) Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Tables_Insert_FullMethodName, in, opts...)
}

func (c *TablesClient) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Tables_Update_FullMethodName, in, opts...)
}

func (c *TablesClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Tables_Delete_FullMethodName, in, opts...)
}

func (c *TablesClient) Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Tables_Upsert_FullMethodName, in, opts...)
}

// AuthClient is the client API for the Auth service.
type AuthClient struct{ cc grpc.ClientConnInterface }

// NewAuthClient wraps a connection.
func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient { return &AuthClient{cc: cc} }

func (c *AuthClient) SignUp(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Auth_SignUp_FullMethodName, in, opts...)
}

func (c *AuthClient) SignInWithPassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Auth_SignInWithPassword_FullMethodName, in, opts...)
}

func (c *AuthClient) GetUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, Auth_GetUser_FullMethodName, in, opts...)
}
