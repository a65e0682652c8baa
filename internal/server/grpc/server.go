// Package grpcserver exposes the nutrito.v1 gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"github.com/and161185/nutrito/internal/convert"
	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/rpc"
	"github.com/and161185/nutrito/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server wires services into gRPC handlers.
type Server struct {
	auth   service.AuthService
	tables service.TableService
}

var (
	_ rpc.TablesServer = (*Server)(nil)
	_ rpc.AuthServer   = (*Server)(nil)
)

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, tables service.TableService) *Server {
	return &Server{auth: auth, tables: tables}
}

// toStatus maps service errors onto gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, errs.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: not found", op)
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Errorf(codes.AlreadyExists, "%s: already exists", op)
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Errorf(codes.Unauthenticated, "%s: bad credentials", op)
	case errors.Is(err, errs.ErrRateLimited):
		return status.Errorf(codes.ResourceExhausted, "%s: rate limited", op)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: deadline exceeded", op)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: canceled", op)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

func decode[T any](in *structpb.Struct) (T, error) {
	v, err := convert.Decode[T](in)
	if err != nil {
		return v, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	return v, nil
}

func encode(v any) (*structpb.Struct, error) {
	s, err := convert.ToStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

// --- Tables ---

// Select returns all rows of a table.
func (s *Server) Select(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	q, err := decode[model.SelectQuery](in)
	if err != nil {
		return nil, err
	}
	rows, err := s.tables.Select(ctx, q)
	if err != nil {
		return nil, toStatus("select", err)
	}
	return encode(convert.RowsResponse{Rows: rows})
}

// Insert stores one row and returns it as persisted.
func (s *Server) Insert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[convert.InsertRequest](in)
	if err != nil {
		return nil, err
	}
	row, err := s.tables.Insert(ctx, req.Table, req.Row)
	if err != nil {
		return nil, toStatus("insert", err)
	}
	return encode(convert.RowResponse{Row: row})
}

// Update applies a partial update.
func (s *Server) Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[convert.UpdateRequest](in)
	if err != nil {
		return nil, err
	}
	n, err := s.tables.Update(ctx, req.Table, req.Match, req.Fields)
	if err != nil {
		return nil, toStatus("update", err)
	}
	return encode(convert.CountResponse{Count: n})
}

// Delete removes a row by id.
func (s *Server) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[convert.DeleteRequest](in)
	if err != nil {
		return nil, err
	}
	n, err := s.tables.Delete(ctx, req.Table, req.ID)
	if err != nil {
		return nil, toStatus("delete", err)
	}
	return encode(convert.CountResponse{Count: n})
}

// Upsert writes a batch of rows atomically.
func (s *Server) Upsert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[convert.UpsertRequest](in)
	if err != nil {
		return nil, err
	}
	n, err := s.tables.Upsert(ctx, req.Table, req.Rows, req.OnConflict)
	if err != nil {
		return nil, toStatus("upsert", err)
	}
	return encode(convert.CountResponse{Count: int64(n)})
}

// --- Auth ---

// SignUp creates a new account.
func (s *Server) SignUp(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[convert.Credentials](in)
	if err != nil {
		return nil, err
	}
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	u, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus("sign up", err)
	}
	return encode(convert.UserResponse{User: u})
}

// SignInWithPassword authenticates a user and returns a session.
func (s *Server) SignInWithPassword(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[convert.Credentials](in)
	if err != nil {
		return nil, err
	}
	sess, err := s.auth.SignInWithPassword(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		return nil, toStatus("sign in", err)
	}
	return encode(sess)
}

// GetUser returns the user behind the bearer token.
func (s *Server) GetUser(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, ok := UserFromCtx(ctx)
	if !ok {
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "no auth")
		}
		if u, err = s.auth.Authenticate(ctx, tok); err != nil {
			return nil, toStatus("get user", err)
		}
	}
	return encode(convert.UserResponse{User: u})
}

func remoteIP(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
