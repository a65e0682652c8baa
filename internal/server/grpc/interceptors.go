package grpcserver

import (
	"context"
	"crypto/subtle"
	"runtime/debug"
	"strings"
	"time"

	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// APIKeyHeader carries the project api key on every call.
const APIKeyHeader = "x-api-key"

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		// metadata only, never payloads
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		}
		if u, ok := UserFromCtx(ctx); ok {
			fields = append(fields, zap.String("user", u.ID))
		}
		log.Info("grpc", fields...)
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// public reports whether a method bypasses the api key (health checks, reflection).
func public(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.") || strings.HasPrefix(method, "/grpc.reflection.")
}

// APIKeyUnary rejects calls that do not present the project api key.
func APIKeyUnary(apiKey string) grpc.UnaryServerInterceptor {
	want := []byte(apiKey)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if public(info.FullMethod) {
			return next(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		got := md.Get(APIKeyHeader)
		if len(got) == 0 || subtle.ConstantTimeCompare([]byte(got[0]), want) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}
		return next(ctx, req)
	}
}

// Authenticator resolves a bearer token to a user.
type Authenticator func(ctx context.Context, token string) (model.AuthUser, error)

// SessionUnary attaches the bearer token's user to the context when present.
// With requireUser, Tables calls without a valid session are rejected.
func SessionUnary(authn Authenticator, requireUser bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if public(info.FullMethod) {
			return next(ctx, req)
		}
		if tok, err := bearerTokenFromMD(ctx); err == nil {
			if u, err := authn(ctx, tok); err == nil {
				ctx = WithUser(ctx, u)
			}
		}
		if requireUser && strings.HasPrefix(info.FullMethod, "/"+rpc.TablesServiceName+"/") {
			if _, ok := UserFromCtx(ctx); !ok {
				return nil, status.Error(codes.Unauthenticated, "no auth")
			}
		}
		return next(ctx, req)
	}
}
