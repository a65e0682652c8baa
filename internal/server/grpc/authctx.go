package grpcserver

import (
	"context"

	"github.com/and161185/nutrito/internal/model"
)

type ctxKey string

const userKey ctxKey = "nutrito.user"

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u model.AuthUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (model.AuthUser, bool) {
	u, ok := ctx.Value(userKey).(model.AuthUser)
	return u, ok && u.ID != ""
}
