package middleware

import (
	"context"

	"unihr/internal/auth"
	"unihr/internal/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
