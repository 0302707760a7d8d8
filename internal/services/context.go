package services

import (
	"context"
	"strconv"

	"tableside/internal/domain"
	"tableside/pkg/logger"
)

type ctxKey string

var principalKey ctxKey = "principal"

// WithPrincipal stores the caller on ctx and tags it for request logging.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	ctx = context.WithValue(ctx, logger.PrincipalIdKey, string(p.Role)+":"+strconv.FormatUint(uint64(p.ID), 10))
	return ctx
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}
