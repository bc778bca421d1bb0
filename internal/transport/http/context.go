package http

import (
	"context"

	"regpulse/pkg/contracts/domain"
)

func contextWithField(ctx context.Context, field domain.Field) context.Context {
	return context.WithValue(ctx, fieldCtxKey{}, field)
}

func fieldFromContext(ctx context.Context) domain.Field {
	field, _ := ctx.Value(fieldCtxKey{}).(domain.Field)
	return field
}
