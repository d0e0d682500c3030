package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type RequestData struct {
	UserID      uuid.UUID
	Role        string
	TokenString string
}

type requestDataKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
