package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the caller identity resolved by the upstream gateway.
// UserID is opaque (an identity-provider subject such as "auth0|123").
type RequestData struct {
	UserID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

