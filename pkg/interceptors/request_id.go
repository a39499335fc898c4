package interceptors

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

type requestIDKey struct{}

// NewRequestIDInterceptor propagates the request id header, generating one when
// the caller did not send it, and echoes it on the response.
func NewRequestIDInterceptor(header string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			id := req.Header().Get(header)
			if id == "" {
				id = uuid.NewString()
			}
			ctx = context.WithValue(ctx, requestIDKey{}, id)

			resp, err := next(ctx, req)
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					connectErr.Meta().Set(header, id)
				}
				return resp, err
			}
			resp.Header().Set(header, id)
			return resp, nil
		}
	}
}

// RequestIDFromContext returns the id set by the request id interceptor.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
