package interceptors

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// NewLoggingInterceptor logs one line per RPC with its outcome and duration.
// Client errors are logged at Warn, everything else that fails at Error.
func NewLoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"peer", req.Peer().Addr,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if id, ok := RequestIDFromContext(ctx); ok {
				attrs = append(attrs, "request_id", id)
			}

			if err == nil {
				logger.InfoContext(ctx, "rpc completed", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			switch code {
			case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeResourceExhausted,
				connect.CodeCanceled, connect.CodeFailedPrecondition:
				logger.WarnContext(ctx, "rpc failed", attrs...)
			default:
				logger.ErrorContext(ctx, "rpc failed", attrs...)
			}
			return resp, err
		}
	}
}
