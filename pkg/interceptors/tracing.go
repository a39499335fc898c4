package interceptors

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingInterceptor instruments RPCs with OpenTelemetry spans.
type TracingInterceptor struct {
	tracer trace.Tracer
}

// NewTracingInterceptor creates a tracing interceptor.
func NewTracingInterceptor(tracer trace.Tracer) *TracingInterceptor {
	if tracer == nil {
		tracer = otel.Tracer("yape-insights/interceptors")
	}
	return &TracingInterceptor{tracer: tracer}
}

// WrapUnary implements connect.Interceptor.
func (i *TracingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		procedure := req.Spec().Procedure
		ctx, span := i.tracer.Start(ctx, procedure, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(rpcAttributes(procedure)...)
		if id, ok := RequestIDFromContext(ctx); ok {
			span.SetAttributes(attribute.String("rpc.request_id", id))
		}

		resp, err := next(ctx, req)
		endSpan(span, err)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *TracingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor. The service has no
// streaming RPCs today; spans are still recorded if one is added.
func (i *TracingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		procedure := conn.Spec().Procedure
		ctx, span := i.tracer.Start(ctx, procedure, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(rpcAttributes(procedure)...)
		err := next(ctx, conn)
		endSpan(span, err)
		return err
	}
}

func rpcAttributes(procedure string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("rpc.system", "connect"),
		attribute.String("rpc.service", serviceFromProcedure(procedure)),
		attribute.String("rpc.method", methodFromProcedure(procedure)),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("rpc.connect.code", connect.CodeOf(err).String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "ok")
}

// serviceFromProcedure turns "/pkg.Service/Method" into "pkg.Service".
func serviceFromProcedure(procedure string) string {
	procedure = strings.TrimPrefix(procedure, "/")
	lastSlash := strings.LastIndex(procedure, "/")
	if lastSlash <= 0 {
		return procedure
	}
	return procedure[:lastSlash]
}

func methodFromProcedure(procedure string) string {
	return procedure[strings.LastIndex(procedure, "/")+1:]
}
