package handler

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/FACorreiaa/yape-insights/pkg/codec"
)

// StatementServiceName is the fully-qualified name of the StatementService service.
const StatementServiceName = "statement.v1.StatementService"

const (
	// AnalyzeStatementProcedure is the route of StatementService.AnalyzeStatement.
	AnalyzeStatementProcedure = "/statement.v1.StatementService/AnalyzeStatement"
	// DescribeStatementProcedure is the route of StatementService.DescribeStatement.
	DescribeStatementProcedure = "/statement.v1.StatementService/DescribeStatement"
)

// StatementServiceHandler is implemented by *StatementHandler.
type StatementServiceHandler interface {
	AnalyzeStatement(context.Context, *connect.Request[AnalyzeStatementRequest]) (*connect.Response[AnalyzeStatementResponse], error)
	DescribeStatement(context.Context, *connect.Request[DescribeStatementRequest]) (*connect.Response[DescribeStatementResponse], error)
}

// NewStatementServiceHandler builds an HTTP handler for the service and returns
// the path to mount it on. The JSON codec is always registered.
func NewStatementServiceHandler(svc StatementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(codec.JSON{})}, opts...)

	analyze := connect.NewUnaryHandler(AnalyzeStatementProcedure, svc.AnalyzeStatement, opts...)
	describe := connect.NewUnaryHandler(DescribeStatementProcedure, svc.DescribeStatement, opts...)

	return "/" + StatementServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AnalyzeStatementProcedure:
			analyze.ServeHTTP(w, r)
		case DescribeStatementProcedure:
			describe.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// StatementServiceClient calls the service over Connect with the JSON codec.
type StatementServiceClient struct {
	analyze  *connect.Client[AnalyzeStatementRequest, AnalyzeStatementResponse]
	describe *connect.Client[DescribeStatementRequest, DescribeStatementResponse]
}

// NewStatementServiceClient creates a client for the service at baseURL.
func NewStatementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *StatementServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(codec.JSON{})}, opts...)
	return &StatementServiceClient{
		analyze:  connect.NewClient[AnalyzeStatementRequest, AnalyzeStatementResponse](httpClient, baseURL+AnalyzeStatementProcedure, opts...),
		describe: connect.NewClient[DescribeStatementRequest, DescribeStatementResponse](httpClient, baseURL+DescribeStatementProcedure, opts...),
	}
}

// AnalyzeStatement calls StatementService.AnalyzeStatement.
func (c *StatementServiceClient) AnalyzeStatement(ctx context.Context, req *connect.Request[AnalyzeStatementRequest]) (*connect.Response[AnalyzeStatementResponse], error) {
	return c.analyze.CallUnary(ctx, req)
}

// DescribeStatement calls StatementService.DescribeStatement.
func (c *StatementServiceClient) DescribeStatement(ctx context.Context, req *connect.Request[DescribeStatementRequest]) (*connect.Response[DescribeStatementResponse], error) {
	return c.describe.CallUnary(ctx, req)
}
