// Package handler implements the StatementService Connect RPC handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/yape-insights/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/service"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/sheet"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/sniffer"
)

// AnalyzeStatementRequest uploads a statement and asks for its report.
type AnalyzeStatementRequest struct {
	FileName       string `json:"file_name" validate:"required,max=255"`
	FileBytes      []byte `json:"file_bytes" validate:"required"`
	StartDate      string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AlertThreshold string `json:"alert_threshold,omitempty" validate:"omitempty,numeric"`
	TopN           int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=100"`
}

// AnalyzeStatementResponse carries the load counters and the report.
type AnalyzeStatementResponse struct {
	Stats  *service.LoadStats `json:"stats"`
	Report *service.Report    `json:"report"`
}

// DescribeStatementRequest uploads a statement for a shape-only summary.
type DescribeStatementRequest struct {
	FileName  string `json:"file_name" validate:"required,max=255"`
	FileBytes []byte `json:"file_bytes" validate:"required"`
}

// DescribeStatementResponse summarizes a statement without metrics.
type DescribeStatementResponse struct {
	*service.Description
}

// StatementHandler implements the StatementService Connect handlers.
type StatementHandler struct {
	svc *service.StatementService
}

// NewStatementHandler constructs a new handler.
func NewStatementHandler(svc *service.StatementService) *StatementHandler {
	return &StatementHandler{svc: svc}
}

var _ StatementServiceHandler = (*StatementHandler)(nil)

// AnalyzeStatement loads the uploaded file and builds the dashboard report.
func (h *StatementHandler) AnalyzeStatement(
	ctx context.Context,
	req *connect.Request[AnalyzeStatementRequest],
) (*connect.Response[AnalyzeStatementResponse], error) {
	opts, err := analyzeOptions(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	tbl, stats, err := h.svc.LoadStatement(ctx, req.Msg.FileName, req.Msg.FileBytes)
	if err != nil {
		return nil, toConnectError(err)
	}

	report, err := h.svc.Analyze(ctx, tbl, opts)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&AnalyzeStatementResponse{
		Stats:  stats,
		Report: report,
	}), nil
}

// DescribeStatement reports header position, columns and date bounds.
func (h *StatementHandler) DescribeStatement(
	ctx context.Context,
	req *connect.Request[DescribeStatementRequest],
) (*connect.Response[DescribeStatementResponse], error) {
	desc, err := h.svc.Describe(ctx, req.Msg.FileName, req.Msg.FileBytes)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DescribeStatementResponse{Description: desc}), nil
}

func analyzeOptions(msg *AnalyzeStatementRequest) (service.AnalyzeOptions, error) {
	opts := service.AnalyzeOptions{TopN: msg.TopN}

	if msg.StartDate != "" {
		start, err := time.Parse(time.DateOnly, msg.StartDate)
		if err != nil {
			return opts, fmt.Errorf("invalid start_date: %w", err)
		}
		opts.Start = &start
	}
	if msg.EndDate != "" {
		end, err := time.Parse(time.DateOnly, msg.EndDate)
		if err != nil {
			return opts, fmt.Errorf("invalid end_date: %w", err)
		}
		opts.End = &end
	}

	if msg.AlertThreshold != "" {
		threshold, err := decimal.NewFromString(msg.AlertThreshold)
		if err != nil {
			return opts, fmt.Errorf("invalid alert_threshold: %w", err)
		}
		if threshold.IsNegative() {
			return opts, errors.New("alert_threshold must not be negative")
		}
		opts.AlertThreshold = &threshold
	}

	return opts, nil
}

// toConnectError maps load and analysis failures to Connect codes. Anything the
// uploader can fix with a different file or range is InvalidArgument.
func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, sniffer.ErrHeaderNotFound),
		errors.Is(err, normalizer.ErrSchemaValidation),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrUnreadable),
		errors.Is(err, sheet.ErrEmptyFile),
		errors.Is(err, sheet.ErrUnsupportedFormat):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
