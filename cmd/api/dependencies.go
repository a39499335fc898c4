package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	statementhandler "github.com/FACorreiaa/yape-insights/internal/domain/statement/handler"
	statementservice "github.com/FACorreiaa/yape-insights/internal/domain/statement/service"

	"github.com/FACorreiaa/yape-insights/pkg/config"
	"github.com/FACorreiaa/yape-insights/pkg/observability"
)

// Version is stamped into traces.
var Version = "dev"

// Dependencies holds all application dependencies
type Dependencies struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *validator.Validate

	// Services
	StatementService *statementservice.StatementService

	// Handlers
	StatementHandler *statementhandler.StatementHandler

	shutdownTracing func(context.Context) error
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
	}

	if err := deps.initTracing(ctx); err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

func (d *Dependencies) initTracing(ctx context.Context) error {
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     d.Config.Observability.TracingEnabled,
		ServiceName: d.Config.Observability.ServiceName,
		Version:     Version,
		Exporter:    d.Config.Observability.TraceExporter,
		SampleRatio: d.Config.Observability.SampleRatio,
	})
	if err != nil {
		return err
	}
	d.shutdownTracing = shutdown

	d.Logger.Info("tracing configured",
		"enabled", d.Config.Observability.TracingEnabled,
		"exporter", d.Config.Observability.TraceExporter)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	loc := d.Config.Location()
	d.StatementService = statementservice.NewStatementService(statementservice.Config{
		HeaderScanRows: d.Config.Statement.HeaderScanRows,
		DefaultTopN:    d.Config.Statement.DefaultTopN,
		Location:       loc,
	}, d.Logger.With("component", "statement"))

	d.Logger.Info("services initialized", "timezone", loc.String())
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.StatementHandler = statementhandler.NewStatementHandler(d.StatementService)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup flushes pending spans and releases resources
func (d *Dependencies) Cleanup(ctx context.Context) {
	if d.shutdownTracing != nil {
		if err := d.shutdownTracing(ctx); err != nil {
			d.Logger.Error("failed to shut down tracing", "error", err)
		}
	}
	d.Logger.Info("cleanup completed")
}
