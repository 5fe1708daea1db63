package app

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/config"
	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/pipeline"
	"github.com/vladislavdragonenkov/commerce-import/internal/version"
)

// Importer — точка входа для внешнего драйвера: принимает уже прочитанные записи и прогоняет их через писателей.
type Importer struct {
	deps    *Dependencies
	writers *Writers
	action  pipeline.Action
	logger  *log.Entry
	stopSrv func()
}

// New собирает Importer по конфигурации. logOutput может быть nil (stderr).
func New(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*Importer, error) {
	logger, err := NewLogger(cfg.Log, logOutput)
	if err != nil {
		return nil, err
	}
	logger.WithField("build", version.String()).Info("starting commerce import")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	imp, err := NewImporter(cfg, deps)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(ctx, cfg.Metrics.Addr, logger, deps.Health)
		imp.stopSrv = func() { shutdownHTTP(srv, logger) }
	}
	return imp, nil
}

// NewImporter строит Importer поверх готовых зависимостей.
func NewImporter(cfg *config.Config, deps *Dependencies) (*Importer, error) {
	writers, err := NewWriters(cfg, deps)
	if err != nil {
		return nil, err
	}
	action := pipeline.ActionSkip
	if cfg.Pipeline.OnError == "fail" {
		action = pipeline.ActionFail
	}
	return &Importer{deps: deps, writers: writers, action: action, logger: deps.Logger}, nil
}

// Dependencies возвращает порты платформы, с которыми работает импорт.
func (i *Importer) Dependencies() *Dependencies {
	return i.deps
}

func (i *Importer) runOptions(name string) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithName(name),
		pipeline.WithAction(i.action),
		pipeline.WithLogger(i.logger.WithField("component", "import-pipeline")),
		pipeline.WithRecorder(i.deps.Metrics),
	}
}

func (i *Importer) ImportCustomers(ctx context.Context, records []domain.CustomerRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.Customers, records, i.runOptions("customer")...)
}

func (i *Importer) ImportInvoices(ctx context.Context, records []domain.InvoiceRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.Invoices, records, i.runOptions("invoice")...)
}

func (i *Importer) ImportOrders(ctx context.Context, records []domain.OrderRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.Orders, records, i.runOptions("order")...)
}

func (i *Importer) ImportProducts(ctx context.Context, records []domain.ProductRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.Products, records, i.runOptions("product")...)
}

func (i *Importer) UpdateProducts(ctx context.Context, records []domain.ProductUpdateRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.ProductUpdates, records, i.runOptions("product-update")...)
}

func (i *Importer) ImportReturns(ctx context.Context, records []domain.ReturnRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.Returns, records, i.runOptions("returns")...)
}

func (i *Importer) ImportShipments(ctx context.Context, records []domain.ShipmentRecord) (pipeline.Report, error) {
	return pipeline.Run(ctx, i.writers.Shipments, records, i.runOptions("shipment")...)
}

// Close останавливает сервер метрик и закрывает внешние бэкенды.
func (i *Importer) Close() error {
	if i.stopSrv != nil {
		i.stopSrv()
	}
	return i.deps.Close()
}
