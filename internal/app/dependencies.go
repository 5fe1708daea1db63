package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/config"
	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/health"
	"github.com/vladislavdragonenkov/commerce-import/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce-import/internal/metrics"
	"github.com/vladislavdragonenkov/commerce-import/internal/storage/memory"
	"github.com/vladislavdragonenkov/commerce-import/internal/storage/postgres"
	"github.com/vladislavdragonenkov/commerce-import/internal/storage/s3images"
	"github.com/vladislavdragonenkov/commerce-import/internal/version"
)

// Dependencies — порты платформы, с которыми работают писатели.
// По умолчанию всё in-memory; справочники, уведомления и медиа подменяются внешними бэкендами по конфигурации.
type Dependencies struct {
	Customers    domain.CustomerRepository
	Products     domain.ProductRepository
	Configurable domain.ConfigurableProductService
	Attributes   domain.AttributeStore
	Regions      domain.RegionSource
	Quotes       domain.QuoteRepository
	Orders       domain.OrderRepository
	CreditMemos  domain.CreditMemoRepository
	Sales        domain.SalesTransaction
	Tracks       domain.TrackRepository
	Images       domain.ImageTransfer
	Notifier     domain.Notifier

	Metrics *metrics.ImportMetrics
	Health  *health.Handler
	Logger  *log.Entry

	closers []func() error
}

// NewDependencies собирает зависимости. При ошибке уже открытые ресурсы закрываются.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	sales := memory.NewSalesStore(orders)
	deps := &Dependencies{
		Customers:    memory.NewCustomerRepository(),
		Products:     products,
		Configurable: products,
		Attributes:   memory.NewAttributeStore(),
		Regions:      memory.NewRegionSource(),
		Quotes:       memory.NewQuoteRepository(),
		Orders:       orders,
		CreditMemos:  sales,
		Sales:        sales,
		Tracks:       sales,
		Images:       memory.NewImageGallery(),
		Metrics:      metrics.NewImportMetrics(),
		Health:       health.NewHandler(version.GetVersion()),
		Logger:       logger,
	}

	if err := deps.initPostgres(ctx, cfg.Postgres); err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.initKafka(cfg.Kafka)
	if err := deps.initS3(ctx, cfg.S3); err != nil {
		_ = deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) initPostgres(ctx context.Context, cfg config.PostgresConfig) error {
	if cfg.DSN == "" {
		return nil
	}

	store, err := postgres.Open(ctx, cfg.DSN,
		postgres.WithMaxOpenConns(cfg.MaxOpenConns),
		postgres.WithConnMaxLifetime(cfg.ConnMaxLifetime),
	)
	if err != nil {
		return err
	}
	d.closers = append(d.closers, store.Close)

	if cfg.AutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}

	d.Attributes = postgres.NewAttributeStore(store)
	d.Regions = postgres.NewRegionSource(store)
	d.Health.RegisterChecker("postgres", health.NewSimpleChecker("postgres", store.Ping))
	d.Logger.Info("postgres attribute and region backends enabled")
	return nil
}

// initKafka подключает уведомления. Недоступный Kafka не останавливает импорт: письма не уйдут,
// а health покажет degraded.
func (d *Dependencies) initKafka(cfg config.KafkaConfig) {
	producer, err := initKafkaProducer(cfg, d.Logger)
	if err != nil {
		d.Health.RegisterChecker("kafka", health.NewOptionalChecker("kafka", func(context.Context) error {
			return err
		}))
		return
	}
	if producer == nil {
		return
	}

	d.closers = append(d.closers, func() error { return closeKafka(producer, d.Logger) })
	d.Notifier = kafka.NewNotifier(producer, cfg.Topic,
		kafka.WithNotifierLogger(d.Logger.WithField("component", "kafka-notifier")),
	)
}

func (d *Dependencies) initS3(ctx context.Context, cfg config.S3Config) error {
	if cfg.Bucket == "" {
		return nil
	}

	transfer, err := s3images.New(ctx, s3images.Config{
		Bucket:       cfg.Bucket,
		Endpoint:     cfg.Endpoint,
		Region:       cfg.Region,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		UsePathStyle: cfg.UsePathStyle,
		KeyPrefix:    cfg.KeyPrefix,
	},
		s3images.WithMaxBytes(cfg.MaxImageBytes),
		s3images.WithLogger(d.Logger.WithField("component", "s3-image-transfer")),
	)
	if err != nil {
		return fmt.Errorf("init s3 image transfer: %w", err)
	}
	if err := transfer.EnsureBucket(ctx); err != nil {
		return err
	}

	d.Images = transfer
	d.Health.RegisterChecker("s3", health.NewSimpleChecker("s3", transfer.EnsureBucket))
	d.Logger.WithField("bucket", cfg.Bucket).Info("s3 image transfer enabled")
	return nil
}

// Close освобождает внешние ресурсы в обратном порядке открытия.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
