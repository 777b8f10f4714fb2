package setup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/config"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	publisher "github.com/LavaJover/shvark-escrow-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/settlement"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config *config.OrderConfig
	// DB is nil when the memory driver is configured.
	DB         *gorm.DB
	Store      domain.OrderStore
	Settlement domain.SettlementBackend
	Metrics    *metrics.EscrowMetrics
	Dispatcher *notifier.Dispatcher
	// DocumentConsumer is nil when kafka is disabled.
	DocumentConsumer *publisher.DocumentVerificationConsumer

	closers []io.Closer
}

func InitializeDependencies(cfg *config.OrderConfig, reg prometheus.Registerer) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Metrics: metrics.NewEscrowMetrics(reg),
	}

	switch cfg.OrderDB.Driver {
	case "memory":
		slog.Warn("using in-memory order store, state is lost on restart")
		deps.Store = memory.NewOrderStore()
	default:
		db := postgres.MustInitDB(cfg)
		if cfg.OrderDB.MigrationsPath != "" {
			if err := migrate.RunMigrations(db, cfg.OrderDB.MigrationsPath); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		deps.DB = db
		deps.Store = repository.NewDefaultOrderRepository(db)
	}

	settlementClient, err := settlement.NewHTTPSettlementClient(cfg.SettlementService.Address(), cfg.SettlementService.Timeout)
	if err != nil {
		return nil, fmt.Errorf("settlement client: %w", err)
	}
	deps.Settlement = settlementClient

	sinks, err := deps.initSinks(cfg)
	if err != nil {
		return nil, err
	}
	deps.Dispatcher = notifier.NewDispatcher(sinks, notifier.DispatcherConfig{
		QueueSize:     cfg.Notifications.QueueSize,
		Workers:       cfg.Notifications.Workers,
		NotifyTimeout: cfg.Notifications.NotifyTimeout,
	}, deps.Metrics)

	if cfg.KafkaService.Enabled {
		sub := publisher.NewDefaultKafkaSubscriber(cfg.KafkaService.Brokers())
		deps.DocumentConsumer = publisher.NewDocumentVerificationConsumer(
			sub,
			deps.Store,
			cfg.KafkaService.DocumentsTopic,
			cfg.KafkaService.GroupID,
		)
	}

	return deps, nil
}

func (d *Dependencies) initSinks(cfg *config.OrderConfig) (notifier.FanOutSink, error) {
	var sinks notifier.FanOutSink

	if cfg.KafkaService.Enabled {
		pub, err := initPublisher(cfg.KafkaService)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		d.closers = append(d.closers, pub)
		sinks = append(sinks, publisher.NewEventSink(pub, cfg.KafkaService.EventsTopic))
	}
	if cfg.Notifications.WebhookURL != "" {
		sinks = append(sinks, notifier.NewWebhookSink(
			cfg.Notifications.WebhookURL,
			cfg.Notifications.WebhookSecret,
			cfg.Notifications.NotifyTimeout,
		))
	}
	if cfg.Notifications.AuditLog && d.DB != nil {
		sinks = append(sinks, logger.NewPGEscrowEventLogger(d.DB))
	}
	if len(sinks) == 0 {
		slog.Warn("no notification sinks configured, notifications are discarded")
	}
	return sinks, nil
}

type closablePublisher interface {
	domain.PublisherPort
	io.Closer
}

func initPublisher(cfg config.KafkaService) (closablePublisher, error) {
	if cfg.Client == "sarama" {
		return publisher.NewSaramaPublisher(cfg.Brokers())
	}
	return publisher.NewDefaultKafkaPublisher(cfg.Brokers()), nil
}

// Close releases the publishers and the database pool.
func (d *Dependencies) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
