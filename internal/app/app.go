// Package app собирает сервис сбора из конфигурации
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/athebyme/gomarket-platform/harvester/config"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/cache"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/export"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/messaging"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/ozon"
	postgres "github.com/athebyme/gomarket-platform/harvester/internal/adapters/storage"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/services"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// App сервис сбора и его необязательные адаптеры
type App struct {
	Harvest   *services.HarvestService
	Snapshots interfaces.SnapshotPort

	closers []func() error
	logger  interfaces.LoggerPort
}

// Build создает клиент Ozon, каталог выгрузки и адаптеры, включенные в конфигурации
func Build(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) (*App, error) {
	a := &App{logger: log}

	client, err := ozon.NewClient(cfg.OzonClientConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента Ozon: %w", err)
	}

	exporter, err := export.NewExporter(cfg.Export.Dir)
	if err != nil {
		return nil, err
	}

	var opts []services.HarvestOption

	if cfg.Postgres.Enabled {
		conn, err := utils.GenerateConnectionString(cfg.PostgresConnectionOptions())
		if err != nil {
			return nil, fmt.Errorf("ошибка генерации строки подключения к PostgreSQL: %w", err)
		}
		store, err := postgres.NewSnapshotStorage(ctx, conn, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
		}
		a.Snapshots = store
		a.closers = append(a.closers, store.Close)
		opts = append(opts, services.WithSnapshotStore(store))
		log.Info("Хранилище снимков инициализировано")
	}

	if cfg.Redis.Enabled {
		locker, err := cache.NewRedisLocker(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LockPrefix)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка инициализации Redis: %w", err)
		}
		a.closers = append(a.closers, locker.Close)
		opts = append(opts, services.WithLock(locker))
		log.Info("Блокировка запусков через Redis включена")
	}

	if cfg.Kafka.Enabled {
		publisher, err := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ClientID, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка инициализации Kafka: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, services.WithPublisher(publisher))
		log.Info("Публикация событий в Kafka включена",
			interfaces.LogField{Key: "topic", Value: cfg.Kafka.EventsTopic})
	}

	a.Harvest = services.NewHarvestService(client, exporter, log, services.HarvestOptions{
		AttributesBatch: cfg.Harvest.AttributesBatch,
		StocksBatch:     cfg.Harvest.StocksBatch,
		Concurrency:     cfg.Harvest.Concurrency,
		MaxPages:        cfg.Harvest.MaxPages,
		DumpRaw:         cfg.Export.DumpRaw,
		LockKey:         cfg.Harvest.LockKey,
		LockTTL:         cfg.Harvest.LockTTL,
		EventsTopic:     cfg.Kafka.EventsTopic,
	}, opts...)
	return a, nil
}

// Close закрывает адаптеры в обратном порядке
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Ошибка при закрытии зависимости",
				interfaces.LogField{Key: "error", Value: err.Error()})
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
