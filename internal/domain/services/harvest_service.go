package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/export"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/messaging"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/metrics"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// Файлы необработанной выгрузки кластеров
const (
	RawClusterListFile    = "ozon_cluster_list_raw.json"
	ExtractedClustersFile = "ozon_clusters_extracted.json"
)

const (
	DefaultLockKey     = "ozon-harvester:run"
	DefaultLockTTL     = 2 * time.Hour
	DefaultEventsTopic = "harvest-events"

	publishTimeout = 15 * time.Second
)

// Ключи счетчиков отчета
const (
	CountProductIDs      = "product_ids"
	CountProducts        = "products"
	CountCharacteristics = "characteristics"
	CountStocks          = "stocks"
	CountStockRows       = "stock_rows"
	CountRegions         = "regions"
	CountWarehouses      = "warehouses"
)

// HarvestOptions параметры запуска сбора
type HarvestOptions struct {
	AttributesBatch int
	StocksBatch     int
	Concurrency     int
	MaxPages        int
	// DumpRaw дополнительно сохраняет ответ /v1/cluster/list как есть
	DumpRaw     bool
	LockKey     string
	LockTTL     time.Duration
	EventsTopic string
}

// HarvestService полный запуск выгрузки данных продавца
type HarvestService struct {
	exporter *export.Exporter
	logger   interfaces.LoggerPort
	opts     HarvestOptions

	catalog  *Catalog
	stocks   *StockHarvester
	clusters *ClusterHarvester

	lock      interfaces.LockPort
	snapshots interfaces.SnapshotPort
	publisher interfaces.PublisherPort
}

// HarvestOption подключает необязательные адаптеры
type HarvestOption func(*HarvestService)

// WithLock блокировка, не допускающая одновременных запусков
func WithLock(lock interfaces.LockPort) HarvestOption {
	return func(s *HarvestService) { s.lock = lock }
}

// WithSnapshotStore хранилище снимков выгрузки
func WithSnapshotStore(store interfaces.SnapshotPort) HarvestOption {
	return func(s *HarvestService) { s.snapshots = store }
}

// WithPublisher отправка событий о завершении запуска
func WithPublisher(p interfaces.PublisherPort) HarvestOption {
	return func(s *HarvestService) { s.publisher = p }
}

// NewHarvestService создает сервис сбора
func NewHarvestService(api SellerAPI, exporter *export.Exporter, logger interfaces.LoggerPort, opts HarvestOptions, extra ...HarvestOption) *HarvestService {
	if opts.LockKey == "" {
		opts.LockKey = DefaultLockKey
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if opts.EventsTopic == "" {
		opts.EventsTopic = DefaultEventsTopic
	}

	s := &HarvestService{
		exporter: exporter,
		logger:   logger.WithField("component", "harvest"),
		opts:     opts,
		catalog: NewCatalog(api, logger, CatalogOptions{
			AttributesBatch: opts.AttributesBatch,
			Concurrency:     opts.Concurrency,
			MaxPages:        opts.MaxPages,
		}),
		stocks: NewStockHarvester(api, logger, StockOptions{
			BatchSize:   opts.StocksBatch,
			Concurrency: opts.Concurrency,
		}),
		clusters: NewClusterHarvester(api, logger),
	}
	for _, o := range extra {
		o(s)
	}
	return s
}

// snapshotCollector собирает записи таблиц для хранилища; без хранилища ничего не делает
type snapshotCollector struct {
	enabled bool
	tables  map[string][]json.RawMessage
}

func (c *snapshotCollector) add(table string, rec any) error {
	if !c.enabled {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи %s: %w", table, err)
	}
	c.tables[table] = append(c.tables[table], b)
	return nil
}

func addAll[T any](c *snapshotCollector, table string, rows []T) error {
	if c.enabled && c.tables[table] == nil {
		c.tables[table] = make([]json.RawMessage, 0, len(rows))
	}
	for _, r := range rows {
		if err := c.add(table, r); err != nil {
			return err
		}
	}
	return nil
}

// Run выполняет один запуск. Пустой runID заменяется новым UUID.
// Отчет возвращается и при ошибке: файлы, записанные до нее, остаются на диске.
func (s *HarvestService) Run(ctx context.Context, runID string) (*models.RunReport, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = interfaces.WithRunID(ctx, runID)
	report := models.NewRunReport(runID, time.Now().UTC())

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	s.logger.InfoWithContext(ctx, "Запуск сбора",
		interfaces.LogField{Key: "dir", Value: s.exporter.Dir()})

	err := s.run(ctx, report)
	report.Finish(time.Now().UTC(), err)
	metrics.HarvestRuns.WithLabelValues(string(report.Status)).Inc()
	metrics.HarvestRunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())

	if err != nil {
		s.logger.ErrorWithContext(ctx, "Сбор завершился ошибкой",
			interfaces.LogField{Key: "error", Value: err.Error()})
	} else {
		s.logger.InfoWithContext(ctx, "Сбор завершен",
			interfaces.LogField{Key: "counts", Value: report.Counts},
			interfaces.LogField{Key: "files", Value: report.Files},
		)
	}

	// занятая блокировка значит, что выгрузку делает другой запуск: о нем не сообщаем
	if !errors.Is(err, utils.ErrRunInProgress) {
		s.publish(ctx, report)
	}
	return report, err
}

func (s *HarvestService) run(ctx context.Context, report *models.RunReport) error {
	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, s.opts.LockKey, s.opts.LockTTL)
		if err != nil {
			if errors.Is(err, interfaces.ErrLockHeld) {
				return fmt.Errorf("%w: %v", utils.ErrRunInProgress, err)
			}
			return fmt.Errorf("ошибка получения блокировки запуска: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnWithContext(ctx, "Не удалось освободить блокировку запуска",
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}()
	}

	snap := &snapshotCollector{enabled: s.snapshots != nil, tables: make(map[string][]json.RawMessage)}

	ids, err := s.catalog.ListProductIDs(ctx)
	if err != nil {
		return err
	}
	report.Counts[CountProductIDs] = len(ids)
	s.logger.InfoWithContext(ctx, "Получен список товаров",
		interfaces.LogField{Key: "product_ids", Value: len(ids)})

	records, err := s.catalog.FetchAttributes(ctx, ids)
	if err != nil {
		return err
	}

	products := BuildProductRows(records, s.logger)
	if err := s.writeTable(report, export.ProductsTable, products, CountProducts, len(products)); err != nil {
		return err
	}
	if err := addAll(snap, export.ProductsTable.Key, products); err != nil {
		return err
	}

	characteristics := BuildCharacteristicRows(records, s.logger)
	if err := s.writeTable(report, export.CharacteristicsTable, characteristics, CountCharacteristics, len(characteristics)); err != nil {
		return err
	}
	if err := addAll(snap, export.CharacteristicsTable.Key, characteristics); err != nil {
		return err
	}

	if err := s.harvestStocks(ctx, report, BuildSKUIndex(records), snap); err != nil {
		return err
	}

	if err := s.harvestLogistics(ctx, report, snap); err != nil {
		return err
	}

	for table, n := range report.Counts {
		metrics.HarvestRecords.WithLabelValues(table).Set(float64(n))
	}

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, &interfaces.Snapshot{
			RunID:     report.RunID,
			HarvestAt: report.StartedAt,
			Tables:    snap.tables,
		}); err != nil {
			return fmt.Errorf("ошибка сохранения снимка: %w", err)
		}
		s.logger.InfoWithContext(ctx, "Снимок сохранен в хранилище",
			interfaces.LogField{Key: "tables", Value: len(snap.tables)})
	}
	return nil
}

func (s *HarvestService) writeTable(report *models.RunReport, t export.Table, rows any, countKey string, n int) error {
	path, err := s.exporter.Write(t, rows)
	if err != nil {
		return err
	}
	report.Counts[countKey] = n
	report.Files = append(report.Files, path)
	return nil
}

func (s *HarvestService) harvestStocks(ctx context.Context, report *models.RunReport, index *SKUIndex, snap *snapshotCollector) error {
	s.logger.InfoWithContext(ctx, "Запрос остатков",
		interfaces.LogField{Key: "skus", Value: index.Len()})

	stream, err := s.exporter.Stream(export.StocksTable)
	if err != nil {
		return err
	}
	if snap.enabled {
		snap.tables[export.StocksTable.Key] = make([]json.RawMessage, 0, index.Len())
	}

	rows, err := s.stocks.Harvest(ctx, index, func(st models.SKUStock) error {
		if err := stream.Write(st); err != nil {
			return err
		}
		return snap.add(export.StocksTable.Key, st)
	})
	if err != nil {
		stream.Abort()
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}

	report.Counts[CountStocks] = stream.Count()
	report.Counts[CountStockRows] = rows
	report.Files = append(report.Files, s.exporter.Path(export.StocksTable))
	return nil
}

func (s *HarvestService) harvestLogistics(ctx context.Context, report *models.RunReport, snap *snapshotCollector) error {
	list, err := s.clusters.FetchClusters(ctx)
	if s.opts.DumpRaw && list.Raw.Exists() {
		if path, dumpErr := s.exporter.WriteDocument(RawClusterListFile, list.Raw); dumpErr != nil {
			s.logger.WarnWithContext(ctx, "Не удалось сохранить ответ списка кластеров",
				interfaces.LogField{Key: "error", Value: dumpErr.Error()})
		} else {
			report.Files = append(report.Files, path)
		}
	}
	if err != nil {
		return err
	}

	if s.opts.DumpRaw {
		path, err := s.exporter.WriteDocument(ExtractedClustersFile, struct {
			ExtractedFrom string `json:"extracted_from"`
			ClustersCount int    `json:"clusters_count"`
		}{list.Path, len(list.Clusters)})
		if err != nil {
			return err
		}
		report.Files = append(report.Files, path)
	}

	directory, err := s.clusters.FetchWarehouseDirectory(ctx)
	if err != nil {
		return err
	}
	regions, byCluster := BuildRegions(list.Clusters)
	warehouses := BuildWarehouses(list.Clusters, byCluster, directory)

	if err := s.writeTable(report, export.RegionsTable, regions, CountRegions, len(regions)); err != nil {
		return err
	}
	if err := addAll(snap, export.RegionsTable.Key, regions); err != nil {
		return err
	}
	if err := s.writeTable(report, export.WarehousesTable, warehouses, CountWarehouses, len(warehouses)); err != nil {
		return err
	}
	return addAll(snap, export.WarehousesTable.Key, warehouses)
}

// publish отправляет событие о запуске; ошибка отправки только логируется
func (s *HarvestService) publish(ctx context.Context, report *models.RunReport) {
	if s.publisher == nil {
		return
	}

	event := messaging.HarvestEvent{
		EventType:  messaging.HarvestCompletedEvent,
		RunID:      report.RunID,
		Status:     string(report.Status),
		StartedAt:  report.StartedAt,
		FinishedAt: *report.FinishedAt,
		Counts:     report.Counts,
		Files:      report.Files,
		Error:      report.Error,
	}
	if report.Status == models.RunStatusFailed {
		event.EventType = messaging.HarvestFailedEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnWithContext(ctx, "Ошибка сериализации события",
			interfaces.LogField{Key: "error", Value: err.Error()})
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, &interfaces.Message{
		Topic: s.opts.EventsTopic,
		Key:   report.RunID,
		Value: value,
		Headers: map[string]string{
			"event_type": event.EventType,
		},
	}); err != nil {
		s.logger.WarnWithContext(ctx, "Не удалось отправить событие о запуске",
			interfaces.LogField{Key: "event_type", Value: event.EventType},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}
