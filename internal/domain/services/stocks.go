package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/ozon"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/extract"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
	"github.com/athebyme/gomarket-platform/harvester/pkg/utils"
)

// ExtractSKU берет первый нормализуемый SKU из sku, sku_id, затем skus[0]
func ExtractSKU(rec payload.Node) (int64, bool) {
	for _, k := range []string{"sku", "sku_id"} {
		if sku, ok := payload.NormalizeSKU(rec.Field(k)); ok {
			return sku, true
		}
	}
	if skus := rec.Field("skus").Items(); len(skus) > 0 {
		return payload.NormalizeSKU(skus[0])
	}
	return 0, false
}

// SKUIndex SKU -> название и артикул; первое появление SKU выигрывает
type SKUIndex struct {
	meta map[int64]models.SKUMeta
	skus []int64
}

// BuildSKUIndex строит индекс по записям атрибутов
func BuildSKUIndex(records []payload.Node) *SKUIndex {
	idx := &SKUIndex{meta: make(map[int64]models.SKUMeta)}
	for _, rec := range records {
		sku, ok := ExtractSKU(rec)
		if !ok {
			continue
		}
		if _, exists := idx.meta[sku]; exists {
			continue
		}
		idx.meta[sku] = models.SKUMeta{Name: rec.Field("name"), OfferID: rec.Field("offer_id")}
		idx.skus = append(idx.skus, sku)
	}
	sort.Slice(idx.skus, func(i, j int) bool { return idx.skus[i] < idx.skus[j] })
	return idx
}

// SKUs уникальные SKU по возрастанию
func (i *SKUIndex) SKUs() []int64 { return i.skus }

// Len число уникальных SKU
func (i *SKUIndex) Len() int { return len(i.skus) }

// Meta метаданные SKU
func (i *SKUIndex) Meta(sku int64) (models.SKUMeta, bool) {
	m, ok := i.meta[sku]
	return m, ok
}

func stockCount(n payload.Node) int64 {
	if v, ok := n.Int(); ok {
		return v
	}
	return 0
}

// CompactStockRow сводит строку /v1/analytics/stocks; stock = available + valid.
// Пустые name и offer_id берутся из метаданных SKU.
func CompactStockRow(row payload.Node, meta models.SKUMeta) models.StockRow {
	return models.StockRow{
		SKU:           row.Field("sku"),
		Name:          row.Field("name").Or(meta.Name),
		OfferID:       row.Field("offer_id").Or(meta.OfferID),
		WarehouseID:   row.Field("warehouse_id"),
		WarehouseName: row.Field("warehouse_name"),
		ClusterID:     row.Field("cluster_id"),
		ClusterName:   row.Field("cluster_name"),
		Stock:         stockCount(row.Field("available_stock_count")) + stockCount(row.Field("valid_stock_count")),
	}
}

// GroupStockRows по одной записи на каждый SKU пачки в порядке запроса.
// SKU без строк получает пустой список, строки чужих SKU отбрасываются.
func GroupStockRows(batch []int64, rows []payload.Node, index *SKUIndex) []models.SKUStock {
	grouped := make(map[int64][]models.StockRow, len(batch))
	for _, sku := range batch {
		grouped[sku] = []models.StockRow{}
	}

	for _, row := range rows {
		sku, ok := row.Field("sku").Int()
		if !ok {
			continue
		}
		items, requested := grouped[sku]
		if !requested {
			continue
		}
		var meta models.SKUMeta
		if index != nil {
			meta, _ = index.Meta(sku)
		}
		grouped[sku] = append(items, CompactStockRow(row, meta))
	}

	out := make([]models.SKUStock, 0, len(batch))
	for _, sku := range batch {
		out = append(out, models.SKUStock{SKU: strconv.FormatInt(sku, 10), Items: grouped[sku]})
	}
	return out
}

// StockOptions параметры выгрузки остатков
type StockOptions struct {
	BatchSize   int
	Concurrency int
}

// StockHarvester выгрузка остатков по SKU
type StockHarvester struct {
	api       SellerAPI
	logger    interfaces.LoggerPort
	extractor *extract.Extractor
	opts      StockOptions
}

// NewStockHarvester создает сервис остатков. Размер пачки не больше 100.
func NewStockHarvester(api SellerAPI, logger interfaces.LoggerPort, opts StockOptions) *StockHarvester {
	if opts.BatchSize <= 0 {
		opts.BatchSize = ozon.StocksBatch
	}
	if opts.BatchSize > ozon.StocksBatchMax {
		opts.BatchSize = ozon.StocksBatchMax
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &StockHarvester{
		api:       api,
		logger:    logger.WithField("component", "stocks"),
		extractor: extract.New("items", "result", "data"),
		opts:      opts,
	}
}

// Harvest запрашивает остатки окнами по Concurrency пачек и отдает записи в emit
// строго в порядке SKU из индекса. Возвращает число строк остатков.
func (h *StockHarvester) Harvest(ctx context.Context, index *SKUIndex, emit func(models.SKUStock) error) (int, error) {
	batches := utils.Chunk(index.SKUs(), h.opts.BatchSize)
	rows := 0

	for start := 0; start < len(batches); start += h.opts.Concurrency {
		window := batches[start:min(start+h.opts.Concurrency, len(batches))]
		results := make([][]models.SKUStock, len(window))

		g, gctx := errgroup.WithContext(ctx)
		for i, batch := range window {
			i, batch := i, batch
			g.Go(func() error {
				stocks, err := h.fetchBatch(gctx, start+i, batch, index)
				if err != nil {
					return err
				}
				results[i] = stocks
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return rows, fmt.Errorf("ошибка получения остатков: %w", err)
		}

		for _, stocks := range results {
			for _, st := range stocks {
				rows += len(st.Items)
				if err := emit(st); err != nil {
					return rows, err
				}
			}
		}
	}
	return rows, nil
}

func (h *StockHarvester) fetchBatch(ctx context.Context, n int, batch []int64, index *SKUIndex) ([]models.SKUStock, error) {
	skus := make([]string, len(batch))
	for i, sku := range batch {
		skus[i] = strconv.FormatInt(sku, 10)
	}

	node, err := h.api.Send(ctx, ozon.AnalyticsStocksEndpoint, ozon.StocksRequest{SKUs: skus})
	if err != nil {
		return nil, fmt.Errorf("пачка %d: %w", n+1, err)
	}

	var rows []payload.Node
	match, err := h.extractor.Extract(node)
	if err != nil {
		h.logger.WarnWithContext(ctx, "Не найден список остатков, SKU пачки выгружены без строк",
			interfaces.LogField{Key: "batch", Value: n + 1},
			interfaces.LogField{Key: "skus", Value: len(batch)},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	} else {
		rows = extract.RequireAnyField(match.Records, "sku")
	}

	h.logger.Debug("Пачка остатков",
		interfaces.LogField{Key: "batch", Value: n + 1},
		interfaces.LogField{Key: "skus", Value: len(batch)},
		interfaces.LogField{Key: "rows", Value: len(rows)},
	)
	return GroupStockRows(batch, rows, index), nil
}
