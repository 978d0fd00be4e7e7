package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/ozon"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
)

func TestExtractSKU(t *testing.T) {
	tests := []struct {
		rec    string
		want   int64
		wantOK bool
	}{
		{`{"sku": 123}`, 123, true},
		{`{"sku": "  456 "}`, 456, true},
		{`{"sku": 0, "sku_id": "789"}`, 789, true},
		{`{"sku": "abc", "skus": ["321", 5]}`, 321, true},
		{`{"sku": 12.5}`, 0, false},
		{`{"sku": -5}`, 0, false},
		{`{"sku": null, "skus": []}`, 0, false},
		{`{"name": "x"}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.rec, func(t *testing.T) {
			got, ok := ExtractSKU(payload.MustParse(tt.rec))
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSKUIndex_SortedFirstWins(t *testing.T) {
	records := payload.MustParse(`[
		{"sku": 300, "name": "C", "offer_id": "c"},
		{"sku": "100", "name": "A", "offer_id": "a"},
		{"sku": 300, "name": "C2", "offer_id": "c2"},
		{"sku": "bad"}
	]`).Items()

	idx := BuildSKUIndex(records)
	require.Equal(t, []int64{100, 300}, idx.SKUs())
	require.Equal(t, 2, idx.Len())

	meta, ok := idx.Meta(300)
	require.True(t, ok)
	require.Equal(t, "C", meta.Name.String())
	require.Equal(t, "c", meta.OfferID.String())

	_, ok = idx.Meta(999)
	require.False(t, ok)
}

func TestCompactStockRow(t *testing.T) {
	row := payload.MustParse(`{
		"sku": 111, "name": "", "warehouse_id": 7, "warehouse_name": "Хоругвино",
		"cluster_id": 4, "cluster_name": "Москва",
		"available_stock_count": 3, "valid_stock_count": "5", "other_stock_count": 100
	}`)
	meta := models.SKUMeta{Name: payload.MustParse(`"Лампа"`), OfferID: payload.MustParse(`"L-1"`)}

	got := CompactStockRow(row, meta)
	require.Equal(t, int64(8), got.Stock)
	require.Equal(t, "Лампа", got.Name.String())
	require.Equal(t, "L-1", got.OfferID.String())
	require.Equal(t, "Хоругвино", got.WarehouseName.String())

	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"sku": 111, "name": "Лампа", "offer_id": "L-1",
		"warehouse_id": 7, "warehouse_name": "Хоругвино",
		"cluster_id": 4, "cluster_name": "Москва", "stock": 8
	}`, string(b))
}

func TestCompactStockRow_MissingCountsAreZero(t *testing.T) {
	got := CompactStockRow(payload.MustParse(`{"sku": 1, "valid_stock_count": null}`), models.SKUMeta{})
	require.Equal(t, int64(0), got.Stock)
}

func TestGroupStockRows(t *testing.T) {
	rows := payload.MustParse(`[
		{"sku": 222, "available_stock_count": 1, "valid_stock_count": 1},
		{"sku": 999, "available_stock_count": 5},
		{"sku": "111", "available_stock_count": 2},
		{"sku": 222, "valid_stock_count": 4}
	]`).Items()

	got := GroupStockRows([]int64{111, 222, 333}, rows, nil)
	require.Len(t, got, 3)

	require.Equal(t, "111", got[0].SKU)
	require.Len(t, got[0].Items, 1)
	require.Equal(t, int64(2), got[0].Items[0].Stock)

	require.Equal(t, "222", got[1].SKU)
	require.Len(t, got[1].Items, 2)
	require.Equal(t, int64(2), got[1].Items[0].Stock)
	require.Equal(t, int64(4), got[1].Items[1].Stock)

	require.Equal(t, "333", got[2].SKU)
	require.NotNil(t, got[2].Items)
	require.Empty(t, got[2].Items)
}

func stocksFor(body string) string {
	var req ozon.StocksRequest
	_ = json.Unmarshal([]byte(body), &req)
	items := make([]map[string]any, 0, len(req.SKUs))
	for _, s := range req.SKUs {
		items = append(items, map[string]any{"sku": s, "available_stock_count": 1, "valid_stock_count": 1})
	}
	b, _ := json.Marshal(map[string]any{"items": items})
	return string(b)
}

func TestStockHarvester_OrderedAcrossConcurrentBatches(t *testing.T) {
	api := newFakeAPI().on(ozon.AnalyticsStocksEndpoint, func(body string) (string, error) {
		return stocksFor(body), nil
	})

	var records []payload.Node
	for _, sku := range []string{"5", "3", "1", "4", "2"} {
		records = append(records, payload.MustParse(`{"sku": `+sku+`}`))
	}
	idx := BuildSKUIndex(records)

	h := NewStockHarvester(api, logger.NewNopLogger(), StockOptions{BatchSize: 2, Concurrency: 2})

	var order []string
	rows, err := h.Harvest(context.Background(), idx, func(st models.SKUStock) error {
		order = append(order, st.SKU)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 5, rows)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, order)

	calls := api.callsTo(ozon.AnalyticsStocksEndpoint)
	require.Len(t, calls, 3)
	bodies := make([]string, 0, len(calls))
	for _, c := range calls {
		bodies = append(bodies, c.Body)
	}
	require.ElementsMatch(t, []string{`{"skus":["1","2"]}`, `{"skus":["3","4"]}`, `{"skus":["5"]}`}, bodies)
}

func TestStockHarvester_BatchClampedTo100(t *testing.T) {
	h := NewStockHarvester(newFakeAPI(), logger.NewNopLogger(), StockOptions{BatchSize: 500})
	require.Equal(t, ozon.StocksBatchMax, h.opts.BatchSize)

	h = NewStockHarvester(newFakeAPI(), logger.NewNopLogger(), StockOptions{})
	require.Equal(t, ozon.StocksBatch, h.opts.BatchSize)
}

func TestStockHarvester_UnrecognizedResponseGivesEmptyItems(t *testing.T) {
	api := newFakeAPI().reply(ozon.AnalyticsStocksEndpoint, `{"result": "nothing here"}`)
	idx := BuildSKUIndex(payload.MustParse(`[{"sku": 1}, {"sku": 2}]`).Items())

	var got []models.SKUStock
	rows, err := NewStockHarvester(api, logger.NewNopLogger(), StockOptions{}).
		Harvest(context.Background(), idx, func(st models.SKUStock) error {
			got = append(got, st)
			return nil
		})
	require.NoError(t, err)
	require.Zero(t, rows)
	require.Len(t, got, 2)
	require.Empty(t, got[0].Items)
}

func TestStockHarvester_RequestErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	api := newFakeAPI().on(ozon.AnalyticsStocksEndpoint, func(string) (string, error) { return "", boom })
	idx := BuildSKUIndex(payload.MustParse(`[{"sku": 1}]`).Items())

	_, err := NewStockHarvester(api, logger.NewNopLogger(), StockOptions{}).
		Harvest(context.Background(), idx, func(models.SKUStock) error { return nil })
	require.ErrorIs(t, err, boom)
}
