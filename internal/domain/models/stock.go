package models

import (
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
)

// SKUMeta название и артикул SKU из атрибутов товара
type SKUMeta struct {
	Name    payload.Node
	OfferID payload.Node
}

// StockRow остаток SKU на складе
type StockRow struct {
	SKU           payload.Node `json:"sku"`
	Name          payload.Node `json:"name"`
	OfferID       payload.Node `json:"offer_id"`
	WarehouseID   payload.Node `json:"warehouse_id"`
	WarehouseName payload.Node `json:"warehouse_name"`
	ClusterID     payload.Node `json:"cluster_id"`
	ClusterName   payload.Node `json:"cluster_name"`
	Stock         int64        `json:"stock"`
}

// SKUStock все строки остатков одного SKU; Items не бывает nil
type SKUStock struct {
	SKU   string     `json:"sku"`
	Items []StockRow `json:"items"`
}
