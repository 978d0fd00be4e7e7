package models

import (
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
)

// Region регион, полученный из кластера Ozon. ID локальный, с 1 в порядке появления.
type Region struct {
	ID        int          `json:"id"`
	Name      payload.Node `json:"name"`
	ClusterID payload.Node `json:"cluster_id"`
}

// Warehouse склад региона. ID остается null до вставки в БД получателя.
type Warehouse struct {
	ID          *int64  `json:"id"`
	Name        string  `json:"name"`
	RegionID    int     `json:"region_id"`
	WarehouseID *string `json:"warehouse_id"`
}

// WarehouseRef ссылка на склад внутри кластера; любое из полей может отсутствовать
type WarehouseRef struct {
	ID   *string
	Name *string
}
