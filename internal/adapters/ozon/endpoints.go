package ozon

// Эндпоинты Seller API, все вызываются методом POST
const (
	DefaultBaseURL = "https://api-seller.ozon.ru"

	ProductListEndpoint       = "/v3/product/list"
	ProductAttributesEndpoint = "/v4/product/info/attributes"
	ClusterListEndpoint       = "/v1/cluster/list"
	WarehouseFBOListEndpoint  = "/v1/warehouse/fbo/list"
	AnalyticsStocksEndpoint   = "/v1/analytics/stocks"
)

// Ограничения API
const (
	ProductListLimit   = 1000
	AttributesBatch    = 1000
	WarehouseListLimit = 1000
	StocksBatch        = 99
	StocksBatchMax     = 100
)

// ProductListRequest тело запроса /v3/product/list
type ProductListRequest struct {
	Filter VisibilityFilter `json:"filter"`
	LastID string           `json:"last_id"`
	Limit  int              `json:"limit"`
}

// VisibilityFilter фильтр видимости товаров
type VisibilityFilter struct {
	Visibility string `json:"visibility"`
}

// AttributesRequest тело запроса /v4/product/info/attributes
type AttributesRequest struct {
	Filter  AttributesFilter `json:"filter"`
	Limit   int              `json:"limit"`
	SortDir string           `json:"sort_dir"`
}

// AttributesFilter фильтр по идентификаторам товаров
type AttributesFilter struct {
	ProductID  []string `json:"product_id"`
	Visibility string   `json:"visibility"`
}

// ClusterListRequest тело запроса /v1/cluster/list
type ClusterListRequest struct {
	ClusterType string `json:"cluster_type"`
}

// WarehouseFBOListRequest тело запроса /v1/warehouse/fbo/list
type WarehouseFBOListRequest struct {
	FilterBySupplyType []string `json:"filter_by_supply_type"`
	Limit              int      `json:"limit"`
	Offset             int      `json:"offset"`
}

// StocksRequest тело запроса /v1/analytics/stocks
type StocksRequest struct {
	SKUs []string `json:"skus"`
}

// NewProductListRequest запрос страницы списка товаров
func NewProductListRequest(cursor string) ProductListRequest {
	return ProductListRequest{
		Filter: VisibilityFilter{Visibility: "ALL"},
		LastID: cursor,
		Limit:  ProductListLimit,
	}
}

// NewAttributesRequest запрос атрибутов для пачки товаров
func NewAttributesRequest(productIDs []string) AttributesRequest {
	return AttributesRequest{
		Filter:  AttributesFilter{ProductID: productIDs, Visibility: "ALL"},
		Limit:   len(productIDs),
		SortDir: "ASC",
	}
}

// NewClusterListRequest запрос кластеров Ozon
func NewClusterListRequest() ClusterListRequest {
	return ClusterListRequest{ClusterType: "CLUSTER_TYPE_OZON"}
}

// NewWarehouseFBOListRequest запрос справочника складов FBO
func NewWarehouseFBOListRequest() WarehouseFBOListRequest {
	return WarehouseFBOListRequest{
		FilterBySupplyType: []string{"DIRECT", "CROSSDOCK"},
		Limit:              WarehouseListLimit,
		Offset:             0,
	}
}
