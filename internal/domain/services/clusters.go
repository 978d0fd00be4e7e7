package services

import (
	"context"
	"strings"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/ozon"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/extract"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// Псевдонимы полей кластеров и складов
var (
	clusterIDKeys   = []string{"cluster_id", "id"}
	clusterNameKeys = []string{"cluster_name", "name", "title"}

	refIDKeys   = []string{"warehouse_id", "id", "warehouseId"}
	refNameKeys = []string{"name", "warehouse_name", "title", "warehouseName"}

	directoryIDKeys   = []string{"warehouse_id", "id"}
	directoryNameKeys = []string{"name", "warehouse_name", "title"}
)

// ClusterList найденный список кластеров
type ClusterList struct {
	Clusters []payload.Node
	Path     string
	Raw      payload.Node
}

// ClusterHarvester кластеры и справочник складов FBO
type ClusterHarvester struct {
	api       SellerAPI
	logger    interfaces.LoggerPort
	clusters  *extract.Extractor
	directory *extract.Extractor
}

// NewClusterHarvester создает сервис кластеров
func NewClusterHarvester(api SellerAPI, logger interfaces.LoggerPort) *ClusterHarvester {
	return &ClusterHarvester{
		api:       api,
		logger:    logger.WithField("component", "clusters"),
		clusters:  extract.New(extract.ClusterPriorityKeys...),
		directory: extract.New(),
	}
}

// FetchClusters запрашивает /v1/cluster/list. Пустой или не найденный список
// кластеров - ReconciliationError.
func (h *ClusterHarvester) FetchClusters(ctx context.Context) (ClusterList, error) {
	node, err := h.api.Send(ctx, ozon.ClusterListEndpoint, ozon.NewClusterListRequest())
	if err != nil {
		return ClusterList{}, err
	}

	match, err := h.clusters.Extract(node)
	if err != nil {
		return ClusterList{Raw: node}, &ReconciliationError{
			Endpoint: ozon.ClusterListEndpoint,
			Reason:   "cluster list not found in response",
			Err:      err,
		}
	}
	if len(match.Records) == 0 {
		return ClusterList{Raw: node, Path: match.Path}, &ReconciliationError{
			Endpoint: ozon.ClusterListEndpoint,
			Reason:   "cluster list is empty at " + match.Path,
		}
	}

	h.logger.InfoWithContext(ctx, "Кластеры получены",
		interfaces.LogField{Key: "clusters", Value: len(match.Records)},
		interfaces.LogField{Key: "path", Value: match.Path},
	)
	return ClusterList{Clusters: match.Records, Path: match.Path, Raw: node}, nil
}

// FetchWarehouseDirectory справочник warehouse_id -> название.
// Ошибка запроса или разбора дает пустой справочник: имена тогда берутся только
// из кластеров. Ошибкой возвращается только отмена ctx.
func (h *ClusterHarvester) FetchWarehouseDirectory(ctx context.Context) (map[string]string, error) {
	dir := make(map[string]string)

	node, err := h.api.Send(ctx, ozon.WarehouseFBOListEndpoint, ozon.NewWarehouseFBOListRequest())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		h.logger.WarnWithContext(ctx, "Справочник складов FBO недоступен",
			interfaces.LogField{Key: "error", Value: err.Error()})
		return dir, nil
	}

	match, err := h.directory.Extract(node)
	if err != nil {
		h.logger.WarnWithContext(ctx, "В справочнике складов FBO нет списка",
			interfaces.LogField{Key: "error", Value: err.Error()})
		return dir, nil
	}

	for _, w := range match.Records {
		id, ok := payload.Pick(w, directoryIDKeys...)
		if !ok {
			continue
		}
		name, ok := payload.Pick(w, directoryNameKeys...)
		if !ok || !name.Truthy() {
			continue
		}
		dir[id.String()] = name.String()
	}
	return dir, nil
}

// BuildRegions присваивает кластерам локальные id с 1 в порядке появления.
// Возвращает регионы и отображение cluster id -> region id.
func BuildRegions(clusters []payload.Node) ([]models.Region, map[string]int) {
	regions := make([]models.Region, 0, len(clusters))
	byCluster := make(map[string]int, len(clusters))

	for _, c := range clusters {
		cid, ok := payload.Pick(c, clusterIDKeys...)
		if !ok {
			continue
		}
		key := cid.String()
		if _, seen := byCluster[key]; seen {
			continue
		}

		name, _ := payload.Pick(c, clusterNameKeys...)
		id := len(regions) + 1
		byCluster[key] = id
		regions = append(regions, models.Region{
			ID:        id,
			Name:      name,
			ClusterID: payload.NumericID(cid),
		})
	}
	return regions, byCluster
}

// CollectWarehouseRefs ищет ссылки на склады в любом поле кластера,
// имя которого содержит "warehouse", а значение - список
func CollectWarehouseRefs(cluster payload.Node) []models.WarehouseRef {
	var out []models.WarehouseRef

	var walk func(n payload.Node)
	addFromList := func(list payload.Node) {
		items := list.Items()
		switch {
		case len(items) > 0 && allKinds(items, payload.KindObject):
			for _, w := range items {
				var ref models.WarehouseRef
				if id, ok := payload.Pick(w, refIDKeys...); ok {
					ref.ID = strPtr(id.String())
				}
				if name, ok := payload.Pick(w, refNameKeys...); ok {
					ref.Name = strPtr(name.String())
				}
				out = append(out, ref)
			}
		case len(items) > 0 && allKinds(items, payload.KindNumber, payload.KindString):
			for _, id := range items {
				out = append(out, models.WarehouseRef{ID: strPtr(id.String())})
			}
		default:
			for _, item := range items {
				walk(item)
			}
		}
	}

	walk = func(n payload.Node) {
		switch n.Kind() {
		case payload.KindObject:
			n.Fields(func(k string, v payload.Node) bool {
				if v.IsList() && strings.Contains(strings.ToLower(k), "warehouse") {
					addFromList(v)
				} else {
					walk(v)
				}
				return true
			})
		case payload.KindList:
			for _, item := range n.Items() {
				walk(item)
			}
		}
	}

	walk(cluster)
	return out
}

// BuildWarehouses собирает склады по регионам. Имя без указания в кластере
// берется из справочника; склады без имени отбрасываются.
// Ключ уникальности - (region id, warehouse id или имя); первый выигрывает.
func BuildWarehouses(clusters []payload.Node, regionByCluster map[string]int, directory map[string]string) []models.Warehouse {
	type dedupKey struct {
		region int
		ref    string
	}
	seen := make(map[dedupKey]struct{})
	var rows []models.Warehouse

	for _, c := range clusters {
		cid, ok := payload.Pick(c, clusterIDKeys...)
		if !ok {
			continue
		}
		regionID, ok := regionByCluster[cid.String()]
		if !ok {
			continue
		}

		for _, ref := range CollectWarehouseRefs(c) {
			name := ""
			if ref.Name != nil {
				name = *ref.Name
			}
			if name == "" && ref.ID != nil {
				name = directory[*ref.ID]
			}
			if name == "" {
				continue
			}

			refKey := name
			if ref.ID != nil && *ref.ID != "" {
				refKey = *ref.ID
			}
			k := dedupKey{region: regionID, ref: refKey}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			rows = append(rows, models.Warehouse{
				Name:        name,
				RegionID:    regionID,
				WarehouseID: ref.ID,
			})
		}
	}
	if rows == nil {
		rows = []models.Warehouse{}
	}
	return rows
}

func allKinds(items []payload.Node, kinds ...payload.Kind) bool {
	for _, item := range items {
		match := false
		for _, k := range kinds {
			if item.Kind() == k {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func strPtr(s string) *string { return &s }
