package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/ozon"
	"github.com/athebyme/gomarket-platform/harvester/internal/extract"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
	"github.com/athebyme/gomarket-platform/harvester/pkg/utils"
)

// attributeFields хотя бы одно из полей должно быть у записи атрибутов
var attributeFields = []string{"id", "product_id", "sku", "offer_id"}

// CatalogOptions параметры выгрузки каталога
type CatalogOptions struct {
	AttributesBatch int
	Concurrency     int
	MaxPages        int
}

// Catalog список товаров и их атрибуты
type Catalog struct {
	api       SellerAPI
	logger    interfaces.LoggerPort
	extractor *extract.Extractor
	opts      CatalogOptions
}

// NewCatalog создает сервис каталога
func NewCatalog(api SellerAPI, logger interfaces.LoggerPort, opts CatalogOptions) *Catalog {
	if opts.AttributesBatch <= 0 || opts.AttributesBatch > ozon.AttributesBatch {
		opts.AttributesBatch = ozon.AttributesBatch
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Catalog{
		api:       api,
		logger:    logger.WithField("component", "catalog"),
		extractor: extract.New(),
		opts:      opts,
	}
}

// ListProductIDs обходит /v3/product/list по курсору last_id.
// Идентификаторы возвращаются без повторов в порядке первого появления.
func (c *Catalog) ListProductIDs(ctx context.Context) ([]string, error) {
	fetch := func(ctx context.Context, cursor string) (utils.Page[payload.Node], error) {
		node, err := c.api.Send(ctx, ozon.ProductListEndpoint, ozon.NewProductListRequest(cursor))
		if err != nil {
			return utils.Page[payload.Node]{}, err
		}

		match, err := c.extractor.Extract(node)
		if err != nil {
			c.logger.WarnWithContext(ctx, "В ответе списка товаров нет items",
				interfaces.LogField{Key: "cursor", Value: cursor},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
			return utils.Page[payload.Node]{}, nil
		}
		return utils.Page[payload.Node]{Items: match.Records, Next: nextCursor(node)}, nil
	}

	all, err := utils.CollectAll(ctx, fetch, utils.PageOptions{
		MaxPages: c.opts.MaxPages,
		OnPage: func(page, items int, next string) {
			c.logger.Debug("Страница списка товаров",
				interfaces.LogField{Key: "page", Value: page},
				interfaces.LogField{Key: "items", Value: items},
				interfaces.LogField{Key: "last_id", Value: next},
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка товаров: %w", err)
	}

	seen := make(map[string]struct{}, len(all))
	ids := make([]string, 0, len(all))
	dup := 0
	for _, rec := range all {
		pid := rec.Field("product_id")
		if pid.Kind() == payload.KindMissing || pid.Kind() == payload.KindNull {
			continue
		}
		id := pid.String()
		if _, ok := seen[id]; ok {
			dup++
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if dup > 0 {
		c.logger.Warn("Повторяющиеся product_id в списке товаров",
			interfaces.LogField{Key: "duplicates", Value: dup})
	}
	return ids, nil
}

func nextCursor(node payload.Node) string {
	for _, v := range []payload.Node{node.Field("result").Field("last_id"), node.Field("last_id")} {
		if v.Truthy() {
			return v.String()
		}
	}
	return ""
}

// FetchAttributes запрашивает атрибуты пачками параллельно и склеивает результат в порядке пачек
func (c *Catalog) FetchAttributes(ctx context.Context, productIDs []string) ([]payload.Node, error) {
	batches := utils.Chunk(productIDs, c.opts.AttributesBatch)
	results := make([][]payload.Node, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			records, err := c.fetchAttributesBatch(gctx, i, batch)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ошибка получения атрибутов: %w", err)
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	all := make([]payload.Node, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func (c *Catalog) fetchAttributesBatch(ctx context.Context, index int, batch []string) ([]payload.Node, error) {
	node, err := c.api.Send(ctx, ozon.ProductAttributesEndpoint, ozon.NewAttributesRequest(batch))
	if err != nil {
		return nil, fmt.Errorf("пачка %d: %w", index+1, err)
	}

	match, err := c.extractor.Extract(node)
	if err != nil {
		c.logger.WarnWithContext(ctx, "Не найден список атрибутов, пачка пропущена",
			interfaces.LogField{Key: "batch", Value: index + 1},
			interfaces.LogField{Key: "size", Value: len(batch)},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		return nil, nil
	}

	records := extract.RequireAnyField(match.Records, attributeFields...)
	if dropped := len(match.Records) - len(records); dropped > 0 {
		c.logger.WarnWithContext(ctx, "Записи атрибутов без идентификаторов отброшены",
			interfaces.LogField{Key: "batch", Value: index + 1},
			interfaces.LogField{Key: "path", Value: match.Path},
			interfaces.LogField{Key: "dropped", Value: dropped},
		)
	}
	if len(records) > 0 {
		c.logger.Debug("Пачка атрибутов",
			interfaces.LogField{Key: "batch", Value: index + 1},
			interfaces.LogField{Key: "records", Value: len(records)},
			interfaces.LogField{Key: "path", Value: match.Path},
		)
	}
	return records, nil
}
