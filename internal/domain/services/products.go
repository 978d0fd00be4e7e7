package services

import (
	"strings"

	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// DefaultDimensionUnit единица габаритов, если API ее не указал
const DefaultDimensionUnit = "mm"

var unitDivisors = map[string]float64{
	"mm": 1e9,
	"cm": 1e6,
	"m":  1,
}

// PackageVolumeM3 объем упаковки в кубометрах.
// Любой нечисловой габарит дает nil. Для неизвестной единицы возвращается
// произведение без перевода и known=false.
func PackageVolumeM3(depth, width, height payload.Node, unit string) (volume *float64, known bool) {
	d, ok1 := depth.Float()
	w, ok2 := width.Float()
	h, ok3 := height.Float()
	if !ok1 || !ok2 || !ok3 {
		return nil, true
	}

	v := d * w * h
	divisor, known := unitDivisors[strings.ToLower(strings.TrimSpace(unit))]
	if known {
		v /= divisor
	}
	return &v, known
}

func dimensionUnit(rec payload.Node) string {
	if u := rec.Field("dimension_unit"); u.Truthy() {
		return u.String()
	}
	return DefaultDimensionUnit
}

// unitWarner пишет предупреждение один раз на каждую неизвестную единицу
type unitWarner struct {
	logger interfaces.LoggerPort
	seen   map[string]struct{}
}

func newUnitWarner(logger interfaces.LoggerPort) *unitWarner {
	return &unitWarner{logger: logger, seen: make(map[string]struct{})}
}

func (u *unitWarner) unknown(unit string, rec payload.Node) {
	if _, ok := u.seen[unit]; ok {
		return
	}
	u.seen[unit] = struct{}{}
	u.logger.Warn("Неизвестная единица габаритов, объем не переведен в м3",
		interfaces.LogField{Key: "dimension_unit", Value: unit},
		interfaces.LogField{Key: "product_id", Value: rec.Field("id").String()},
	)
}

// BuildProductRows строит таблицу products из записей атрибутов
func BuildProductRows(records []payload.Node, logger interfaces.LoggerPort) []models.ProductRow {
	warn := newUnitWarner(logger)
	rows := make([]models.ProductRow, 0, len(records))

	for _, rec := range records {
		depth, width, height := rec.Field("depth"), rec.Field("width"), rec.Field("height")
		unit := dimensionUnit(rec)

		volume, known := PackageVolumeM3(depth, width, height, unit)
		if !known {
			warn.unknown(unit, rec)
		}

		rows = append(rows, models.ProductRow{
			ID:            rec.Field("id").Or(rec.Field("product_id")),
			SKU:           rec.Field("sku"),
			Barcode:       rec.Field("barcode"),
			Name:          rec.Field("name"),
			VolumeM3:      volume,
			OfferID:       rec.Field("offer_id"),
			PackageDepth:  payload.FloatPtr(depth),
			PackageWidth:  payload.FloatPtr(width),
			PackageHeight: payload.FloatPtr(height),
			DimensionUnit: unit,
			PackageWeight: payload.FloatPtr(rec.Field("weight")),
			WeightUnit:    rec.Field("weight_unit"),
			CategoryID:    rec.Field("description_category_id"),
		})
	}
	return rows
}

// BuildCharacteristicRows строит таблицу characteristics: габариты и вес целыми,
// поля, которых нет в API, остаются null
func BuildCharacteristicRows(records []payload.Node, logger interfaces.LoggerPort) []models.CharacteristicRow {
	warn := newUnitWarner(logger)
	rows := make([]models.CharacteristicRow, 0, len(records))

	for _, rec := range records {
		depth, width, height := rec.Field("depth"), rec.Field("width"), rec.Field("height")
		unit := dimensionUnit(rec)

		volume, known := PackageVolumeM3(depth, width, height, unit)
		if !known {
			warn.unknown(unit, rec)
		}

		rows = append(rows, models.CharacteristicRow{
			ProductID:     rec.Field("id"),
			SKU:           rec.Field("sku"),
			PackageDepth:  payload.IntPtr(depth),
			PackageWidth:  payload.IntPtr(width),
			PackageHeight: payload.IntPtr(height),
			PackageWeight: payload.IntPtr(rec.Field("weight")),
			WeightUnit:    rec.Field("weight_unit"),
			CategoryID:    rec.Field("description_category_id"),
			Name:          rec.Field("name"),
			PartNumber:    rec.Field("offer_id"),
			VolumeM3:      volume,
			DimensionUnit: unit,
		})
	}
	return rows
}
