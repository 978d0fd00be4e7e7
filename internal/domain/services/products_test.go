package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
)

func TestPackageVolumeM3(t *testing.T) {
	num := payload.MustParse
	tests := []struct {
		name          string
		d, w, h       payload.Node
		unit          string
		want          *float64
		wantKnownUnit bool
	}{
		{"mm", num("100"), num("200"), num("300"), "mm", ptr(0.006), true},
		{"cm", num("10"), num("20"), num("30"), "cm", ptr(0.006), true},
		{"m", num("1"), num("2"), num("3"), "M", ptr(6.0), true},
		{"numeric strings", num(`"100"`), num(`" 200 "`), num("300"), "mm", ptr(0.006), true},
		{"unknown unit is raw", num("1"), num("2"), num("3"), "in", ptr(6.0), false},
		{"missing dimension", num("1"), payload.Node{}, num("3"), "mm", nil, true},
		{"non numeric", num("1"), num(`"abc"`), num("3"), "mm", nil, true},
		{"bool is not a number", num("1"), num("true"), num("3"), "mm", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := PackageVolumeM3(tt.d, tt.w, tt.h, tt.unit)
			require.Equal(t, tt.wantKnownUnit, known)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestBuildProductRows(t *testing.T) {
	records := payload.MustParse(`[
		{"id": 1, "sku": 111, "barcode": "460", "name": "Лампа", "offer_id": "A-1",
		 "depth": 100, "width": 200, "height": 300, "weight": 50, "weight_unit": "g",
		 "description_category_id": 17},
		{"product_id": 2, "depth": 10, "width": 20, "height": 30, "dimension_unit": "cm"},
		{"id": 3, "depth": "x", "width": 1, "height": 1, "dimension_unit": ""}
	]`).Items()

	rows := BuildProductRows(records, logger.NewNopLogger())
	require.Len(t, rows, 3)

	require.Equal(t, "1", rows[0].ID.String())
	require.Equal(t, "mm", rows[0].DimensionUnit)
	require.InDelta(t, 0.006, *rows[0].VolumeM3, 1e-12)
	require.Equal(t, 50.0, *rows[0].PackageWeight)
	require.Equal(t, "17", rows[0].CategoryID.String())

	require.Equal(t, "2", rows[1].ID.String())
	require.Equal(t, "cm", rows[1].DimensionUnit)
	require.InDelta(t, 0.006, *rows[1].VolumeM3, 1e-12)
	require.Nil(t, rows[1].PackageWeight)

	require.Equal(t, "mm", rows[2].DimensionUnit)
	require.Nil(t, rows[2].VolumeM3)
	require.Nil(t, rows[2].PackageDepth)

	b, err := json.Marshal(rows[1])
	require.NoError(t, err)
	require.Contains(t, string(b), `"sku":null`)
	require.Contains(t, string(b), `"barcode":null`)
}

func TestBuildProductRows_WarnsOncePerUnknownUnit(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := logger.NewFromZap(zap.New(core), zap.NewAtomicLevelAt(zap.WarnLevel))

	records := payload.MustParse(`[
		{"id": 1, "depth": 1, "width": 1, "height": 2, "dimension_unit": "in"},
		{"id": 2, "depth": 1, "width": 1, "height": 3, "dimension_unit": "in"},
		{"id": 3, "depth": 1, "width": 1, "height": 4, "dimension_unit": "ft"}
	]`).Items()

	rows := BuildProductRows(records, log)
	require.Equal(t, 3.0, *rows[1].VolumeM3)
	require.Equal(t, 2, logs.Len())
}

func TestBuildCharacteristicRows(t *testing.T) {
	records := payload.MustParse(`[
		{"id": 5, "sku": 555, "name": "Щетка", "offer_id": "W-5",
		 "depth": 100.9, "width": "200", "height": 300, "weight": 12.5,
		 "weight_unit": "g", "description_category_id": 9}
	]`).Items()

	rows := BuildCharacteristicRows(records, logger.NewNopLogger())
	require.Len(t, rows, 1)
	r := rows[0]

	require.Nil(t, r.ID)
	require.Equal(t, "5", r.ProductID.String())
	require.Equal(t, int64(100), *r.PackageDepth)
	require.Equal(t, int64(200), *r.PackageWidth)
	require.Equal(t, int64(12), *r.PackageWeight)
	require.Equal(t, "W-5", r.PartNumber.String())
	require.Equal(t, "mm", r.DimensionUnit)

	var got map[string]any
	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &got))
	require.Nil(t, got["brand"])
	require.Contains(t, got, "hazard_class")
	require.Contains(t, got, "vat_rate")
}

func ptr(v float64) *float64 { return &v }
