package models

import (
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
)

// ProductRow строка таблицы products: товар с габаритами упаковки и объемом
type ProductRow struct {
	ID            payload.Node `json:"id"`
	SKU           payload.Node `json:"sku"`
	Barcode       payload.Node `json:"barcode"`
	Name          payload.Node `json:"name"`
	VolumeM3      *float64     `json:"volume_m3"`
	OfferID       payload.Node `json:"offer_id"`
	PackageDepth  *float64     `json:"package_depth"`
	PackageWidth  *float64     `json:"package_width"`
	PackageHeight *float64     `json:"package_height"`
	DimensionUnit string       `json:"dimension_unit"`
	PackageWeight *float64     `json:"package_weight"`
	WeightUnit    payload.Node `json:"weight_unit"`
	CategoryID    payload.Node `json:"category_id"`
}

// CharacteristicRow строка таблицы characteristics.
// Поля, которых нет в ответе атрибутов, всегда null.
type CharacteristicRow struct {
	ID            *int64       `json:"id"` // автоинкремент в БД получателя
	ProductID     payload.Node `json:"product_id"`
	SKU           payload.Node `json:"sku"`
	PackageDepth  *int64       `json:"package_depth"`
	PackageWidth  *int64       `json:"package_width"`
	PackageHeight *int64       `json:"package_height"`
	PackageWeight *int64       `json:"package_weight"`
	WeightUnit    payload.Node `json:"weight_unit"`
	VATRate       *float64     `json:"vat_rate"`
	CategoryID    payload.Node `json:"category_id"`
	Name          payload.Node `json:"name"`

	Brand           *string  `json:"brand"`
	ModelName       *string  `json:"model_name"`
	Quantity        *int64   `json:"quantity"`
	ItemWeight      *float64 `json:"item_weight"`
	UnitsPerPackage *int64   `json:"units_per_package"`
	Annotation      *string  `json:"annotation"`
	GroupName       *string  `json:"group_name"`

	PartNumber payload.Node `json:"part_number"`

	TapeLength           *float64 `json:"tape_length"`
	TapeWidth            *float64 `json:"tape_width"`
	Fastening            *string  `json:"fastening"`
	Color                *string  `json:"color"`
	Material             *string  `json:"material"`
	VehicleType          *string  `json:"vehicle_type"`
	ReleaseForm          *string  `json:"release_form"`
	CountryOfOrigin      *string  `json:"country_of_origin"`
	FactoryPackages      *int64   `json:"factory_packages"`
	TNVEDCodes           *string  `json:"tnved_codes"`
	OEMNumber            *string  `json:"oem_number"`
	AltPartNumber        *string  `json:"alt_part_number"`
	LampType             *string  `json:"lamp_type"`
	SocketSize           *string  `json:"socket_size"`
	LampCount            *int64   `json:"lamp_count"`
	LampPurpose          *string  `json:"lamp_purpose"`
	PowerSupply          *string  `json:"power_supply"`
	LampPower            *float64 `json:"lamp_power"`
	PackageContents      *string  `json:"package_contents"`
	PartType             *string  `json:"part_type"`
	InstallSide          *string  `json:"install_side"`
	SpecialVehicleType   *string  `json:"special_vehicle_type"`
	PurchaseMultiplicity *int64   `json:"purchase_multiplicity"`
	HazardClass          *string  `json:"hazard_class"`
	InstallLocation      *string  `json:"install_location"`

	VolumeM3      *float64 `json:"volume_m3"`
	DimensionUnit string   `json:"dimension_unit"`
}
