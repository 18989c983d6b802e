// Package units holds the unit and dimension vocabulary shared by the
// EPD catalog and the impact calculator, together with the rules that
// decide which declared units are usable for which assembly dimension.
package units

import (
	"github.com/shopspring/decimal"
)

// Unit identifies a unit of measure. The values follow the LCAx
// exchange-format vocabulary used by the EPD sources.
type Unit string

const (
	UnitCM      Unit = "cm"
	UnitM       Unit = "m"
	UnitCM2     Unit = "cm2"
	UnitM2      Unit = "m2"
	UnitM3      Unit = "m3"
	UnitKG      Unit = "kg"
	UnitTonnes  Unit = "tones"
	UnitPCS     Unit = "pcs"
	UnitKWH     Unit = "kwh"
	UnitL       Unit = "l"
	UnitLiter   Unit = "liter"
	UnitKM      Unit = "km"
	UnitPercent Unit = "percent"
	UnitUnknown Unit = "unknown"

	// Indicator units reported by EPD sources.
	UnitMJ       Unit = "mj"
	UnitKGCO2E   Unit = "kgco2e"
	UnitKGCFC11E Unit = "kgcfc11e"
	UnitKGNMVOCE Unit = "kgnmvoce"
	UnitMolHE    Unit = "moleh+e"
	UnitMolNE    Unit = "molene"
	UnitKGPE     Unit = "kgpe"
	UnitKGNE     Unit = "kgne"
	UnitM3WE     Unit = "m3we"
	UnitKGSBE    Unit = "kgsbe"
)

// Dimension is the physical quantity type an assembly is measured in.
// The zero value means "no dimension" (BoQ assemblies).
type Dimension string

const (
	DimensionNone   Dimension = ""
	DimensionArea   Dimension = "area"
	DimensionVolume Dimension = "volume"
	DimensionMass   Dimension = "mass"
	DimensionLength Dimension = "length"
)

// Conversion is one side-conversion entry attached to an EPD,
// e.g. {"unit": "kg/m^3", "value": "2200"}.
type Conversion struct {
	Unit  string          `json:"unit"`
	Value decimal.Decimal `json:"value"`
}

// Conversion keys the calculator depends on. Ökobaudat-sourced EPDs
// report the kWh-per-kg conversion under "-" instead of "kg".
const (
	ConversionKgPerM3 = "kg/m^3"
	ConversionKg      = "kg"
	ConversionDash    = "-"
)

// FetchConversion returns the value of the first conversion entry whose
// unit field equals key. The second return is false when no entry
// matches; a missing required conversion is fatal to the calculation
// and must be handled by the caller, never defaulted.
func FetchConversion(conversions []Conversion, key string) (decimal.Decimal, bool) {
	for _, c := range conversions {
		if c.Unit == key {
			return c.Value, true
		}
	}
	return decimal.Decimal{}, false
}

// HasConversion reports whether a conversion entry exists for key.
func HasConversion(conversions []Conversion, key string) bool {
	_, ok := FetchConversion(conversions, key)
	return ok
}
