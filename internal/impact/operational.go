package impact

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/pkg/lcax"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

// OperationalResult holds the per-m² stage-B6 impacts of one energy
// carrier. A nil field means the EPD carries no row for that indicator;
// operational EPDs may legitimately lack one of the two.
type OperationalResult struct {
	GWPB6   *decimal.Decimal `json:"gwp_b6"`
	PENRTB6 *decimal.Decimal `json:"penrt_b6"`
}

var thousand = decimal.NewFromInt(1000) // liter -> m³

// CalculateOperational computes the stage-B6 impacts of one
// operational product, normalized by the EPD's declared amount and the
// building's total floor area. Only the (declared unit, input unit)
// pairs below are defined; anything else is a hard error.
//
//	(kwh, kwh):   factor = quantity
//	(kwh, m3):    factor = quantity * kWh/kg * kg/m³
//	(kwh, liter): factor = quantity * kWh/kg * kg/m³ / 1000
//	(kwh, kg):    factor = quantity * kWh/kg
func CalculateOperational(p *catalog.OperationalProduct, totalFloorArea decimal.Decimal) (OperationalResult, error) {
	if p.EPD == nil {
		return OperationalResult{}, fmt.Errorf("operational product has no EPD")
	}
	if !p.EPD.DeclaredAmount.IsPositive() {
		return OperationalResult{}, fmt.Errorf("epd '%s': declared_amount must be positive", p.EPD.Name)
	}
	if !totalFloorArea.IsPositive() {
		return OperationalResult{}, fmt.Errorf("total_floor_area must be positive, got %s", totalFloorArea)
	}

	factor, err := operationalFactor(p)
	if err != nil {
		return OperationalResult{}, err
	}

	res := OperationalResult{}
	if v, ok := p.EPD.ImpactValue(lcax.CategoryGWP, lcax.StageB6); ok {
		gwp := factor.Mul(v).Div(p.EPD.DeclaredAmount).Div(totalFloorArea)
		res.GWPB6 = &gwp
	}
	if v, ok := p.EPD.ImpactValue(lcax.CategoryPENRT, lcax.StageB6); ok {
		penrt := factor.Mul(v).Div(p.EPD.DeclaredAmount).Div(totalFloorArea)
		res.PENRTB6 = &penrt
	}
	return res, nil
}

func operationalFactor(p *catalog.OperationalProduct) (decimal.Decimal, error) {
	declared := p.EPD.DeclaredUnit

	switch {
	case declared == units.UnitKWH && p.InputUnit == units.UnitKWH:
		return p.Quantity, nil

	case declared == units.UnitKWH && p.InputUnit == units.UnitM3:
		kwhPerKg, err := energyPerKg(p.EPD)
		if err != nil {
			return decimal.Decimal{}, err
		}
		kgPerM3, err := requireConversion(p.EPD, units.ConversionKgPerM3)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return p.Quantity.Mul(kwhPerKg).Mul(kgPerM3), nil

	case declared == units.UnitKWH && (p.InputUnit == units.UnitL || p.InputUnit == units.UnitLiter):
		kwhPerKg, err := energyPerKg(p.EPD)
		if err != nil {
			return decimal.Decimal{}, err
		}
		kgPerM3, err := requireConversion(p.EPD, units.ConversionKgPerM3)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return p.Quantity.Mul(kwhPerKg).Mul(kgPerM3).Div(thousand), nil

	case declared == units.UnitKWH && p.InputUnit == units.UnitKG:
		kwhPerKg, err := energyPerKg(p.EPD)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return p.Quantity.Mul(kwhPerKg), nil
	}

	return decimal.Decimal{}, &UnsupportedCombinationError{
		DeclaredUnit: declared,
		InputUnit:    p.InputUnit,
	}
}

// energyPerKg resolves the kWh-per-kg conversion. Ökobaudat-sourced
// EPDs name this conversion "-" instead of "kg", hence the fallback.
func energyPerKg(epd *lcax.EPD) (decimal.Decimal, error) {
	if v, ok := units.FetchConversion(epd.Conversions, units.ConversionKg); ok {
		return v, nil
	}
	if v, ok := units.FetchConversion(epd.Conversions, units.ConversionDash); ok {
		return v, nil
	}
	return decimal.Decimal{}, &MissingConversionError{Key: units.ConversionKg, EPDName: epd.Name}
}
