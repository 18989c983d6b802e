// Package impact turns (assembly dimension, declared unit, conversions,
// quantity, impact value) tuples into normalized impact numbers. All
// arithmetic runs on decimals; no float64 enters the chain.
package impact

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/pkg/lcax"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

// Result is one normalized impact number for one product and one
// impact row of its EPD.
type Result struct {
	AssemblyID       uuid.UUID       `json:"assembly_id"`
	EPDID            uuid.UUID       `json:"epd_id"`
	AssemblyCategory string          `json:"assembly_category"`
	MaterialCategory string          `json:"material_category"`
	Impact           lcax.Impact     `json:"impact_type"`
	Value            decimal.Decimal `json:"impact_value"`
}

var (
	hundred     = decimal.NewFromInt(100)   // cm -> m
	tenThousand = decimal.NewFromInt(10000) // cm² -> m²
)

// CalculateImpacts computes the normalized impact of one structural
// product for every impact row of its EPD.
//
// Each assembly dimension admits a set of declared units; the factor
// bridging declared unit to consumption dimension is derived per the
// table in units.CompatibleDeclaredUnits, using the EPD's kg/m^3
// conversion where the table requires one. Some EPDs are not reported
// per 1 of their declared unit (e.g. per 1.5 kg), hence the
// normalization by declared amount. Division by total floor area turns
// the result into a per-m² building metric.
//
// BoQ products ignore the dimension argument: the dimension implied by
// the input unit decides the rule, and since BoQ products are only
// saved with input unit equal to declared unit, no conversion is ever
// applied on that path.
func CalculateImpacts(
	dimension units.Dimension,
	assemblyQuantity decimal.Decimal,
	totalFloorArea decimal.Decimal,
	assembly *catalog.Assembly,
	p *catalog.StructuralProduct,
) ([]Result, error) {
	if p.EPD == nil {
		return nil, fmt.Errorf("product has no EPD")
	}
	if !p.EPD.DeclaredAmount.IsPositive() {
		return nil, fmt.Errorf("epd '%s': declared_amount must be positive", p.EPD.Name)
	}
	if !totalFloorArea.IsPositive() {
		return nil, fmt.Errorf("total_floor_area must be positive, got %s", totalFloorArea)
	}

	if assembly != nil && assembly.IsBoQ {
		d, err := units.ImplicitDimension(p.InputUnit)
		if err != nil {
			return nil, err
		}
		dimension = d
	}

	quantity := p.Quantity
	if p.InputUnit == units.UnitPercent {
		// Percent inputs represent a share, e.g. "30% of volume".
		quantity = quantity.Div(hundred)
	}

	factor, err := scalingFactor(dimension, assemblyQuantity, quantity, p.EPD)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(p.EPD.Impacts))
	for _, ei := range p.EPD.Impacts {
		r := Result{
			EPDID:            p.EPD.ID,
			MaterialCategory: p.EPD.Category,
			Impact:           ei.Impact,
			Value: factor.
				Mul(ei.Value).
				Div(p.EPD.DeclaredAmount).
				Div(totalFloorArea),
		}
		if assembly != nil {
			r.AssemblyID = assembly.ID
			r.AssemblyCategory = assembly.Category
		}
		results = append(results, r)
	}
	return results, nil
}

// scalingFactor is the exhaustive (dimension × declared unit) rule
// table. An unmatched pair is a hard error; there is no default branch.
func scalingFactor(
	dimension units.Dimension,
	assemblyQuantity, quantity decimal.Decimal,
	epd *lcax.EPD,
) (decimal.Decimal, error) {
	declared := epd.DeclaredUnit

	// Pieces EPDs scale by the raw count across all dimensions.
	if declared == units.UnitPCS {
		return quantity, nil
	}

	switch {
	case dimension == units.DimensionArea && declared == units.UnitM2:
		// total_m2 * number of layers
		return assemblyQuantity.Mul(quantity), nil
	case dimension == units.DimensionArea && declared == units.UnitM3:
		// total_m2 * thickness in cm -> m
		return assemblyQuantity.Mul(quantity).Div(hundred), nil
	case dimension == units.DimensionArea && declared == units.UnitKG:
		// total_m2 * thickness * gross density
		density, err := requireConversion(epd, units.ConversionKgPerM3)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return assemblyQuantity.Mul(quantity).Mul(density).Div(hundred), nil

	case dimension == units.DimensionVolume && declared == units.UnitM3:
		return assemblyQuantity.Mul(quantity), nil
	case dimension == units.DimensionVolume && declared == units.UnitKG:
		density, err := requireConversion(epd, units.ConversionKgPerM3)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return assemblyQuantity.Mul(quantity).Mul(density), nil

	case dimension == units.DimensionMass && declared == units.UnitKG:
		return assemblyQuantity.Mul(quantity), nil
	case dimension == units.DimensionMass && declared == units.UnitM3:
		density, err := requireConversion(epd, units.ConversionKgPerM3)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return assemblyQuantity.Mul(quantity).Div(density), nil

	case dimension == units.DimensionLength && declared == units.UnitM:
		// total_length * number of full-length elements
		return assemblyQuantity.Mul(quantity), nil
	case dimension == units.DimensionLength && declared == units.UnitM3:
		// total_length * cross-section in cm² -> m²
		return assemblyQuantity.Mul(quantity).Div(tenThousand), nil
	case dimension == units.DimensionLength && declared == units.UnitKG:
		density, err := requireConversion(epd, units.ConversionKgPerM3)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return assemblyQuantity.Mul(quantity).Mul(density).Div(tenThousand), nil
	}

	return decimal.Decimal{}, &UnsupportedCombinationError{
		Dimension:    dimension,
		DeclaredUnit: declared,
	}
}

func requireConversion(epd *lcax.EPD, key string) (decimal.Decimal, error) {
	v, ok := units.FetchConversion(epd.Conversions, key)
	if !ok {
		return decimal.Decimal{}, &MissingConversionError{Key: key, EPDName: epd.Name}
	}
	return v, nil
}
