// Package lcax models Environmental Product Declarations and their
// impact rows, following the LCAx exchange vocabulary the catalog
// imports from (ILCD+EPD sources such as Ökobaudat).
package lcax

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terminal-bench/lcaengine/pkg/units"
)

// ImpactCategory identifies one environmental indicator.
type ImpactCategory string

const (
	CategoryGWP    ImpactCategory = "gwp"
	CategoryGWPFos ImpactCategory = "gwp-fos"
	CategoryGWPBio ImpactCategory = "gwp-bio"
	CategoryGWPLul ImpactCategory = "gwp-lul"
	CategoryODP    ImpactCategory = "odp"
	CategoryPOCP   ImpactCategory = "pocp"
	CategoryAP     ImpactCategory = "ap"
	CategoryEPTer  ImpactCategory = "ep-terrestrial"
	CategoryEPFw   ImpactCategory = "ep-freshwater"
	CategoryEPMar  ImpactCategory = "ep-marine"
	CategoryWDP    ImpactCategory = "wdp"
	CategoryADPE   ImpactCategory = "adpe"
	CategoryADPF   ImpactCategory = "adpf"
	CategoryPERE   ImpactCategory = "pere"
	CategoryPERM   ImpactCategory = "perm"
	CategoryPERT   ImpactCategory = "pert"
	CategoryPENRE  ImpactCategory = "penre"
	CategoryPENRM  ImpactCategory = "penrm"
	CategoryPENRT  ImpactCategory = "penrt"
	CategorySM     ImpactCategory = "sm"
	CategorySF     ImpactCategory = "sf"
	CategoryNRSF   ImpactCategory = "nrsf"
	CategoryFW     ImpactCategory = "fw"
	CategoryHWD    ImpactCategory = "hwd"
	CategoryNHWD   ImpactCategory = "nhwd"
	CategoryRWD    ImpactCategory = "rwd"
	CategoryCRU    ImpactCategory = "cru"
	CategoryMFR    ImpactCategory = "mfr"
	CategoryMER    ImpactCategory = "mer"
	CategoryEEE    ImpactCategory = "eee"
	CategoryEET    ImpactCategory = "eet"
)

// LifeCycleStage is a phase in a product's environmental accounting.
type LifeCycleStage string

const (
	StageA0   LifeCycleStage = "a0"
	StageA1A3 LifeCycleStage = "a1a3"
	StageA4   LifeCycleStage = "a4"
	StageA5   LifeCycleStage = "a5"
	StageB1   LifeCycleStage = "b1"
	StageB2   LifeCycleStage = "b2"
	StageB3   LifeCycleStage = "b3"
	StageB4   LifeCycleStage = "b4"
	StageB5   LifeCycleStage = "b5"
	StageB6   LifeCycleStage = "b6"
	StageB7   LifeCycleStage = "b7"
	StageB8   LifeCycleStage = "b8"
	StageC1   LifeCycleStage = "c1"
	StageC2   LifeCycleStage = "c2"
	StageC3   LifeCycleStage = "c3"
	StageC4   LifeCycleStage = "c4"
	StageD    LifeCycleStage = "d"
)

// EPDType says where an EPD came from.
type EPDType string

const (
	TypeOfficial EPDType = "official" // from a verified ILCD+EPD source
	TypeCustom   EPDType = "custom"   // created by a user
	TypeGeneric  EPDType = "generic"  // representative EPD for a country
)

// indicatorUnits maps each impact category to the unit its values are
// reported in. The mapping is fixed; an impact row declaring any other
// unit is rejected at creation time.
var indicatorUnits = map[ImpactCategory]units.Unit{
	CategoryPERE:   units.UnitMJ,
	CategoryPERM:   units.UnitMJ,
	CategoryPERT:   units.UnitMJ,
	CategoryPENRE:  units.UnitMJ,
	CategoryPENRM:  units.UnitMJ,
	CategoryPENRT:  units.UnitMJ,
	CategorySM:     units.UnitKG,
	CategorySF:     units.UnitMJ,
	CategoryNRSF:   units.UnitMJ,
	CategoryFW:     units.UnitM3,
	CategoryHWD:    units.UnitKG,
	CategoryNHWD:   units.UnitKG,
	CategoryRWD:    units.UnitKG,
	CategoryCRU:    units.UnitKG,
	CategoryMFR:    units.UnitKG,
	CategoryMER:    units.UnitKG,
	CategoryEEE:    units.UnitMJ,
	CategoryEET:    units.UnitMJ,
	CategoryGWP:    units.UnitKGCO2E,
	CategoryGWPBio: units.UnitKGCO2E,
	CategoryGWPFos: units.UnitKGCO2E,
	CategoryGWPLul: units.UnitKGCO2E,
	CategoryODP:    units.UnitKGCFC11E,
	CategoryPOCP:   units.UnitKGNMVOCE,
	CategoryAP:     units.UnitMolHE,
	CategoryEPTer:  units.UnitMolNE,
	CategoryEPFw:   units.UnitKGPE,
	CategoryEPMar:  units.UnitKGNE,
	CategoryWDP:    units.UnitM3WE,
	CategoryADPE:   units.UnitKGSBE,
	CategoryADPF:   units.UnitMJ,
}

// IndicatorUnit returns the unit an impact category is reported in.
func IndicatorUnit(cat ImpactCategory) (units.Unit, bool) {
	u, ok := indicatorUnits[cat]
	return u, ok
}

// Impact identifies one (category, life-cycle stage) row of
// environmental data, e.g. GWP at stage A1-A3. Unique per pair.
type Impact struct {
	Category ImpactCategory `json:"impact_category"`
	Stage    LifeCycleStage `json:"life_cycle_stage"`
	Unit     units.Unit     `json:"unit"`
}

func (i Impact) String() string {
	return fmt.Sprintf("%s %s", i.Category, i.Stage)
}

// Validate checks that the declared unit matches the fixed
// category-to-unit mapping.
func (i Impact) Validate() error {
	expected, ok := IndicatorUnit(i.Category)
	if !ok {
		return nil
	}
	if i.Unit != expected {
		return fmt.Errorf("unit '%s' is not valid for impact category '%s', expected '%s'",
			i.Unit, i.Category, expected)
	}
	return nil
}

// EPDImpact binds one impact row to an EPD with the raw reported
// magnitude, in the impact's unit, per the EPD's declared amount of
// declared unit.
type EPDImpact struct {
	Impact Impact          `json:"impact"`
	Value  decimal.Decimal `json:"value"`
}

// EPD is the environmental footprint of one material or product.
// EPDs are shared reference data: created once by imports or user
// entry, immutable afterwards, referenced (never owned) by products.
type EPD struct {
	ID             uuid.UUID          `json:"id"`
	UUID           string             `json:"uuid"` // worldwide ILCD identifier
	Name           string             `json:"name"`
	DeclaredUnit   units.Unit         `json:"declared_unit"`
	DeclaredAmount decimal.Decimal    `json:"declared_amount"`
	Conversions    []units.Conversion `json:"conversions"`
	Category       string             `json:"category"` // material category
	Country        string             `json:"country"`
	Source         string             `json:"source"`
	Type           EPDType            `json:"type"`
	Impacts        []EPDImpact        `json:"impacts"`
}

// Validate checks the structural invariants of an EPD record.
func (e *EPD) Validate() error {
	if !e.DeclaredAmount.IsPositive() {
		return fmt.Errorf("epd %s: declared_amount must be positive, got %s", e.Name, e.DeclaredAmount)
	}
	for _, ei := range e.Impacts {
		if err := ei.Impact.Validate(); err != nil {
			return fmt.Errorf("epd %s: %w", e.Name, err)
		}
	}
	return nil
}

// ImpactValue returns the reported value for one (category, stage)
// pair, false when the EPD carries no such row.
func (e *EPD) ImpactValue(cat ImpactCategory, stage LifeCycleStage) (decimal.Decimal, bool) {
	for _, ei := range e.Impacts {
		if ei.Impact.Category == cat && ei.Impact.Stage == stage {
			return ei.Value, true
		}
	}
	return decimal.Decimal{}, false
}

// GWPSum is the raw A1-A3 global warming potential, summed over
// duplicate rows. Used for catalog listings.
func (e *EPD) GWPSum() decimal.Decimal {
	return e.stageSum(CategoryGWP, StageA1A3)
}

// PENRTSum is the raw A1-A3 non-renewable primary energy total.
func (e *EPD) PENRTSum() decimal.Decimal {
	return e.stageSum(CategoryPENRT, StageA1A3)
}

func (e *EPD) stageSum(cat ImpactCategory, stage LifeCycleStage) decimal.Decimal {
	sum := decimal.Zero
	for _, ei := range e.Impacts {
		if ei.Impact.Category == cat && ei.Impact.Stage == stage {
			sum = sum.Add(ei.Value)
		}
	}
	return sum
}
