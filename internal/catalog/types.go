// Package catalog holds the building/assembly/product model and the
// validation gate that decides whether a product may be persisted.
package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terminal-bench/lcaengine/pkg/lcax"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

// AssemblyMode distinguishes quick-assessment from detailed assemblies.
type AssemblyMode string

const (
	ModeGeneric AssemblyMode = "generic"
	ModeCustom  AssemblyMode = "custom"
)

// Assembly is a structural element or BoQ line consisting of products.
// Dimension is required unless IsBoQ is set; BoQ assemblies bypass all
// dimension reasoning.
type Assembly struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Mode      AssemblyMode        `json:"mode"`
	Dimension units.Dimension     `json:"dimension"`
	IsBoQ     bool                `json:"is_boq"`
	Category  string              `json:"category"` // classification, e.g. "Outer walls"
	Products  []StructuralProduct `json:"products"`
}

// StructuralProduct joins an EPD to an assembly with the quantity the
// user entered and the unit it was entered in. The input unit may
// differ from the EPD's declared unit; the gate checks the combination
// before the product is persisted.
type StructuralProduct struct {
	ID          uuid.UUID       `json:"id"`
	EPD         *lcax.EPD       `json:"epd"`
	Quantity    decimal.Decimal `json:"quantity"`
	InputUnit   units.Unit      `json:"input_unit"`
	Description string          `json:"description,omitempty"`
}

// OperationalProduct joins an EPD to a building directly, for energy
// carriers (fuel, electricity). No assembly, no dimension.
type OperationalProduct struct {
	ID          uuid.UUID       `json:"id"`
	EPD         *lcax.EPD       `json:"epd"`
	Quantity    decimal.Decimal `json:"quantity"`
	InputUnit   units.Unit      `json:"input_unit"`
	Description string          `json:"description,omitempty"`
}

// BuildingAssembly attaches an assembly to a building with the amount
// of that assembly the building consumes (m², m³, kg or m, depending
// on the assembly dimension).
type BuildingAssembly struct {
	Assembly *Assembly       `json:"assembly"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Building owns its structural components (via assemblies) and its
// operational products.
type Building struct {
	ID                  uuid.UUID            `json:"id"`
	Name                string               `json:"name"`
	TotalFloorArea      decimal.Decimal      `json:"total_floor_area"`
	ReferencePeriod     decimal.Decimal      `json:"reference_period"` // years
	Components          []BuildingAssembly   `json:"components"`
	OperationalProducts []OperationalProduct `json:"operational_products"`
}

// EffectiveDimension is the dimension product validation and impact
// calculation run against: none for BoQ assemblies.
func (a *Assembly) EffectiveDimension() units.Dimension {
	if a.IsBoQ {
		return units.DimensionNone
	}
	return a.Dimension
}
