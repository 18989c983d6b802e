package units

import "fmt"

// UnsupportedCombinationError is returned when a (dimension, declared
// unit) pair has no defined rule, or an input unit implies no
// dimension. There is deliberately no fallback: an unmatched pair is a
// hard error, not a silent no-op.
type UnsupportedCombinationError struct {
	Dimension    Dimension
	DeclaredUnit Unit
	InputUnit    Unit
}

func (e *UnsupportedCombinationError) Error() string {
	if e.InputUnit != "" {
		return fmt.Sprintf("unsupported combination: input_unit '%s' implies no dimension",
			e.InputUnit)
	}
	return fmt.Sprintf("unsupported combination: dimension '%s', declared_unit '%s'",
		e.Dimension, e.DeclaredUnit)
}

// CompatibleDeclaredUnits lists the declared units an EPD may have to be
// usable for an assembly of the given dimension. EPDs declared in kg
// (and m3 EPDs consumed by mass assemblies) additionally need a kg/m^3
// conversion; see Compatible.
//
//	| Declared unit | Area | Volume | Mass            | Length |
//	|---------------|------|--------|-----------------|--------|
//	| m3            | yes  | yes    | w. volume density | yes  |
//	| m2            | yes  | no     | no              | no     |
//	| m             | no   | no     | no              | yes    |
//	| kg            | w. volume density | w. volume density | yes | w. volume density |
//	| pieces        | yes  | yes    | yes             | yes    |
func CompatibleDeclaredUnits(dimension Dimension) []Unit {
	switch dimension {
	case DimensionArea:
		return []Unit{UnitM3, UnitM2, UnitKG, UnitPCS}
	case DimensionVolume:
		return []Unit{UnitM3, UnitKG, UnitPCS}
	case DimensionMass:
		return []Unit{UnitM3, UnitKG, UnitPCS}
	case DimensionLength:
		return []Unit{UnitM3, UnitM, UnitKG, UnitPCS}
	default:
		return nil
	}
}

// Compatible decides whether an EPD with the given declared unit and
// conversions is usable for an assembly of the given dimension. It is
// used both for catalog filtering and for validating products before
// they are persisted.
func Compatible(dimension Dimension, declaredUnit Unit, conversions []Conversion) bool {
	allowed := false
	for _, u := range CompatibleDeclaredUnits(dimension) {
		if u == declaredUnit {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	// kg EPDs need a gross density to bridge into any non-mass
	// dimension; m3 EPDs need one to bridge into mass.
	switch {
	case declaredUnit == UnitKG && dimension != DimensionMass:
		return HasConversion(conversions, ConversionKgPerM3)
	case declaredUnit == UnitM3 && dimension == DimensionMass:
		return HasConversion(conversions, ConversionKgPerM3)
	}
	return true
}

// InputInfo describes how the quantity of a product is entered for one
// (dimension, declared unit) pair: the prompt shown to the user and the
// unit the entered quantity is interpreted in. UnitUnknown marks a
// unitless count (layers, full-length elements).
type InputInfo struct {
	Prompt string
	Unit   Unit
}

// InputInfoFor returns the input prompt and unit for a dimension and
// declared unit. The pair must be one the compatibility table admits;
// anything else returns an UnsupportedCombinationError.
func InputInfoFor(dimension Dimension, declaredUnit Unit) (InputInfo, error) {
	switch {
	case declaredUnit == UnitPCS:
		// Pieces EPDs are treated the same across all dimensions.
		return InputInfo{Prompt: "Quantity", Unit: UnitPCS}, nil
	case dimension == DimensionArea && declaredUnit == UnitM2:
		return InputInfo{Prompt: "Number of layers", Unit: UnitUnknown}, nil
	case dimension == DimensionArea:
		return InputInfo{Prompt: "Layer thickness", Unit: UnitCM}, nil
	case dimension == DimensionVolume:
		return InputInfo{Prompt: "Share of volume", Unit: UnitPercent}, nil
	case dimension == DimensionMass:
		return InputInfo{Prompt: "Share of mass", Unit: UnitKG}, nil
	case dimension == DimensionLength && declaredUnit == UnitM:
		return InputInfo{Prompt: "Number of full-length elements", Unit: UnitUnknown}, nil
	case dimension == DimensionLength:
		return InputInfo{Prompt: "Share of cross-section", Unit: UnitCM2}, nil
	}
	return InputInfo{}, &UnsupportedCombinationError{Dimension: dimension, DeclaredUnit: declaredUnit}
}

// ImplicitDimension derives the dimension implied by an input unit.
// BoQ assemblies carry no dimension of their own; the unit the quantity
// was entered in decides which factor rule applies.
func ImplicitDimension(inputUnit Unit) (Dimension, error) {
	switch inputUnit {
	case UnitPCS:
		return DimensionNone, nil
	case UnitM:
		return DimensionLength, nil
	case UnitM2:
		return DimensionArea, nil
	case UnitM3:
		return DimensionVolume, nil
	case UnitKG:
		return DimensionMass, nil
	}
	return DimensionNone, &UnsupportedCombinationError{InputUnit: inputUnit}
}
