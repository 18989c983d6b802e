package catalog

import (
	"fmt"
	"strings"

	"github.com/terminal-bench/lcaengine/pkg/lcax"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

// ValidationError reports a product whose (declared unit, conversions,
// input unit) combination is not legal for its assembly's dimension.
// It blocks persistence; the save transaction must be rejected.
type ValidationError struct {
	EPDName      string
	DeclaredUnit units.Unit
	InputUnit    units.Unit
	Dimension    units.Dimension
	Expected     []units.Unit
	Reason       string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "product with EPD '%s' (declared unit '%s') is invalid: %s",
		e.EPDName, e.DeclaredUnit, e.Reason)
	if len(e.Expected) > 0 {
		exp := make([]string, len(e.Expected))
		for i, u := range e.Expected {
			exp[i] = string(u)
		}
		fmt.Fprintf(&b, " (input unit '%s', expected %s)", e.InputUnit, strings.Join(exp, " or "))
	}
	return b.String()
}

// ValidateProduct is the gate invoked on every structural product
// create or update, before anything is written. BoQ assemblies skip the
// dimension table entirely; a declared unit matching the literal input
// unit is accepted without dimension reasoning.
func ValidateProduct(assembly *Assembly, epd *lcax.EPD, inputUnit units.Unit) error {
	if assembly.IsBoQ {
		if inputUnit != epd.DeclaredUnit {
			return &ValidationError{
				EPDName:      epd.Name,
				DeclaredUnit: epd.DeclaredUnit,
				InputUnit:    inputUnit,
				Expected:     []units.Unit{epd.DeclaredUnit},
				Reason:       "BoQ products must be entered in the EPD's declared unit",
			}
		}
		return nil
	}

	dim := assembly.Dimension
	if dim == units.DimensionNone {
		return &ValidationError{
			EPDName:      epd.Name,
			DeclaredUnit: epd.DeclaredUnit,
			InputUnit:    inputUnit,
			Reason:       "assembly has no dimension",
		}
	}

	if !units.Compatible(dim, epd.DeclaredUnit, epd.Conversions) {
		return &ValidationError{
			EPDName:      epd.Name,
			DeclaredUnit: epd.DeclaredUnit,
			InputUnit:    inputUnit,
			Dimension:    dim,
			Reason:       fmt.Sprintf("EPD is not usable for a %s assembly", dim),
		}
	}

	info, err := units.InputInfoFor(dim, epd.DeclaredUnit)
	if err != nil {
		return err
	}
	if inputUnit != info.Unit {
		return &ValidationError{
			EPDName:      epd.Name,
			DeclaredUnit: epd.DeclaredUnit,
			InputUnit:    inputUnit,
			Dimension:    dim,
			Expected:     []units.Unit{info.Unit},
			Reason:       fmt.Sprintf("quantity must be entered as '%s'", info.Prompt),
		}
	}
	return nil
}
