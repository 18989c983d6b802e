package impact

import (
	"fmt"

	"github.com/terminal-bench/lcaengine/pkg/units"
)

// UnsupportedCombinationError is returned when the factor table has no
// rule for a (dimension, declared unit) pair, or the operational chain
// has none for a (declared unit, input unit) pair. It is always fatal
// to that calculation and never silently defaulted.
type UnsupportedCombinationError struct {
	Dimension    units.Dimension
	DeclaredUnit units.Unit
	InputUnit    units.Unit
}

func (e *UnsupportedCombinationError) Error() string {
	if e.InputUnit != "" {
		return fmt.Sprintf("unsupported combination: declared_unit '%s', input_unit '%s'",
			e.DeclaredUnit, e.InputUnit)
	}
	return fmt.Sprintf("unsupported combination: dimension '%s', declared_unit '%s'",
		e.Dimension, e.DeclaredUnit)
}

// MissingConversionError is returned when the matched rule needs a
// conversion the EPD does not carry. The caller must not fall back to a
// guessed density.
type MissingConversionError struct {
	Key     string
	EPDName string
}

func (e *MissingConversionError) Error() string {
	return fmt.Sprintf("epd '%s' has no '%s' conversion required by the matched rule",
		e.EPDName, e.Key)
}
