package units

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conv(unit, value string) Conversion {
	return Conversion{Unit: unit, Value: decimal.RequireFromString(value)}
}

func TestFetchConversion(t *testing.T) {
	t.Run("should return first match", func(t *testing.T) {
		conversions := []Conversion{
			conv("kg/m^3", "2200"),
			conv("kg/m^3", "9999"),
			conv("kg/m", "300"),
		}
		v, ok := FetchConversion(conversions, "kg/m^3")
		require.True(t, ok)
		assert.True(t, v.Equal(decimal.RequireFromString("2200")))
	})

	t.Run("should report absent key", func(t *testing.T) {
		_, ok := FetchConversion([]Conversion{conv("kg/m", "300")}, "kg/m^3")
		assert.False(t, ok)
	})

	t.Run("should handle empty list", func(t *testing.T) {
		_, ok := FetchConversion(nil, "kg/m^3")
		assert.False(t, ok)
	})
}

func TestCompatible(t *testing.T) {
	density := []Conversion{conv("kg/m^3", "2200")}

	cases := []struct {
		name        string
		declared    Unit
		conversions []Conversion
		dimension   Dimension
		want        bool
	}{
		{"pcs for area", UnitPCS, nil, DimensionArea, true},
		{"pcs for length", UnitPCS, nil, DimensionLength, true},
		{"pcs for mass", UnitPCS, nil, DimensionMass, true},
		{"pcs for volume", UnitPCS, nil, DimensionVolume, true},

		{"m2 for area", UnitM2, nil, DimensionArea, true},
		{"m2 for length", UnitM2, nil, DimensionLength, false},
		{"m2 for mass", UnitM2, nil, DimensionMass, false},
		{"m2 for volume", UnitM2, nil, DimensionVolume, false},

		{"m for area", UnitM, nil, DimensionArea, false},
		{"m for length", UnitM, nil, DimensionLength, true},
		{"m for mass", UnitM, nil, DimensionMass, false},
		{"m for volume", UnitM, nil, DimensionVolume, false},

		{"kg without density for area", UnitKG, nil, DimensionArea, false},
		{"kg without density for length", UnitKG, nil, DimensionLength, false},
		{"kg without density for mass", UnitKG, nil, DimensionMass, true},
		{"kg without density for volume", UnitKG, nil, DimensionVolume, false},

		{"kg with density for area", UnitKG, density, DimensionArea, true},
		{"kg with wrong conversion for area", UnitKG, []Conversion{conv("kg/m^2", "10")}, DimensionArea, false},
		{"kg with density for length", UnitKG, density, DimensionLength, true},
		{"kg with wrong conversion for length", UnitKG, []Conversion{conv("kg/m", "10")}, DimensionLength, false},
		{"kg with density for mass", UnitKG, density, DimensionMass, true},
		{"kg with density for volume", UnitKG, density, DimensionVolume, true},

		{"m3 for area", UnitM3, nil, DimensionArea, true},
		{"m3 for length", UnitM3, nil, DimensionLength, true},
		{"m3 without density for mass", UnitM3, nil, DimensionMass, false},
		{"m3 with density for mass", UnitM3, density, DimensionMass, true},
		{"m3 for volume", UnitM3, nil, DimensionVolume, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compatible(tc.dimension, tc.declared, tc.conversions))
		})
	}
}

func TestCompatibleDeclaredUnits(t *testing.T) {
	assert.ElementsMatch(t, []Unit{UnitM3, UnitM2, UnitKG, UnitPCS}, CompatibleDeclaredUnits(DimensionArea))
	assert.ElementsMatch(t, []Unit{UnitM3, UnitKG, UnitPCS}, CompatibleDeclaredUnits(DimensionVolume))
	assert.ElementsMatch(t, []Unit{UnitM3, UnitKG, UnitPCS}, CompatibleDeclaredUnits(DimensionMass))
	assert.ElementsMatch(t, []Unit{UnitM3, UnitM, UnitKG, UnitPCS}, CompatibleDeclaredUnits(DimensionLength))
	assert.Nil(t, CompatibleDeclaredUnits(DimensionNone))
}

func TestInputInfoFor(t *testing.T) {
	cases := []struct {
		name      string
		dimension Dimension
		declared  Unit
		prompt    string
		unit      Unit
	}{
		{"pieces same everywhere", DimensionMass, UnitPCS, "Quantity", UnitPCS},
		{"area with m2 counts layers", DimensionArea, UnitM2, "Number of layers", UnitUnknown},
		{"area with m3 takes thickness", DimensionArea, UnitM3, "Layer thickness", UnitCM},
		{"area with kg takes thickness", DimensionArea, UnitKG, "Layer thickness", UnitCM},
		{"volume takes a share", DimensionVolume, UnitM3, "Share of volume", UnitPercent},
		{"mass takes kilograms", DimensionMass, UnitKG, "Share of mass", UnitKG},
		{"length with m counts elements", DimensionLength, UnitM, "Number of full-length elements", UnitUnknown},
		{"length with kg takes cross-section", DimensionLength, UnitKG, "Share of cross-section", UnitCM2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := InputInfoFor(tc.dimension, tc.declared)
			require.NoError(t, err)
			assert.Equal(t, tc.prompt, info.Prompt)
			assert.Equal(t, tc.unit, info.Unit)
		})
	}

	t.Run("should reject unknown pair", func(t *testing.T) {
		_, err := InputInfoFor(DimensionNone, UnitM2)
		require.Error(t, err)
		var combo *UnsupportedCombinationError
		assert.ErrorAs(t, err, &combo)
	})
}

func TestImplicitDimension(t *testing.T) {
	cases := map[Unit]Dimension{
		UnitPCS: DimensionNone,
		UnitM:   DimensionLength,
		UnitM2:  DimensionArea,
		UnitM3:  DimensionVolume,
		UnitKG:  DimensionMass,
	}
	for unit, want := range cases {
		d, err := ImplicitDimension(unit)
		require.NoError(t, err)
		assert.Equal(t, want, d)
	}

	t.Run("should reject units without implied dimension", func(t *testing.T) {
		_, err := ImplicitDimension(UnitCM)
		require.Error(t, err)
		var combo *UnsupportedCombinationError
		require.ErrorAs(t, err, &combo)
		assert.Equal(t, UnitCM, combo.InputUnit)
		assert.Contains(t, err.Error(), "input_unit 'cm'")
	})
}
