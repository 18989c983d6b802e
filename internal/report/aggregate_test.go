package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/internal/impact"
	"github.com/terminal-bench/lcaengine/pkg/lcax"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func result(assemblyID, epdID uuid.UUID, category lcax.ImpactCategory, stage lcax.LifeCycleStage, value string) impact.Result {
	return impact.Result{
		AssemblyID:       assemblyID,
		EPDID:            epdID,
		AssemblyCategory: "Outer walls",
		MaterialCategory: "Insulation",
		Impact:           lcax.Impact{Category: category, Stage: stage},
		Value:            d(value),
	}
}

func TestAggregateStructural(t *testing.T) {
	assemblyID := uuid.New()
	epdA := uuid.New()
	epdB := uuid.New()

	t.Run("pivots gwp and penrt into one row per group", func(t *testing.T) {
		rows := AggregateStructural([]impact.Result{
			result(assemblyID, epdA, lcax.CategoryGWP, lcax.StageA1A3, "3"),
			result(assemblyID, epdA, lcax.CategoryPENRT, lcax.StageA1A3, "40"),
			result(assemblyID, epdB, lcax.CategoryGWP, lcax.StageA1A3, "7"),
		})

		require.Len(t, rows, 2)
		assert.True(t, rows[0].GWP.Equal(d("3")))
		assert.True(t, rows[0].PENRT.Equal(d("40")))
		assert.True(t, rows[1].GWP.Equal(d("7")))
		assert.True(t, rows[1].PENRT.IsZero())
		assert.Equal(t, KindStructural, rows[0].Kind)
	})

	t.Run("ignores other categories and stages", func(t *testing.T) {
		rows := AggregateStructural([]impact.Result{
			result(assemblyID, epdA, lcax.CategoryGWP, lcax.StageC3, "99"),
			result(assemblyID, epdA, lcax.CategoryODP, lcax.StageA1A3, "99"),
			result(assemblyID, epdA, lcax.CategoryGWP, lcax.StageA1A3, "1"),
		})

		require.Len(t, rows, 1)
		assert.True(t, rows[0].GWP.Equal(d("1")))
	})

	t.Run("duplicate results are summed not overwritten", func(t *testing.T) {
		once := []impact.Result{
			result(assemblyID, epdA, lcax.CategoryGWP, lcax.StageA1A3, "3"),
			result(assemblyID, epdA, lcax.CategoryPENRT, lcax.StageA1A3, "40"),
		}
		twice := append(append([]impact.Result{}, once...), once...)

		rows := AggregateStructural(twice)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].GWP.Equal(d("6")))
		assert.True(t, rows[0].PENRT.Equal(d("80")))
	})

	t.Run("negative sums survive in the true columns and clamp in display", func(t *testing.T) {
		rows := AggregateStructural([]impact.Result{
			result(assemblyID, epdA, lcax.CategoryGWP, lcax.StageA1A3, "-12.5"),
			result(assemblyID, epdA, lcax.CategoryGWP, lcax.StageA1A3, "2.5"),
		})

		require.Len(t, rows, 1)
		assert.True(t, rows[0].GWP.Equal(d("-10")))
		assert.True(t, rows[0].GWPDisplay.IsZero())
	})
}

func operationalBuilding(referencePeriod string) *catalog.Building {
	return &catalog.Building{
		ID:              uuid.New(),
		Name:            "Office block",
		TotalFloorArea:  d("100"),
		ReferencePeriod: d(referencePeriod),
		OperationalProducts: []catalog.OperationalProduct{
			{
				EPD: &lcax.EPD{
					ID:             uuid.New(),
					Name:           "Grid electricity",
					Category:       "Energy carriers",
					DeclaredUnit:   units.UnitKWH,
					DeclaredAmount: d("1"),
					Impacts: []lcax.EPDImpact{
						{
							Impact: lcax.Impact{Category: lcax.CategoryGWP, Stage: lcax.StageB6, Unit: units.UnitKGCO2E},
							Value:  d("0.4"),
						},
					},
				},
				Quantity:  d("1000"),
				InputUnit: units.UnitKWH,
			},
		},
	}
}

func TestOperationalRows(t *testing.T) {
	rows, err := OperationalRows(operationalBuilding("50"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 1000 kWh * 0.4 / 100 m² = 4 per year, times 50 years.
	assert.True(t, rows[0].GWP.Equal(d("200")), "got %s", rows[0].GWP)
	assert.True(t, rows[0].PENRT.IsZero())
	assert.Equal(t, "Operational Carbon", rows[0].AssemblyCategory)
	assert.Equal(t, KindOperational, rows[0].Kind)
	assert.True(t, rows[0].GWPDisplay.Equal(rows[0].GWP))
}

func TestCombine(t *testing.T) {
	b := operationalBuilding("50")
	structural := []Row{
		{GWP: d("-10"), PENRT: d("40"), GWPDisplay: decimal.Zero, PENRTDisplay: d("40"), Kind: KindStructural},
		{GWP: d("25"), PENRT: d("100"), GWPDisplay: d("25"), PENRTDisplay: d("100"), Kind: KindStructural},
	}
	operational, err := OperationalRows(b)
	require.NoError(t, err)

	rep := Combine(b, structural, operational)
	require.Len(t, rep.Rows, 3)
	assert.Equal(t, b.ID, rep.BuildingID)
	assert.Equal(t, "Office block", rep.BuildingName)
	// Totals use the true sums, so the biogenic credit stays in.
	assert.True(t, rep.TotalGWP.Equal(d("215")), "got %s", rep.TotalGWP)
	assert.True(t, rep.TotalPENRT.Equal(d("140")), "got %s", rep.TotalPENRT)
	assert.False(t, rep.GeneratedAt.IsZero())
}
