// Package report aggregates per-product impact results into
// chart-ready per-building totals.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/internal/impact"
	"github.com/terminal-bench/lcaengine/pkg/lcax"
)

// RowKind says which path a report row came from.
type RowKind string

const (
	KindStructural  RowKind = "structural"
	KindOperational RowKind = "operational"
)

// Row is one aggregated (assembly, EPD) line of a building report.
// GWP and PENRT are the true sums, including negative biogenic-carbon
// contributions. GWPDisplay and PENRTDisplay floor structural negatives
// to zero for charts; they must never replace the true sums.
type Row struct {
	AssemblyID       uuid.UUID       `json:"assembly_id"`
	EPDID            uuid.UUID       `json:"epd_id"`
	AssemblyCategory string          `json:"assembly_category"`
	MaterialCategory string          `json:"material_category"`
	Kind             RowKind         `json:"type"`
	GWP              decimal.Decimal `json:"gwp"`
	PENRT            decimal.Decimal `json:"penrt"`
	GWPDisplay       decimal.Decimal `json:"gwp_display"`
	PENRTDisplay     decimal.Decimal `json:"penrt_display"`
}

// Report is the unified per-building result combining structural and
// annualized operational impacts. Totals are true sums; clamping never
// reaches them.
type Report struct {
	BuildingID   uuid.UUID       `json:"building_id"`
	BuildingName string          `json:"building_name"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Rows         []Row           `json:"rows"`
	TotalGWP     decimal.Decimal `json:"total_gwp"`
	TotalPENRT   decimal.Decimal `json:"total_penrt"`
}

type rowKey struct {
	assemblyID       uuid.UUID
	epdID            uuid.UUID
	assemblyCategory string
	materialCategory string
}

// AggregateStructural pivots raw impact results on impact type, keeping
// only GWP A1-A3 and PENRT A1-A3, grouped by (assembly, EPD, assembly
// category, material category). Duplicate rows are summed, never
// overwritten: the same product list may be processed more than once
// across simulation and non-simulation contexts.
func AggregateStructural(results []impact.Result) []Row {
	index := make(map[rowKey]int)
	rows := make([]Row, 0)

	for _, r := range results {
		isGWP := r.Impact.Category == lcax.CategoryGWP && r.Impact.Stage == lcax.StageA1A3
		isPENRT := r.Impact.Category == lcax.CategoryPENRT && r.Impact.Stage == lcax.StageA1A3
		if !isGWP && !isPENRT {
			continue
		}

		key := rowKey{r.AssemblyID, r.EPDID, r.AssemblyCategory, r.MaterialCategory}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, Row{
				AssemblyID:       r.AssemblyID,
				EPDID:            r.EPDID,
				AssemblyCategory: r.AssemblyCategory,
				MaterialCategory: r.MaterialCategory,
				Kind:             KindStructural,
			})
		}
		if isGWP {
			rows[i].GWP = rows[i].GWP.Add(r.Value)
		} else {
			rows[i].PENRT = rows[i].PENRT.Add(r.Value)
		}
	}

	for i := range rows {
		rows[i].GWPDisplay = clampPositive(rows[i].GWP)
		rows[i].PENRTDisplay = clampPositive(rows[i].PENRT)
	}
	return rows
}

// clampPositive floors negatives (biogenic credits) to zero for the
// display columns only.
func clampPositive(v decimal.Decimal) decimal.Decimal {
	if v.Sign() <= 0 {
		return decimal.Zero
	}
	return v
}

// OperationalRows calculates the annualized stage-B6 rows of a
// building: per-year operational figures multiplied by the reference
// period so they combine with the already-per-period structural ones.
// An EPD lacking one of the two indicators contributes zero for it.
func OperationalRows(b *catalog.Building) ([]Row, error) {
	rows := make([]Row, 0, len(b.OperationalProducts))
	for i := range b.OperationalProducts {
		p := &b.OperationalProducts[i]
		res, err := impact.CalculateOperational(p, b.TotalFloorArea)
		if err != nil {
			return nil, err
		}

		row := Row{
			EPDID:            p.EPD.ID,
			AssemblyCategory: "Operational Carbon",
			MaterialCategory: p.EPD.Category,
			Kind:             KindOperational,
		}
		if res.GWPB6 != nil {
			row.GWP = res.GWPB6.Mul(b.ReferencePeriod)
		}
		if res.PENRTB6 != nil {
			row.PENRT = res.PENRTB6.Mul(b.ReferencePeriod)
		}
		// Operational rows are displayed as-is.
		row.GWPDisplay = row.GWP
		row.PENRTDisplay = row.PENRT
		rows = append(rows, row)
	}
	return rows, nil
}

// Combine builds the final report from structural and operational rows.
func Combine(b *catalog.Building, structural, operational []Row) *Report {
	rep := &Report{
		BuildingID:   b.ID,
		BuildingName: b.Name,
		GeneratedAt:  time.Now().UTC(),
		Rows:         append(structural, operational...),
	}
	for _, row := range rep.Rows {
		rep.TotalGWP = rep.TotalGWP.Add(row.GWP)
		rep.TotalPENRT = rep.TotalPENRT.Add(row.PENRT)
	}
	return rep
}
