package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event subjects.
const (
	SubjectProductsReplaced    = "catalog.products_replaced"
	SubjectOperationalReplaced = "catalog.operational_replaced"
	SubjectReportUpdated       = "report.updated"

	// Matches every catalog change.
	SubjectCatalogAll = "catalog.>"
)

// CatalogEvent signals that the product set of an assembly or building
// changed and any cached report derived from it is stale.
type CatalogEvent struct {
	AssemblyID uuid.UUID `json:"assembly_id,omitempty"`
	BuildingID uuid.UUID `json:"building_id,omitempty"`
	Products   int       `json:"products"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReportEvent announces a freshly computed building report. The gateway
// forwards it to websocket subscribers; payload values are strings to
// keep decimal precision on the wire.
type ReportEvent struct {
	BuildingID uuid.UUID `json:"building_id"`
	TotalGWP   string    `json:"total_gwp"`
	TotalPENRT string    `json:"total_penrt"`
	Timestamp  time.Time `json:"timestamp"`
}
