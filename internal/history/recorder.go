// Package history records computed report totals to InfluxDB so the
// dashboard can chart how a building's footprint evolves as its
// assemblies are edited.
package history

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/terminal-bench/lcaengine/internal/report"
)

// Recorder writes one point per computed building report.
type Recorder struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

// NewRecorder connects to InfluxDB.
func NewRecorder(url, token, org, bucket string) *Recorder {
	client := influxdb2.NewClient(url, token)
	return &Recorder{
		client: client,
		write:  client.WriteAPIBlocking(org, bucket),
	}
}

// Record writes the true totals of a report. History is trend display
// only, so the decimal totals are stored as floats; the authoritative
// decimals live in the report itself.
func (r *Recorder) Record(ctx context.Context, rep *report.Report) error {
	point := influxdb2.NewPointWithMeasurement("building_report").
		AddTag("building_id", rep.BuildingID.String()).
		AddField("gwp", rep.TotalGWP.InexactFloat64()).
		AddField("penrt", rep.TotalPENRT.InexactFloat64()).
		AddField("rows", len(rep.Rows)).
		SetTime(time.Now().UTC())
	return r.write.WritePoint(ctx, point)
}

// Close shuts the client down.
func (r *Recorder) Close() {
	r.client.Close()
}
