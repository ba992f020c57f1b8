package influx

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"

	"uwb-nav-bridge/internal/models"
)

const (
	gridMeasurement     = "uwb_grid"
	distanceMeasurement = "uwb_distance"
)

// ReportWriter streams accepted reports into InfluxDB. Writes go through
// the client's async write API; delivery failures surface on the client's
// error channel, not here.
type ReportWriter struct {
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

func NewReportWriter(writeAPI api.WriteAPI, logger zerolog.Logger) *ReportWriter {
	return &ReportWriter{
		writeAPI: writeAPI,
		logger:   logger,
	}
}

func (w *ReportWriter) WriteGridReport(report *models.GridReport) {
	point := influxdb2.NewPoint(
		gridMeasurement,
		report.ToInfluxTags(),
		report.ToInfluxFields(),
		report.Timestamp,
	)

	w.writeAPI.WritePoint(point)

	w.logger.Debug().
		Str("grid_uuid", report.GridUUID.String()).
		Msg("Added grid report to InfluxDB")
}

func (w *ReportWriter) WriteDistanceReport(report *models.DistanceReport) {
	point := influxdb2.NewPoint(
		distanceMeasurement,
		report.ToInfluxTags(),
		report.ToInfluxFields(),
		report.Timestamp,
	)

	w.writeAPI.WritePoint(point)

	w.logger.Debug().
		Uint16("counter", report.Counter).
		Float32("yaw_offset", report.YawOffset).
		Msg("Added distance report to InfluxDB")
}
