package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGridReport() *GridReport {
	return &GridReport{
		Timestamp:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		GridUUID:      uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"),
		InitiatorTime: 77,
		AnchorCount:   2,
		GPSReference: GPSCoordinates{
			Latitude:  48.1371,
			Longitude: 11.5754,
			Altitude:  519.0,
		},
		TargetReference: Position{X: 0.5, Y: 1.0, Z: 1.5},
		AnchorPositions: []Position{
			{X: 0, Y: 0, Z: 2},
			{X: 4, Y: 0, Z: 2},
		},
	}
}

func TestGridReportValidate(t *testing.T) {
	report := sampleGridReport()
	require.NoError(t, report.Validate())

	report.AnchorCount = 3
	assert.Error(t, report.Validate(), "anchor count must match position list")

	report = sampleGridReport()
	report.Timestamp = time.Time{}
	assert.Error(t, report.Validate())

	report = sampleGridReport()
	report.AnchorCount = 0
	report.AnchorPositions = nil
	assert.Error(t, report.Validate())
}

func TestGridReportInfluxMapping(t *testing.T) {
	report := sampleGridReport()

	tags := report.ToInfluxTags()
	assert.Equal(t, "00112233-4455-6677-8899-aabbccddeeff", tags["grid_uuid"])

	fields := report.ToInfluxFields()
	assert.Equal(t, int64(2), fields["anchor_count"])
	assert.Equal(t, 48.1371, fields["gps_latitude"])
	assert.Equal(t, float64(4), fields["anchor_1_x"])
	assert.NotContains(t, fields, "anchor_2_x")
}

func TestDistanceReportInfluxMapping(t *testing.T) {
	report := &DistanceReport{
		Timestamp:       time.Now(),
		GridUUID:        uuid.New(),
		Status:          0x00,
		Counter:         9,
		YawOffset:       12.5,
		TimeOffset:      40,
		AnchorDistances: []float64{1.0, 2.25},
	}

	tags := report.ToInfluxTags()
	assert.Equal(t, "0x00", tags["status"])

	fields := report.ToInfluxFields()
	assert.Equal(t, int64(9), fields["counter"])
	assert.Equal(t, 12.5, fields["yaw_offset"])
	assert.Equal(t, 2.25, fields["anchor_1_distance"])
	assert.NotContains(t, fields, "target_x", "no nav position unless enabled")

	report.TargetPosition = &Position{X: 1, Y: -2, Z: -3}
	fields = report.ToInfluxFields()
	assert.Equal(t, float64(1), fields["target_x"])
	assert.Equal(t, float64(-2), fields["target_y"])
	assert.Equal(t, float64(-3), fields["target_z"])
}

func TestNewSurveyRecord(t *testing.T) {
	report := sampleGridReport()

	record := NewSurveyRecord(report)

	assert.Equal(t, report.GridUUID.String(), record.GridUUID)
	assert.Equal(t, report.AnchorCount, record.AnchorCount)
	assert.Equal(t, report.GPSReference.Latitude, record.GPSLatitude)
	assert.Equal(t, report.TargetReference.Z, record.TargetZ)
	require.NotNil(t, record.CreatedAt)
	assert.Equal(t, report.Timestamp, *record.CreatedAt)
	assert.Equal(t, AnchorList(report.AnchorPositions), record.Anchors)
}

func TestAnchorListScanRoundTrip(t *testing.T) {
	anchors := AnchorList{{X: 1, Y: 2, Z: 3}, {X: -1, Y: 0, Z: 0.5}}

	value, err := anchors.Value()
	require.NoError(t, err)

	var decoded AnchorList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, anchors, decoded)

	require.NoError(t, decoded.Scan(nil))
	assert.Error(t, decoded.Scan(42))
}
