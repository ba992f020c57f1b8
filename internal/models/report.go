package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Position is a 3-axis position in meters. Which frame it is expressed in
// depends on where it appears: anchor and target reference positions are
// beacon-grid relative, DistanceReport.TargetPosition is navigation (NED)
// frame.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// GPSCoordinates is the surveyed geodetic reference of the grid origin.
type GPSCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float32 `json:"altitude"`
}

// GridReport is the durable record of one accepted grid survey. It is
// published exactly once per session, before any DistanceReport.
type GridReport struct {
	Timestamp       time.Time      `json:"timestamp"`
	GridUUID        uuid.UUID      `json:"grid_uuid"`
	InitiatorTime   uint16         `json:"initiator_time"`
	AnchorCount     uint8          `json:"anchor_count"`
	GPSReference    GPSCoordinates `json:"gps_reference"`
	TargetReference Position       `json:"target_reference"`
	AnchorPositions []Position     `json:"anchor_positions"`
}

func (r *GridReport) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if r.AnchorCount == 0 {
		return fmt.Errorf("anchor_count must be at least 1")
	}
	if int(r.AnchorCount) != len(r.AnchorPositions) {
		return fmt.Errorf("anchor_count %d does not match %d anchor positions",
			r.AnchorCount, len(r.AnchorPositions))
	}
	return nil
}

func (r *GridReport) ToInfluxTags() map[string]string {
	return map[string]string{
		"grid_uuid": r.GridUUID.String(),
	}
}

func (r *GridReport) ToInfluxFields() map[string]interface{} {
	fields := map[string]interface{}{
		"initiator_time": int64(r.InitiatorTime),
		"anchor_count":   int64(r.AnchorCount),
		"gps_latitude":   r.GPSReference.Latitude,
		"gps_longitude":  r.GPSReference.Longitude,
		"gps_altitude":   float64(r.GPSReference.Altitude),
	}

	for i, pos := range r.AnchorPositions {
		fields[fmt.Sprintf("anchor_%d_x", i)] = float64(pos.X)
		fields[fmt.Sprintf("anchor_%d_y", i)] = float64(pos.Y)
		fields[fmt.Sprintf("anchor_%d_z", i)] = float64(pos.Z)
	}

	return fields
}

// DistanceReport is one accepted ranging measurement. AnchorDistances holds
// one entry per anchor established by the grid survey, in meters.
// TargetPosition is only set when navigation-frame publishing is enabled.
type DistanceReport struct {
	Timestamp       time.Time `json:"timestamp"`
	GridUUID        uuid.UUID `json:"grid_uuid"`
	Status          uint8     `json:"status"`
	Counter         uint16    `json:"counter"`
	YawOffset       float32   `json:"yaw_offset"`
	TimeOffset      uint32    `json:"time_offset"`
	AnchorDistances []float64 `json:"anchor_distances"`
	TargetPosition  *Position `json:"target_position,omitempty"`
}

func (r *DistanceReport) ToInfluxTags() map[string]string {
	return map[string]string{
		"grid_uuid": r.GridUUID.String(),
		"status":    fmt.Sprintf("0x%02x", r.Status),
	}
}

func (r *DistanceReport) ToInfluxFields() map[string]interface{} {
	fields := map[string]interface{}{
		"counter":     int64(r.Counter),
		"yaw_offset":  float64(r.YawOffset),
		"time_offset": int64(r.TimeOffset),
	}

	for i, distance := range r.AnchorDistances {
		fields[fmt.Sprintf("anchor_%d_distance", i)] = distance
	}

	if r.TargetPosition != nil {
		fields["target_x"] = float64(r.TargetPosition.X)
		fields["target_y"] = float64(r.TargetPosition.Y)
		fields["target_z"] = float64(r.TargetPosition.Z)
	}

	return fields
}
