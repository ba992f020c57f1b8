package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AnchorList is stored as a jsonb column.
type AnchorList []Position

func (a AnchorList) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AnchorList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var fieldBytes []byte
	switch v := value.(type) {
	case []byte:
		fieldBytes = v
	case string:
		fieldBytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnchorList", value)
	}

	return json.Unmarshal(fieldBytes, a)
}

// SurveyRecord is the session log row written once per accepted grid survey.
type SurveyRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CreatedAt     *time.Time `json:"created_at"`
	GridUUID      string     `gorm:"index;not null" json:"grid_uuid"`
	InitiatorTime uint16     `json:"initiator_time"`
	AnchorCount   uint8      `json:"anchor_count"`
	GPSLatitude   float64    `json:"gps_latitude"`
	GPSLongitude  float64    `json:"gps_longitude"`
	GPSAltitude   float32    `json:"gps_altitude"`
	TargetX       float32    `json:"target_x"`
	TargetY       float32    `json:"target_y"`
	TargetZ       float32    `json:"target_z"`
	Anchors       AnchorList `gorm:"type:jsonb" json:"anchors"`
}

func NewSurveyRecord(report *GridReport) *SurveyRecord {
	createdAt := report.Timestamp

	return &SurveyRecord{
		CreatedAt:     &createdAt,
		GridUUID:      report.GridUUID.String(),
		InitiatorTime: report.InitiatorTime,
		AnchorCount:   report.AnchorCount,
		GPSLatitude:   report.GPSReference.Latitude,
		GPSLongitude:  report.GPSReference.Longitude,
		GPSAltitude:   report.GPSReference.Altitude,
		TargetX:       report.TargetReference.X,
		TargetY:       report.TargetReference.Y,
		TargetZ:       report.TargetReference.Z,
		Anchors:       AnchorList(report.AnchorPositions),
	}
}
