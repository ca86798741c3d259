package models

import "time"

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReported ReportStatus = "reported"
	ReportStatusFailed   ReportStatus = "failed"
)

// EmergencyReport is a caller supplied payload enriched with the last known
// location and a submission timestamp. Location is nil when unknown; the
// payload then carries whatever location the caller gave, or none at all.
type EmergencyReport struct {
	Data      map[string]any
	Location  *Coordinate
	Timestamp time.Time
}

// Payload returns the document submitted to the dispatch backend.
func (r *EmergencyReport) Payload() map[string]any {
	out := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	if r.Location != nil {
		out["location"] = *r.Location
	}
	out["timestamp"] = r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	return out
}

// StringField returns Data[key] when it is a string.
func (r *EmergencyReport) StringField(key string) string {
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

// ReportRecord is an outbox row: one submission attempt and its outcome.
type ReportRecord struct {
	ID        string       `db:"id" json:"id"`
	RemoteID  int64        `db:"remote_id" json:"report_id,omitempty"`
	Type      string       `db:"emergency_type" json:"emergency_type"`
	Severity  string       `db:"severity" json:"severity,omitempty"`
	Latitude  *float64     `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64     `db:"longitude" json:"longitude,omitempty"`
	Accuracy  *float64     `db:"accuracy" json:"accuracy,omitempty"`
	Geohash   string       `db:"geohash" json:"geohash,omitempty"`
	Payload   []byte       `db:"payload" json:"-"`
	Status    ReportStatus `db:"status" json:"status"`
	Error     string       `db:"error" json:"error,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
