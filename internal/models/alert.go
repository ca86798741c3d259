package models

import "time"

type AlertKind string

const (
	AlertKindFire    AlertKind = "fire"
	AlertKindWeather AlertKind = "weather"
)

type AlertSeverity string

const (
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

type Alert struct {
	ID        int64         `json:"id"`
	Kind      AlertKind     `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	CreatedAt time.Time     `json:"timestamp"`
}
