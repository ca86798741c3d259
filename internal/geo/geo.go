package geo

import (
	"fmt"
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// CalculateDistance returns the great-circle distance in meters between two
// coordinates using the haversine formula.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c * 1000
}

// FormatDistance renders meters below 1000 as whole meters, otherwise
// kilometers with one decimal.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func FormatTime(t time.Time) string {
	return FormatTimeSince(t, time.Now())
}

// FormatTimeSince renders the time elapsed between t and now.
func FormatTimeSince(t, now time.Time) string {
	minutes := int64(math.Floor(float64(now.Sub(t)) / float64(time.Minute)))

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%d hours ago", minutes/60)
	default:
		return fmt.Sprintf("%d days ago", minutes/1440)
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
