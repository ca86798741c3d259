package geo

import (
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
)

func TestCalculateDistance(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateDistance(0, 0, 0, 0))
		assert.Equal(t, 0.0, CalculateDistance(4.0511, 9.7679, 4.0511, 9.7679))
	})

	t.Run("symmetric", func(t *testing.T) {
		d1 := CalculateDistance(3.848, 11.502, 4.0511, 9.7679)
		d2 := CalculateDistance(4.0511, 9.7679, 3.848, 11.502)
		assert.InDelta(t, d1, d2, 1e-6)
	})

	t.Run("one degree of longitude at the equator", func(t *testing.T) {
		assert.InDelta(t, 111194.93, CalculateDistance(0, 0, 0, 1), 0.01)
	})

	t.Run("matches s2 angle on the same sphere", func(t *testing.T) {
		a := s2.LatLngFromDegrees(3.848, 11.502)
		b := s2.LatLngFromDegrees(4.0511, 9.7679)
		want := a.Distance(b).Radians() * earthRadiusKm * 1000
		assert.InDelta(t, want, CalculateDistance(3.848, 11.502, 4.0511, 9.7679), 0.5)
	})
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{12.4, "12 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{1500, "1.5 km"},
		{23456, "23.5 km"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDistance(tt.meters), "meters=%v", tt.meters)
	}
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", FormatTimeSince(now, now))
	assert.Equal(t, "Just now", FormatTimeSince(now.Add(-59*time.Second), now))
	assert.Equal(t, "1 minutes ago", FormatTimeSince(now.Add(-time.Minute), now))
	assert.Equal(t, "5 minutes ago", FormatTimeSince(now.Add(-5*time.Minute), now))
	assert.Equal(t, "2 hours ago", FormatTimeSince(now.Add(-2*time.Hour), now))
	assert.Equal(t, "23 hours ago", FormatTimeSince(now.Add(-(23*time.Hour + 59*time.Minute)), now))
	assert.Equal(t, "3 days ago", FormatTimeSince(now.Add(-72*time.Hour), now))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "Just now", FormatTime(time.Now()))
	assert.Equal(t, "5 minutes ago", FormatTime(time.Now().Add(-5*time.Minute-time.Second)))
}
