package source

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

// Catalog is the fixed set of simulated alerts.
var Catalog = []models.Alert{
	{
		Kind:     models.AlertKindFire,
		Title:    "Fire Alert",
		Message:  "Fire reported in your area. Stay alert and follow evacuation instructions if necessary.",
		Severity: models.AlertSeverityHigh,
	},
	{
		Kind:     models.AlertKindWeather,
		Title:    "Weather Alert",
		Message:  "High wind warning. Increased fire risk in your area.",
		Severity: models.AlertSeverityMedium,
	},
}

// Rand is the subset of *rand.Rand used by RandomSource.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// RandomSource is a stand-in for a real alert feed: each call yields a
// catalog alert with the given probability.
type RandomSource struct {
	probability float64
	catalog     []models.Alert

	mu  sync.Mutex
	rng Rand
}

func NewRandomSource(probability float64, rng Rand) *RandomSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomSource{
		probability: probability,
		catalog:     Catalog,
		rng:         rng,
	}
}

func (s *RandomSource) Next(ctx context.Context) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() >= s.probability {
		return nil, nil
	}
	a := s.catalog[s.rng.IntN(len(s.catalog))]
	return &a, nil
}
