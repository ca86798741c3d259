package source

import (
	"context"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

// AlertSource produces the next alert, or nil when there is none.
type AlertSource interface {
	Next(ctx context.Context) (*models.Alert, error)
}
