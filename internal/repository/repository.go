package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

type Filter struct {
	Limit  int
	Since  *time.Time
	Status *models.ReportStatus
}

// ReportRepository is the outbox of emergency reports handed to dispatch.
type ReportRepository interface {
	Add(ctx context.Context, r *models.ReportRecord) error
	GetByID(ctx context.Context, id string) (*models.ReportRecord, error)
	ListReports(ctx context.Context, opts Filter) ([]models.ReportRecord, error)
	MarkReported(ctx context.Context, id string, remoteID int64) (int64, error)
	MarkFailed(ctx context.Context, id string, reason string) (int64, error)
}
