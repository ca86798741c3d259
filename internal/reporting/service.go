package reporting

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
	"github.com/pkg/errors"

	"github.com/mr1hm/go-emergency-alerts/internal/metrics"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/repository"
)

const geohashPrecision = 7

type Result struct {
	ID       string `json:"id"`
	RemoteID int64  `json:"report_id"`
}

// Service records each report in the outbox before handing it to the
// submitter, so failed submissions stay visible for a retry.
type Service struct {
	submitter Submitter
	outbox    repository.ReportRepository
}

// NewService returns a Service; outbox may be nil to skip recording.
func NewService(submitter Submitter, outbox repository.ReportRepository) *Service {
	return &Service{
		submitter: submitter,
		outbox:    outbox,
	}
}

func (s *Service) Submit(ctx context.Context, r *models.EmergencyReport) (Result, error) {
	res := Result{ID: uuid.NewString()}

	if s.outbox != nil {
		rec, err := newRecord(res.ID, r)
		if err != nil {
			return res, err
		}
		if err := s.outbox.Add(ctx, rec); err != nil {
			return res, errors.Wrap(err, "failed to record report")
		}
	}

	start := time.Now()
	remoteID, err := s.submitter.Submit(ctx, r)
	metrics.ReportLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ReportsSubmitted.WithLabelValues(string(models.ReportStatusFailed)).Inc()
		if s.outbox != nil {
			if _, mErr := s.outbox.MarkFailed(ctx, res.ID, err.Error()); mErr != nil {
				slog.Error("error marking report failed", "id", res.ID, "error", mErr)
			}
		}
		return res, err
	}

	res.RemoteID = remoteID
	metrics.ReportsSubmitted.WithLabelValues(string(models.ReportStatusReported)).Inc()
	if s.outbox != nil {
		if _, err := s.outbox.MarkReported(ctx, res.ID, remoteID); err != nil {
			slog.Error("error marking report reported", "id", res.ID, "error", err)
		}
	}
	return res, nil
}

// Recent lists the latest outbox entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.ReportRecord, error) {
	if s.outbox == nil {
		return nil, nil
	}
	return s.outbox.ListReports(ctx, repository.Filter{Limit: limit})
}

func newRecord(id string, r *models.EmergencyReport) (*models.ReportRecord, error) {
	payload, err := json.Marshal(r.Payload())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal report payload")
	}

	rec := &models.ReportRecord{
		ID:        id,
		Type:      r.StringField("emergency_type"),
		Severity:  r.StringField("severity"),
		Payload:   payload,
		Status:    models.ReportStatusPending,
		CreatedAt: r.Timestamp.UTC(),
	}
	if r.Location != nil {
		lat, lng, acc := r.Location.Latitude, r.Location.Longitude, r.Location.Accuracy
		rec.Latitude, rec.Longitude, rec.Accuracy = &lat, &lng, &acc
		rec.Geohash = geohash.EncodeWithPrecision(lat, lng, geohashPrecision)
	}
	return rec, nil
}
