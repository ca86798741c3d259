package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-emergency-alerts/internal/clock"
	"github.com/mr1hm/go-emergency-alerts/internal/metrics"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/reporting"
	"github.com/mr1hm/go-emergency-alerts/internal/state"
)

const (
	reportingMessage     = "Reporting emergency..."
	reportedTitle        = "Emergency Reported"
	reportedBody         = "Your emergency report has been submitted successfully."
	reportedToast        = "Emergency reported successfully! Emergency services have been notified."
	reportFailedToast    = "Failed to report emergency. Please try again."
	reportTimestampField = "timestamp"
)

// Notifier issues platform-level notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Presenter renders the in-page elements the dispatcher needs.
type Presenter interface {
	ShowInAppAlert(a models.Alert) string
	ShowLoadingState(message string)
	HideLoadingState()
	ShowSuccessMessage(message string) string
	ShowErrorMessage(message string) string
}

type ReportSubmitter interface {
	Submit(ctx context.Context, r *models.EmergencyReport) (reporting.Result, error)
}

type Dispatcher struct {
	state     *state.AppState
	notifier  Notifier
	presenter Presenter
	reports   ReportSubmitter
	sched     clock.Scheduler
	latency   time.Duration

	idMu   sync.Mutex
	lastID int64
}

func NewDispatcher(st *state.AppState, notifier Notifier, presenter Presenter, reports ReportSubmitter, sched clock.Scheduler, latency time.Duration) *Dispatcher {
	return &Dispatcher{
		state:     st,
		notifier:  notifier,
		presenter: presenter,
		reports:   reports,
		sched:     sched,
		latency:   latency,
	}
}

// ShowNotification emits a platform notification when notifications are
// permitted; otherwise it does nothing. An empty icon uses the default.
func (d *Dispatcher) ShowNotification(ctx context.Context, title, body, icon string) {
	if !d.state.NotificationPermission() {
		metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return
	}
	if icon == "" {
		icon = models.DefaultNotificationIcon
	}

	n := models.Notification{
		Title:              title,
		Body:               body,
		Icon:               icon,
		Badge:              icon,
		Vibrate:            append([]int(nil), models.DefaultVibratePattern...),
		RequireInteraction: true,
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		slog.Warn("notification failed", "title", title, "error", err)
		return
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
}

// ShowEmergencyAlert notifies, stores a stamped copy of a at the head of the
// alert list and shows the in-page banner. It returns the stored alert.
func (d *Dispatcher) ShowEmergencyAlert(ctx context.Context, a models.Alert) models.Alert {
	d.ShowNotification(ctx, a.Title, a.Message, "")

	stored := a
	stored.CreatedAt = d.sched.Now()
	stored.ID = d.nextID(stored.CreatedAt)
	d.state.PrependAlert(stored)

	d.presenter.ShowInAppAlert(a)

	metrics.AlertsDispatched.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
	slog.Info("emergency alert dispatched", "id", stored.ID, "type", a.Kind, "severity", a.Severity)
	return stored
}

// ReportEmergency enriches data with the last known location and a
// timestamp, then submits it to dispatch behind a loading overlay. On
// failure the page gets an error toast and the error is returned so the
// caller can retry.
func (d *Dispatcher) ReportEmergency(ctx context.Context, data map[string]any) (reporting.Result, error) {
	report := d.BuildReport(data)

	d.presenter.ShowLoadingState(reportingMessage)

	res, err := d.submit(ctx, report)
	d.presenter.HideLoadingState()

	if err != nil {
		slog.Error("emergency report failed", "error", err)
		d.presenter.ShowErrorMessage(reportFailedToast)
		return res, err
	}

	d.ShowNotification(ctx, reportedTitle, reportedBody, "")
	slog.Info("emergency reported", "id", res.ID, "report_id", res.RemoteID)
	d.presenter.ShowSuccessMessage(reportedToast)
	return res, nil
}

// BuildReport copies data and stamps it with the time and, when known, the
// device location. A location supplied by the caller is kept unless the
// device location is known.
func (d *Dispatcher) BuildReport(data map[string]any) *models.EmergencyReport {
	payload := make(map[string]any, len(data))
	for k, v := range data {
		if k == reportTimestampField {
			continue
		}
		payload[k] = v
	}

	r := &models.EmergencyReport{
		Data:      payload,
		Timestamp: d.sched.Now(),
	}
	if loc, ok := d.state.Location(); ok {
		r.Location = &loc
	}
	return r
}

func (d *Dispatcher) submit(ctx context.Context, r *models.EmergencyReport) (reporting.Result, error) {
	if err := d.wait(ctx, d.latency); err != nil {
		return reporting.Result{}, err
	}
	return d.reports.Submit(ctx, r)
}

func (d *Dispatcher) wait(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	done := make(chan struct{})
	t := d.sched.AfterFunc(dur, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}

// nextID derives alert ids from the creation time in milliseconds, bumped
// when two alerts share a millisecond so ids stay unique and ordered.
func (d *Dispatcher) nextID(at time.Time) int64 {
	d.idMu.Lock()
	defer d.idMu.Unlock()

	id := at.UnixMilli()
	if id <= d.lastID {
		id = d.lastID + 1
	}
	d.lastID = id
	return id
}
