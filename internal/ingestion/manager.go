package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-emergency-alerts/internal/config"
	"github.com/mr1hm/go-emergency-alerts/internal/metrics"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/source"
	"github.com/mr1hm/go-emergency-alerts/internal/worker"
)

// AlertDispatcher receives alerts produced by the poller.
type AlertDispatcher interface {
	ShowEmergencyAlert(ctx context.Context, a models.Alert) models.Alert
}

// Manager polls an AlertSource on a fixed interval and hands every alert to
// the dispatcher through a worker pool.
type Manager struct {
	cfg        *config.Config
	source     source.AlertSource
	dispatcher AlertDispatcher
	gate       <-chan struct{}
	pool       *worker.WorkerPool[models.Alert]
	wg         sync.WaitGroup
}

// NewManager returns a Manager. Polling starts only after gate is closed, so
// no alert is dispatched before the notification permission is known; a nil
// gate starts immediately.
func NewManager(cfg *config.Config, src source.AlertSource, dispatcher AlertDispatcher, gate <-chan struct{}) *Manager {
	return &Manager{
		cfg:        cfg,
		source:     src,
		dispatcher: dispatcher,
		gate:       gate,
	}
}

func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, a models.Alert) error {
		m.dispatcher.ShowEmergencyAlert(ctx, a)
		return nil
	}

	m.pool = worker.NewWorkerPool("alerts", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.Start(ctx)

	if m.cfg.Poller.Enabled {
		m.wg.Add(1)
		go m.runPoller(ctx, m.cfg.Poller.Interval)
	}
}

func (m *Manager) runPoller(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	if m.gate != nil {
		select {
		case <-ctx.Done():
			return
		case <-m.gate:
		}
	}

	slog.Info("starting alert poller", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("alert poller shutting down")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	slog.Debug("checking for emergency alerts")

	a, err := m.source.Next(ctx)
	if err != nil {
		metrics.PollTicks.WithLabelValues("error").Inc()
		slog.Error("alert poll failed", "error", err)
		return
	}
	if a == nil {
		metrics.PollTicks.WithLabelValues("miss").Inc()
		return
	}

	if !m.Enqueue(*a) {
		metrics.PollTicks.WithLabelValues("dropped").Inc()
		slog.Warn("alert queue full, dropping polled alert", "type", a.Kind, "title", a.Title)
		return
	}
	metrics.PollTicks.WithLabelValues("hit").Inc()
}

// Enqueue queues an alert for dispatch, bypassing the source. It returns
// false when the queue is full.
func (m *Manager) Enqueue(a models.Alert) bool {
	return m.pool.TrySubmit(a)
}

func (m *Manager) Stop() {
	m.wg.Wait()
	m.pool.Stop()
	slog.Info("ingestion manager stopped")
}
