package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_alerts_dispatched_total",
		Help: "Alerts dispatched to the page, by kind and severity",
	}, []string{"kind", "severity"})
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_notifications_total",
		Help: "Platform notifications, by outcome (sent, skipped, failed)",
	}, []string{"outcome"})
	PollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_poll_ticks_total",
		Help: "Alert source polls, by result (hit, miss, dropped, error)",
	}, []string{"result"})
	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_reports_total",
		Help: "Emergency reports submitted to dispatch, by status",
	}, []string{"status"})
	ReportLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "emergency_report_submit_seconds",
		Help:    "Time spent submitting a report to the dispatch backend",
		Buckets: prometheus.DefBuckets,
	})
	UIElements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "emergency_ui_elements",
		Help: "Transient UI elements currently displayed, by kind",
	}, []string{"kind"})
	UISubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "emergency_ui_subscribers",
		Help: "Open page event streams",
	})
	UIEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emergency_ui_events_dropped_total",
		Help: "UI events dropped because a page fell behind",
	})
	Online = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "emergency_connectivity_online",
		Help: "1 when the page reports being online",
	})
)
