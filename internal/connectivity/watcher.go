package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mr1hm/go-emergency-alerts/internal/metrics"
)

const (
	offlineMessage = "You are currently offline. Some features may not be available."
	onlineMessage  = "Connection restored. All features are now available."
)

type Messenger interface {
	ShowSuccessMessage(message string) string
	ShowErrorMessage(message string) string
}

// Listener is told about every connectivity transition.
type Listener func(online bool)

// Watcher turns online/offline events into user-facing messages. Repeated
// events for the current state are ignored.
type Watcher struct {
	messenger Messenger

	mu        sync.Mutex
	online    bool
	listeners []Listener
}

// NewWatcher returns a Watcher that assumes the page starts online.
func NewWatcher(messenger Messenger) *Watcher {
	metrics.Online.Set(1)
	return &Watcher{
		messenger: messenger,
		online:    true,
	}
}

func (w *Watcher) OnChange(l Listener) {
	w.mu.Lock()
	w.listeners = append(w.listeners, l)
	w.mu.Unlock()
}

func (w *Watcher) IsOnline() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// SetOnline records the current state and reports whether it changed.
func (w *Watcher) SetOnline(online bool) bool {
	w.mu.Lock()
	if w.online == online {
		w.mu.Unlock()
		return false
	}
	w.online = online
	listeners := append([]Listener(nil), w.listeners...)
	w.mu.Unlock()

	if online {
		metrics.Online.Set(1)
		slog.Info("connection restored")
		w.messenger.ShowSuccessMessage(onlineMessage)
	} else {
		metrics.Online.Set(0)
		slog.Warn("connection lost")
		w.messenger.ShowErrorMessage(offlineMessage)
	}

	for _, l := range listeners {
		l(online)
	}
	return true
}

// Prober checks a health URL on an interval and feeds the result into a
// Watcher.
type Prober struct {
	url      string
	interval time.Duration
	watcher  *Watcher
	client   *http.Client
	wg       sync.WaitGroup
}

func NewProber(url string, interval time.Duration, watcher *Watcher) *Prober {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 1
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	client := rc.StandardClient()
	client.Timeout = 5 * time.Second

	return &Prober{
		url:      url,
		interval: interval,
		watcher:  watcher,
		client:   client,
	}
}

func (p *Prober) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

func (p *Prober) Stop() {
	p.wg.Wait()
	p.client.CloseIdleConnections()
}

func (p *Prober) run(ctx context.Context) {
	defer p.wg.Done()
	slog.Info("starting connectivity prober", "url", p.url, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.watcher.SetOnline(p.Probe(ctx))
		}
	}
}

// Probe reports whether the health URL answers with a 2xx status.
func (p *Prober) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("connectivity probe failed", "error", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
