package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

type feedResponse struct {
	Alerts []feedAlert `json:"alerts"`
}

type feedAlert struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// FeedSource polls an HTTP JSON alert feed and yields the newest alert not
// seen before. Feeds list alerts newest first.
type FeedSource struct {
	url    string
	client *http.Client

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewFeedSource(url string, timeout time.Duration, retryMax int) *FeedSource {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = retryMax
	client := rc.StandardClient()
	client.Timeout = timeout

	return &FeedSource{
		url:    url,
		client: client,
		seen:   make(map[string]struct{}),
	}
}

func (s *FeedSource) Next(ctx context.Context) (*models.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fa := range data.Alerts {
		if fa.ID == "" {
			continue
		}
		if _, ok := s.seen[fa.ID]; ok {
			continue
		}
		s.seen[fa.ID] = struct{}{}
		return &models.Alert{
			Kind:     models.AlertKind(fa.Type),
			Title:    fa.Title,
			Message:  fa.Message,
			Severity: mapSeverity(fa.Severity),
		}, nil
	}
	return nil, nil
}

func mapSeverity(s string) models.AlertSeverity {
	switch s {
	case "high", "severe", "extreme", "critical":
		return models.AlertSeverityHigh
	default:
		return models.AlertSeverityMedium
	}
}
