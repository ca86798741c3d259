package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

var (
	// ErrRejected means the dispatch backend refused the report (4xx).
	ErrRejected = errors.New("report rejected by dispatch backend")
	// ErrUnavailable means the backend could not be reached or failed (5xx).
	ErrUnavailable = errors.New("dispatch backend unavailable")
)

// Submitter delivers an emergency report to the dispatch backend and returns
// the backend's report id.
type Submitter interface {
	Submit(ctx context.Context, r *models.EmergencyReport) (int64, error)
}

type submitResponse struct {
	Status string `json:"status"`
	Data   struct {
		ReportID int64  `json:"report_id"`
		Error    string `json:"error"`
	} `json:"data"`
}

// HTTPSubmitter posts reports to {baseURL}/api/v1/emergencies.
type HTTPSubmitter struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPSubmitter(baseURL, apiKey string, timeout time.Duration, retryMax int) *HTTPSubmitter {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	client := rc.StandardClient()
	client.Timeout = timeout

	return &HTTPSubmitter{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/v1/emergencies",
		apiKey:   apiKey,
		client:   client,
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, r *models.EmergencyReport) (int64, error) {
	body := r.Payload()
	if r.Location != nil {
		body["latitude"] = r.Location.Latitude
		body["longitude"] = r.Location.Longitude
		body["accuracy"] = r.Location.Accuracy
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal report")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(buf))
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(ErrUnavailable, "post report: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, errors.Wrapf(ErrUnavailable, "read response: %v", err)
	}

	var out submitResponse
	decodeErr := json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode >= 500:
		return 0, errors.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		if out.Data.Error != "" {
			return 0, errors.Wrapf(ErrRejected, "status %d: %s", resp.StatusCode, out.Data.Error)
		}
		return 0, errors.Wrapf(ErrRejected, "status %d", resp.StatusCode)
	}

	// The report was accepted either way; only its remote id is lost.
	if decodeErr != nil {
		slog.Warn("dispatch response not decodable", "status", resp.StatusCode, "error", decodeErr)
		return 0, nil
	}
	return out.Data.ReportID, nil
}
