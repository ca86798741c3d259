package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/repository"
)

func testReport(loc *models.Coordinate) *models.EmergencyReport {
	return &models.EmergencyReport{
		Data: map[string]any{
			"emergency_type": "fire",
			"description":    "Kitchen fire, smoke on second floor",
			"severity":       "high",
		},
		Location:  loc,
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHTTPSubmitter_Success(t *testing.T) {
	var got map[string]any
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/emergencies", r.URL.Path)
		apiKey = r.Header.Get("X-API-Key")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"success","data":{"message":"Emergency report created successfully","report_id":17}}`))
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(srv.URL+"/", "secret", time.Second, 0)
	loc := &models.Coordinate{Latitude: 4.05, Longitude: 9.77, Accuracy: 20}

	id, err := s.Submit(context.Background(), testReport(loc))
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
	assert.Equal(t, "secret", apiKey)
	assert.Equal(t, "fire", got["emergency_type"])
	assert.Equal(t, "2024-06-01T12:00:00.000Z", got["timestamp"])
	assert.Equal(t, 4.05, got["latitude"])
	assert.Equal(t, map[string]any{"lat": 4.05, "lng": 9.77, "accuracy": 20.0}, got["location"])
}

func TestHTTPSubmitter_UndecodableSuccessIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`<html>created</html>`))
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(srv.URL, "", time.Second, 0)
	id, err := s.Submit(context.Background(), testReport(nil))
	require.NoError(t, err, "an accepted report is not a failure")
	assert.Equal(t, int64(0), id)
	assert.Contains(t, buf.String(), "dispatch response not decodable")
	assert.Contains(t, buf.String(), "status=201")
}

func TestHTTPSubmitter_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","data":{"error":"location is required"}}`))
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(srv.URL, "", time.Second, 0)
	_, err := s.Submit(context.Background(), testReport(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "location is required")
}

func TestHTTPSubmitter_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(srv.URL, "", time.Second, 0)
	_, err := s.Submit(context.Background(), testReport(nil))
	assert.ErrorIs(t, err, ErrUnavailable)
}

type stubSubmitter struct {
	id  int64
	err error
}

func (s stubSubmitter) Submit(ctx context.Context, r *models.EmergencyReport) (int64, error) {
	return s.id, s.err
}

func TestService_RecordsOutcome(t *testing.T) {
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	ok := NewService(stubSubmitter{id: 9}, db)
	res, err := ok.Submit(ctx, testReport(&models.Coordinate{Latitude: 4.0511, Longitude: 9.7679}))
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.RemoteID)

	rec, err := db.GetByID(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.ReportStatusReported, rec.Status)
	assert.Equal(t, int64(9), rec.RemoteID)
	assert.Len(t, rec.Geohash, geohashPrecision)
	assert.Equal(t, "fire", rec.Type)

	failing := NewService(stubSubmitter{err: ErrUnavailable}, db)
	res, err = failing.Submit(ctx, testReport(nil))
	assert.ErrorIs(t, err, ErrUnavailable)

	rec, err = db.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, rec.Status)
	assert.Empty(t, rec.Geohash)

	recent, err := ok.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestService_NoOutbox(t *testing.T) {
	s := NewService(stubSubmitter{id: 3}, nil)
	res, err := s.Submit(context.Background(), testReport(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.RemoteID)

	recent, err := s.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, recent)
}
