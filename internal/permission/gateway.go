package permission

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/state"
)

const locationDeniedPrefix = "Location access denied. "

// Gateway mediates platform consent for notifications and location and
// records the outcome in the application state.
type Gateway struct {
	platform Platform
	state    *state.AppState
	opts     PositionOptions
}

func NewGateway(platform Platform, st *state.AppState, opts PositionOptions) *Gateway {
	return &Gateway{
		platform: platform,
		state:    st,
		opts:     opts,
	}
}

// Initialize requests notification permission and the initial position
// concurrently and returns once both have settled. Failures are logged only.
func (g *Gateway) Initialize(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g.RequestNotificationPermission(ctx)
	}()
	go func() {
		defer wg.Done()
		g.InitializeLocation(ctx)
	}()
	wg.Wait()
}

// RequestNotificationPermission asks the platform for notification consent.
// The state flag becomes true only for PermissionGranted; any failure leaves
// it false. Either way the permission is marked resolved.
func (g *Gateway) RequestNotificationPermission(ctx context.Context) (Permission, error) {
	perm, err := g.platform.RequestNotificationPermission(ctx)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			slog.Info("notifications not supported by platform")
		} else {
			slog.Warn("notification permission request failed", "error", err)
		}
		g.state.ResolvePermission(false)
		return "", err
	}

	g.state.ResolvePermission(perm == PermissionGranted)
	slog.Info("notification permission", "permission", perm)
	return perm, nil
}

// InitializeLocation makes a single attempt to obtain the current position.
func (g *Gateway) InitializeLocation(ctx context.Context) (models.Coordinate, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	c, err := g.platform.CurrentPosition(ctx, g.opts)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			slog.Info("geolocation not supported by platform")
			return models.Coordinate{}, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = &LocationError{Code: CodeTimeout, Message: err.Error()}
		}
		slog.Warn(LocationMessage(err), "error", err)
		return models.Coordinate{}, err
	}

	g.state.SetLocation(c)
	slog.Info("user location obtained", "lat", c.Latitude, "lng", c.Longitude, "accuracy", c.Accuracy)
	return c, nil
}

// SetPermission records a permission outcome reported by the page.
func (g *Gateway) SetPermission(p Permission) {
	if a, ok := g.platform.(Answerer); ok {
		a.AnswerPermission(p)
	}
	g.state.ResolvePermission(p == PermissionGranted)
}

// SetLocation records a position reported by the page.
func (g *Gateway) SetLocation(c models.Coordinate) {
	if a, ok := g.platform.(Answerer); ok {
		a.AnswerPosition(c)
	}
	g.state.SetLocation(c)
}

// SetLocationError records a geolocation failure reported by the page and
// returns the warning text for it.
func (g *Gateway) SetLocationError(code LocationErrorCode) string {
	if a, ok := g.platform.(Answerer); ok {
		a.AnswerPositionError(code)
	}
	msg := LocationMessage(&LocationError{Code: code})
	slog.Warn(msg, "code", code)
	return msg
}

// LocationMessage maps a geolocation failure to its user-facing warning.
func LocationMessage(err error) string {
	var le *LocationError
	if !errors.As(err, &le) {
		return locationDeniedPrefix
	}
	switch le.Code {
	case CodePermissionDenied:
		return locationDeniedPrefix + "Please enable location services for emergency alerts."
	case CodePositionUnavailable:
		return locationDeniedPrefix + "Location information unavailable."
	case CodeTimeout:
		return locationDeniedPrefix + "Location request timed out."
	default:
		return locationDeniedPrefix
	}
}
