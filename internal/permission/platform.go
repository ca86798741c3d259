package permission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return p, nil
	default:
		return "", fmt.Errorf("unknown permission %q", s)
	}
}

// LocationErrorCode follows the numbering of the browser geolocation API.
type LocationErrorCode int

const (
	CodePermissionDenied    LocationErrorCode = 1
	CodePositionUnavailable LocationErrorCode = 2
	CodeTimeout             LocationErrorCode = 3
)

type LocationError struct {
	Code    LocationErrorCode
	Message string
}

func (e *LocationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("location error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("location error %d", e.Code)
}

// ErrUnsupported is returned by platforms without the requested capability.
var ErrUnsupported = errors.New("platform capability not supported")

type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Platform is the consent and positioning capability of the client device.
type Platform interface {
	RequestNotificationPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context, opts PositionOptions) (models.Coordinate, error)
}

// Answerer is implemented by platforms whose answers are pushed by the page.
type Answerer interface {
	AnswerPermission(p Permission)
	AnswerPosition(c models.Coordinate)
	AnswerPositionError(code LocationErrorCode)
}

// StaticPlatform answers from fixed values, for headless deployments and
// tests.
type StaticPlatform struct {
	Permission Permission
	Location   *models.Coordinate
	Failure    LocationErrorCode // used when Location is nil; zero means unsupported
}

func (s *StaticPlatform) RequestNotificationPermission(ctx context.Context) (Permission, error) {
	if s.Permission == "" {
		return "", ErrUnsupported
	}
	return s.Permission, nil
}

func (s *StaticPlatform) CurrentPosition(ctx context.Context, opts PositionOptions) (models.Coordinate, error) {
	if s.Location != nil {
		return *s.Location, nil
	}
	if s.Failure == 0 {
		return models.Coordinate{}, ErrUnsupported
	}
	return models.Coordinate{}, &LocationError{Code: s.Failure}
}

// PagePlatform waits for the hosting page to post the outcome of its
// permission prompt and geolocation request.
type PagePlatform struct {
	waitTimeout time.Duration

	mu           sync.Mutex
	permission   Permission
	permissionC  chan struct{}
	position     *models.Coordinate
	positionErr  error
	positionC    chan struct{}
	permAnswered bool
	posAnswered  bool
}

func NewPagePlatform(waitTimeout time.Duration) *PagePlatform {
	return &PagePlatform{
		waitTimeout: waitTimeout,
		permissionC: make(chan struct{}),
		positionC:   make(chan struct{}),
	}
}

func (p *PagePlatform) AnswerPermission(perm Permission) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permission = perm
	if !p.permAnswered {
		p.permAnswered = true
		close(p.permissionC)
	}
}

func (p *PagePlatform) AnswerPosition(c models.Coordinate) {
	p.answerPosition(&c, nil)
}

func (p *PagePlatform) AnswerPositionError(code LocationErrorCode) {
	p.answerPosition(nil, &LocationError{Code: code})
}

func (p *PagePlatform) answerPosition(c *models.Coordinate, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = c
	p.positionErr = err
	if !p.posAnswered {
		p.posAnswered = true
		close(p.positionC)
	}
}

// RequestNotificationPermission blocks until the page answers, the wait
// timeout elapses (PermissionDefault) or ctx is done.
func (p *PagePlatform) RequestNotificationPermission(ctx context.Context) (Permission, error) {
	timer := time.NewTimer(p.waitTimeout)
	defer timer.Stop()

	select {
	case <-p.permissionC:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.permission, nil
	case <-timer.C:
		return PermissionDefault, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CurrentPosition blocks until the page answers or ctx is done; the gateway
// bounds ctx with the position timeout.
func (p *PagePlatform) CurrentPosition(ctx context.Context, opts PositionOptions) (models.Coordinate, error) {
	select {
	case <-p.positionC:
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.positionErr != nil {
			return models.Coordinate{}, p.positionErr
		}
		return *p.position, nil
	case <-ctx.Done():
		return models.Coordinate{}, ctx.Err()
	}
}
