package state

import (
	"sync"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

// AppState holds the page-lifetime state shared by the permission gateway,
// the dispatcher and the public API: last known location, the alert list
// (newest first) and the notification permission flag.
//
// The alert list grows without bound for the lifetime of the process.
type AppState struct {
	mu                  sync.RWMutex
	location            *models.Coordinate
	alerts              []models.Alert
	permission          bool
	permissionResolved  bool
	permissionResolvedC chan struct{}
}

func New() *AppState {
	return &AppState{
		permissionResolvedC: make(chan struct{}),
	}
}

func (s *AppState) Location() (models.Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.location == nil {
		return models.Coordinate{}, false
	}
	return *s.location, true
}

func (s *AppState) SetLocation(c models.Coordinate) {
	s.mu.Lock()
	s.location = &c
	s.mu.Unlock()
}

// NotificationPermission reports whether notifications were granted. It is
// false until the permission request has resolved.
func (s *AppState) NotificationPermission() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permission
}

// ResolvePermission records the outcome of a permission request. The first
// call releases everyone blocked in PermissionResolved; later calls only
// update the flag.
func (s *AppState) ResolvePermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = granted
	if !s.permissionResolved {
		s.permissionResolved = true
		close(s.permissionResolvedC)
	}
}

// PermissionResolved is closed once the permission outcome is known.
func (s *AppState) PermissionResolved() <-chan struct{} {
	return s.permissionResolvedC
}

// PrependAlert stores a at the head of the alert list.
func (s *AppState) PrependAlert(a models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, models.Alert{})
	copy(s.alerts[1:], s.alerts)
	s.alerts[0] = a
}

// Alerts returns a copy of the alert list, newest first.
func (s *AppState) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}
