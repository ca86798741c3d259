package ui

import (
	"context"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

// PageNotifier delivers platform notifications through the page's event
// stream; the page turns them into system notifications.
type PageNotifier struct {
	hub *Hub
}

func NewPageNotifier(hub *Hub) *PageNotifier {
	return &PageNotifier{hub: hub}
}

func (n *PageNotifier) Notify(ctx context.Context, note models.Notification) error {
	n.hub.Broadcast(Event{Type: EventNotify, Notification: &note})
	return nil
}
