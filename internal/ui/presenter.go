package ui

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-emergency-alerts/internal/clock"
	"github.com/mr1hm/go-emergency-alerts/internal/metrics"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

type ElementKind string

const (
	KindBanner ElementKind = "banner"
	KindLoader ElementKind = "loader"
	KindToast  ElementKind = "toast"
	KindTimer  ElementKind = "timer"
)

// LoaderID is the singleton id of the full-screen loading overlay.
const LoaderID = "globalLoader"

type EventType string

const (
	EventShow   EventType = "show"
	EventUpdate EventType = "update"
	EventRemove EventType = "remove"
	EventNotify EventType = "notification"
)

type Element struct {
	ID          string      `json:"id"`
	Kind        ElementKind `json:"kind"`
	Variant     string      `json:"variant"` // danger, warning, success
	Title       string      `json:"title,omitempty"`
	Body        string      `json:"body,omitempty"`
	Dismissible bool        `json:"dismissible"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type Event struct {
	Type         EventType            `json:"type"`
	Element      *Element             `json:"element,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

type entry struct {
	el    Element
	seq   uint64
	timer clock.Timer
}

// Presenter owns the transient elements shown on the page. Every change is
// published on the hub; removed elements leave nothing behind.
type Presenter struct {
	hub       *Hub
	sched     clock.Scheduler
	bannerTTL time.Duration

	mu         sync.Mutex
	seq        uint64
	elements   map[string]*entry
	loaderRefs int
}

func NewPresenter(hub *Hub, sched clock.Scheduler, bannerTTL time.Duration) *Presenter {
	return &Presenter{
		hub:       hub,
		sched:     sched,
		bannerTTL: bannerTTL,
		elements:  make(map[string]*entry),
	}
}

// ShowInAppAlert renders a severity-colored banner that removes itself after
// the banner TTL unless dismissed first.
func (p *Presenter) ShowInAppAlert(a models.Alert) string {
	variant := "warning"
	if a.Severity == models.AlertSeverityHigh {
		variant = "danger"
	}
	el := Element{
		ID:          uuid.NewString(),
		Kind:        KindBanner,
		Variant:     variant,
		Title:       a.Title,
		Body:        a.Message,
		Dismissible: true,
	}
	p.show(el)

	id := el.ID
	timer := p.sched.AfterFunc(p.bannerTTL, func() { p.Remove(id) })
	p.mu.Lock()
	if e, ok := p.elements[id]; ok {
		e.timer = timer
	}
	p.mu.Unlock()

	return id
}

// ShowLoadingState shows the loader, or relabels it when already shown. Each
// call must be paired with a HideLoadingState.
func (p *Presenter) ShowLoadingState(message string) {
	if message == "" {
		message = "Loading..."
	}
	p.mu.Lock()
	p.loaderRefs++
	p.mu.Unlock()
	p.show(Element{
		ID:      LoaderID,
		Kind:    KindLoader,
		Body:    message,
		Variant: "dark",
	})
}

// HideLoadingState releases one ShowLoadingState. The loader goes away with
// the last release; extra calls are no-ops.
func (p *Presenter) HideLoadingState() {
	p.mu.Lock()
	if p.loaderRefs == 0 {
		p.mu.Unlock()
		return
	}
	p.loaderRefs--
	if p.loaderRefs > 0 {
		p.mu.Unlock()
		return
	}
	e, ok := p.removeLocked(LoaderID)
	p.mu.Unlock()

	if ok {
		p.removed(e)
	}
}

// ShowSuccessMessage shows a toast that stays until the page reports its
// hide animation finished (see Hidden).
func (p *Presenter) ShowSuccessMessage(message string) string {
	return p.showToast("success", "Success", message)
}

func (p *Presenter) ShowErrorMessage(message string) string {
	return p.showToast("danger", "Error", message)
}

func (p *Presenter) showToast(variant, title, message string) string {
	el := Element{
		ID:          uuid.NewString(),
		Kind:        KindToast,
		Variant:     variant,
		Title:       title,
		Body:        message,
		Dismissible: true,
	}
	p.show(el)
	return el.ID
}

// ShowTimer displays a countdown panel and returns its id.
func (p *Presenter) ShowTimer(title, body string) string {
	el := Element{
		ID:      uuid.NewString(),
		Kind:    KindTimer,
		Variant: "success",
		Title:   title,
		Body:    body,
	}
	p.show(el)
	return el.ID
}

// Update replaces the text of a live element. It returns false when the
// element is gone.
func (p *Presenter) Update(id, title, body string) bool {
	p.mu.Lock()
	e, ok := p.elements[id]
	if !ok {
		p.mu.Unlock()
		return false
	}
	e.el.Title = title
	e.el.Body = body
	el := e.el
	p.mu.Unlock()

	p.hub.Broadcast(Event{Type: EventUpdate, Element: &el})
	return true
}

// Dismiss handles an explicit user dismissal.
func (p *Presenter) Dismiss(id string) bool {
	return p.Remove(id)
}

// Hidden is reported by the page when a toast finished its hide animation.
func (p *Presenter) Hidden(id string) bool {
	return p.Remove(id)
}

// Remove deletes the element and cancels its auto-removal. Removing an
// element that is already gone is a no-op. Removing the loader directly
// drops every outstanding ShowLoadingState.
func (p *Presenter) Remove(id string) bool {
	p.mu.Lock()
	e, ok := p.removeLocked(id)
	if id == LoaderID {
		p.loaderRefs = 0
	}
	p.mu.Unlock()

	if ok {
		p.removed(e)
	}
	return ok
}

func (p *Presenter) removeLocked(id string) (*entry, bool) {
	e, ok := p.elements[id]
	if !ok {
		return nil, false
	}
	delete(p.elements, id)
	if e.timer != nil {
		e.timer.Stop()
	}
	return e, true
}

func (p *Presenter) removed(e *entry) {
	metrics.UIElements.WithLabelValues(string(e.el.Kind)).Dec()
	el := e.el
	p.hub.Broadcast(Event{Type: EventRemove, Element: &el})
}

// Elements returns the live elements in display order.
func (p *Presenter) Elements() []Element {
	p.mu.Lock()
	entries := make([]entry, 0, len(p.elements))
	for _, e := range p.elements {
		entries = append(entries, *e)
	}
	p.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Element, len(entries))
	for i, e := range entries {
		out[i] = e.el
	}
	return out
}

// Get returns a live element by id.
func (p *Presenter) Get(id string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.elements[id]
	if !ok {
		return Element{}, false
	}
	return e.el, true
}

func (p *Presenter) show(el Element) {
	el.CreatedAt = p.sched.Now()

	p.mu.Lock()
	p.seq++
	evType := EventShow
	if old, ok := p.elements[el.ID]; ok {
		evType = EventUpdate
		if old.timer != nil {
			old.timer.Stop()
		}
	} else {
		metrics.UIElements.WithLabelValues(string(el.Kind)).Inc()
	}
	p.elements[el.ID] = &entry{el: el, seq: p.seq}
	p.mu.Unlock()

	p.hub.Broadcast(Event{Type: evType, Element: &el})
}
