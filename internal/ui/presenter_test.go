package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-emergency-alerts/internal/clock"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

func newTestPresenter() (*Presenter, *clock.Fake, <-chan Event, func()) {
	hub := NewHub()
	fake := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	id, ch := hub.Subscribe("test")
	return NewPresenter(hub, fake, 10*time.Second), fake, ch, func() { hub.Unsubscribe(id) }
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for len(ch) > 0 {
		out = append(out, <-ch)
	}
	return out
}

func TestPresenter_BannerAutoRemoval(t *testing.T) {
	p, fake, ch, cleanup := newTestPresenter()
	defer cleanup()

	id := p.ShowInAppAlert(models.Alert{Title: "Fire Alert", Message: "Fire reported", Severity: models.AlertSeverityHigh})

	el, ok := p.Get(id)
	require.True(t, ok)
	assert.Equal(t, KindBanner, el.Kind)
	assert.Equal(t, "danger", el.Variant)
	assert.True(t, el.Dismissible)

	fake.Advance(9999 * time.Millisecond)
	_, ok = p.Get(id)
	assert.True(t, ok, "banner should still be visible before 10s")

	fake.Advance(time.Millisecond)
	_, ok = p.Get(id)
	assert.False(t, ok, "banner should be removed after 10s")

	events := drain(ch)
	require.Len(t, events, 2)
	assert.Equal(t, EventShow, events[0].Type)
	assert.Equal(t, EventRemove, events[1].Type)
}

func TestPresenter_BannerVariant(t *testing.T) {
	p, _, _, cleanup := newTestPresenter()
	defer cleanup()

	id := p.ShowInAppAlert(models.Alert{Title: "Weather Alert", Severity: models.AlertSeverityMedium})
	el, _ := p.Get(id)
	assert.Equal(t, "warning", el.Variant)
}

func TestPresenter_BannerDismissCancelsTimer(t *testing.T) {
	p, fake, ch, cleanup := newTestPresenter()
	defer cleanup()

	id := p.ShowInAppAlert(models.Alert{Title: "Fire Alert", Severity: models.AlertSeverityHigh})
	assert.True(t, p.Dismiss(id))
	assert.Equal(t, 0, fake.Pending())

	fake.Advance(time.Minute)
	assert.Len(t, drain(ch), 2, "expected only show and remove")
	assert.False(t, p.Dismiss(id))
}

func TestPresenter_LoadingState(t *testing.T) {
	p, _, _, cleanup := newTestPresenter()
	defer cleanup()

	// No-op when absent
	p.HideLoadingState()

	p.ShowLoadingState("")
	el, ok := p.Get(LoaderID)
	require.True(t, ok)
	assert.Equal(t, "Loading...", el.Body)

	p.ShowLoadingState("Reporting emergency...")
	assert.Len(t, p.Elements(), 1, "loader is a singleton")
	el, _ = p.Get(LoaderID)
	assert.Equal(t, "Reporting emergency...", el.Body)

	p.HideLoadingState()
	_, ok = p.Get(LoaderID)
	assert.True(t, ok, "loader stays until every show is released")

	p.HideLoadingState()
	_, ok = p.Get(LoaderID)
	assert.False(t, ok)
}

func TestPresenter_LoadingStateRefCount(t *testing.T) {
	p, _, ch, cleanup := newTestPresenter()
	defer cleanup()

	p.ShowLoadingState("a")
	p.ShowLoadingState("b")
	p.HideLoadingState()
	p.HideLoadingState()
	p.HideLoadingState()

	_, ok := p.Get(LoaderID)
	assert.False(t, ok)

	events := drain(ch)
	require.Len(t, events, 3)
	assert.Equal(t, EventShow, events[0].Type)
	assert.Equal(t, EventUpdate, events[1].Type)
	assert.Equal(t, EventRemove, events[2].Type)

	// Extra hides must not leave a negative balance behind.
	p.ShowLoadingState("c")
	_, ok = p.Get(LoaderID)
	require.True(t, ok)
	p.HideLoadingState()
	_, ok = p.Get(LoaderID)
	assert.False(t, ok)
}

func TestPresenter_RemoveLoaderClearsRefs(t *testing.T) {
	p, _, _, cleanup := newTestPresenter()
	defer cleanup()

	p.ShowLoadingState("")
	p.ShowLoadingState("")
	assert.True(t, p.Remove(LoaderID))

	p.ShowLoadingState("")
	p.HideLoadingState()
	_, ok := p.Get(LoaderID)
	assert.False(t, ok)
}

func TestPresenter_ToastRemovedOnHidden(t *testing.T) {
	p, fake, _, cleanup := newTestPresenter()
	defer cleanup()

	okID := p.ShowSuccessMessage("Connection restored.")
	errID := p.ShowErrorMessage("You are offline.")

	okEl, _ := p.Get(okID)
	errEl, _ := p.Get(errID)
	assert.Equal(t, "success", okEl.Variant)
	assert.Equal(t, "Success", okEl.Title)
	assert.Equal(t, "danger", errEl.Variant)
	assert.Equal(t, "Error", errEl.Title)

	// Toasts have no fixed lifetime.
	fake.Advance(time.Hour)
	assert.Len(t, p.Elements(), 2)

	assert.True(t, p.Hidden(okID))
	assert.Len(t, p.Elements(), 1)
	assert.Equal(t, errID, p.Elements()[0].ID)
}

func TestPresenter_Update(t *testing.T) {
	p, _, ch, cleanup := newTestPresenter()
	defer cleanup()

	id := p.ShowTimer("CPR Timer: 3s", "Continue compressions")
	assert.True(t, p.Update(id, "CPR Timer: 2s", "Continue compressions"))

	el, _ := p.Get(id)
	assert.Equal(t, "CPR Timer: 2s", el.Title)

	p.Remove(id)
	assert.False(t, p.Update(id, "x", "y"))

	events := drain(ch)
	require.Len(t, events, 3)
	assert.Equal(t, EventUpdate, events[1].Type)
}
