package firstaid

import (
	"fmt"
	"sync"
	"time"

	"github.com/mr1hm/go-emergency-alerts/internal/clock"
)

const (
	DefaultDuration = 30
	tick            = time.Second

	compressionsHint = "Continue compressions"
	breathsTitle     = "Give 2 rescue breaths"
	breathsHint      = "Then restart compressions"
)

type Phase int

const (
	PhaseRunning Phase = iota
	PhaseCue
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseCue:
		return "cue"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Display is the panel a CPR timer renders into.
type Display interface {
	ShowTimer(title, body string) string
	Update(id, title, body string) bool
	Remove(id string) bool
}

// CPRTimer counts down compressions once per second, then shows the rescue
// breaths cue and removes itself after cueTTL.
//
// running(n) -> running(n-1) every second while n > 0
// running(0) -> cue immediately
// cue        -> done after cueTTL
type CPRTimer struct {
	display Display
	sched   clock.Scheduler
	cueTTL  time.Duration

	mu          sync.Mutex
	id          string
	phase       Phase
	secondsLeft int
}

// Start creates and starts a CPR timer. Callers without a duration pass
// DefaultDuration; zero or less goes straight to the rescue breaths cue.
func Start(display Display, sched clock.Scheduler, duration int, cueTTL time.Duration) *CPRTimer {
	if duration < 0 {
		duration = 0
	}
	t := &CPRTimer{
		display:     display,
		sched:       sched,
		cueTTL:      cueTTL,
		phase:       PhaseRunning,
		secondsLeft: duration,
	}

	t.mu.Lock()
	t.id = display.ShowTimer(countdownTitle(duration), compressionsHint)
	t.mu.Unlock()

	t.step()
	return t
}

func (t *CPRTimer) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// State returns the current phase and remaining seconds.
func (t *CPRTimer) State() (Phase, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase, t.secondsLeft
}

// step schedules the next transition, entering the cue once the count hits zero.
func (t *CPRTimer) step() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.phase {
	case PhaseRunning:
		if t.secondsLeft > 0 {
			t.sched.AfterFunc(tick, t.onTick)
			return
		}
		t.phase = PhaseCue
		t.display.Update(t.id, breathsTitle, breathsHint)
		t.sched.AfterFunc(t.cueTTL, t.onCueExpired)
	}
}

func (t *CPRTimer) onTick() {
	t.mu.Lock()
	t.secondsLeft--
	if t.secondsLeft > 0 {
		t.display.Update(t.id, countdownTitle(t.secondsLeft), compressionsHint)
	}
	t.mu.Unlock()
	t.step()
}

func (t *CPRTimer) onCueExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseDone
	t.display.Remove(t.id)
}

func countdownTitle(n int) string {
	return fmt.Sprintf("CPR Timer: %ds", n)
}
