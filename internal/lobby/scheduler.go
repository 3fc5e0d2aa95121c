// internal/lobby/scheduler.go
package lobby

import (
	"time"

	"github.com/google/uuid"
)

// Timer is a scheduled task that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// scheduleUnsafe replaces any timer under key with one that runs fn after d. fn runs with the
// lobby lock held and only if the timer is still the one indexed under key. Assumes lock is held.
func (l *Lobby) scheduleUnsafe(key uuid.UUID, d time.Duration, fn func()) {
	l.cancelTimerUnsafe(key)

	var t Timer
	t = l.opts.Scheduler.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.destroyed || l.timers[key] != t {
			return
		}
		delete(l.timers, key)
		fn()
	})
	l.timers[key] = t
}

// cancelTimerUnsafe stops the timer under key. It is safe to call when none is pending.
// Assumes lock is held.
func (l *Lobby) cancelTimerUnsafe(key uuid.UUID) bool {
	t, ok := l.timers[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(l.timers, key)
	return true
}

func (l *Lobby) clearTimersUnsafe() {
	for key, t := range l.timers {
		t.Stop()
		delete(l.timers, key)
	}
}
