/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

import "time"

// Task names the purpose of a scheduled callback. Each purpose has one slot.
type Task uint8

const (
	TaskFrame Task = iota
	TaskRestart
	TaskIdle
	TaskHidden

	taskCount
)

func (t Task) String() string {
	switch t {
	case TaskFrame:
		return "frame"
	case TaskRestart:
		return "restart"
	case TaskIdle:
		return "idle"
	case TaskHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Clock supplies wall-clock time to a session.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Scheduler keeps at most one pending deadline per Task. It never starts
// goroutines; the owner polls Next and calls popDue from its own loop.
type Scheduler struct {
	clock Clock
	due   [taskCount]time.Time
	armed [taskCount]bool
}

func newScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Schedule replaces any pending task of the same purpose.
func (s *Scheduler) Schedule(t Task, d time.Duration) {
	s.due[t] = s.clock.Now().Add(d)
	s.armed[t] = true
}

func (s *Scheduler) Cancel(t Task) {
	s.armed[t] = false
	s.due[t] = time.Time{}
}

func (s *Scheduler) CancelAll() {
	for t := range taskCount {
		s.Cancel(t)
	}
}

func (s *Scheduler) Pending(t Task) bool {
	return s.armed[t]
}

// Next reports the earliest pending deadline.
func (s *Scheduler) Next() (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for t := range taskCount {
		if !s.armed[t] {
			continue
		}
		if !found || s.due[t].Before(next) {
			next = s.due[t]
			found = true
		}
	}

	return next, found
}

// popDue disarms and returns the earliest task due at or before now.
func (s *Scheduler) popDue(now time.Time) (Task, bool) {
	best := taskCount
	for t := range taskCount {
		if !s.armed[t] || s.due[t].After(now) {
			continue
		}
		if best == taskCount || s.due[t].Before(s.due[best]) {
			best = t
		}
	}
	if best == taskCount {
		return 0, false
	}

	s.Cancel(best)
	return best, true
}
