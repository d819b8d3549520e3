/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

import (
	"math/rand/v2"
	"time"
)

const (
	fullProgress     = 100.0
	finishedProgress = 1.0
	spotlightBelow   = 3.0
	spotlightRadius  = 2.0
	backdropColor    = "#000000"
)

// Animator is the countdown state: Stopped until start, Running until the
// progress reaches finishedProgress or the session supersedes it.
type Animator struct {
	running  bool
	winner   TouchID
	progress float64
	start    time.Time
	count    int
	rounds   int
}

func (a Animator) Running() bool {
	return a.running
}

// Winner is the id drawn for the current (or last) countdown.
func (a Animator) Winner() TouchID {
	return a.winner
}

func (a Animator) Progress() float64 {
	return a.progress
}

// Rounds counts how many countdowns have started, restarts included.
func (a Animator) Rounds() int {
	return a.rounds
}

// begin starts a countdown over the current registry. It refuses to run
// with fewer than two touches.
func (a *Animator) begin(reg *Registry, rng *rand.Rand, now time.Time) bool {
	ids := reg.IDs()
	if len(ids) < 2 {
		a.running = false
		return false
	}

	a.running = true
	a.winner = ids[rng.IntN(len(ids))]
	a.progress = fullProgress
	a.start = now
	a.count = len(ids)
	a.rounds++

	return true
}

func (a *Animator) stop() {
	a.running = false
}

// stale reports whether the registry no longer matches the touches the
// countdown started with.
func (a *Animator) stale(reg *Registry) bool {
	if reg.Len() != a.count {
		return true
	}
	_, ok := reg.Get(a.winner)
	return !ok
}

// draw paints every tracked touch at the current progress.
func (a *Animator) draw(s Surface, reg *Registry, scale float64) {
	s.Clear()
	for _, ts := range reg.States() {
		s.FillDisc(ts.X, ts.Y, a.progress*scale, backdropColor)

		inner := (a.progress - 1) * scale
		if ts.ID == a.winner && a.progress < spotlightBelow {
			inner = spotlightRadius * scale
		}
		s.FillDisc(ts.X, ts.Y, inner, ts.Color.Hex)
	}
}

// advance recomputes progress from wall-clock time and reports completion.
func (a *Animator) advance(now time.Time, total time.Duration) bool {
	elapsed := now.Sub(a.start)
	a.progress = fullProgress - fullProgress*float64(elapsed)/float64(total)

	return a.progress <= finishedProgress
}
