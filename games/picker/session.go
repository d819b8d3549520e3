/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package picker implements the finger-picker touch session: players rest
// fingers on a surface, a countdown shrinks every finger's disc, and one
// finger drawn at random is announced as the winner.
//
// A Session is not safe for concurrent use. One goroutine feeds it events
// through Dispatch and calls RunDue whenever NextDeadline passes.
package picker

import (
	"math/rand/v2"
	"time"
)

const (
	countdownAudioRate = 0.8
	winPulse           = 200 * time.Millisecond
)

// Mode is the lifecycle phase of a session.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeWaiting
	ModeCounting
	ModeAnnouncing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeWaiting:
		return "waiting"
	case ModeCounting:
		return "counting"
	case ModeAnnouncing:
		return "announcing"
	default:
		return "unknown"
	}
}

// Observer receives notable session transitions, mostly for metrics.
type Observer interface {
	CountdownStarted(touches int, restart bool)
	CountdownAborted()
	WinnerChosen(c Color)
	ProtocolViolation(v Violation)
}

type nopObserver struct{}

func (nopObserver) CountdownStarted(int, bool)  {}
func (nopObserver) CountdownAborted()           {}
func (nopObserver) WinnerChosen(Color)          {}
func (nopObserver) ProtocolViolation(Violation) {}

// Config tunes a session. Zero fields take the defaults below.
type Config struct {
	Countdown     time.Duration // 3s
	FrameInterval time.Duration // 1/60s
	IdleDelay     time.Duration // 5s
	HiddenDelay   time.Duration // 5s
	Scale         float64       // pixels per progress unit, 10

	Palette  []Color
	Clock    Clock
	Rand     *rand.Rand
	Logf     func(format string, args ...any)
	Observer Observer
}

func (c Config) withDefaults() Config {
	if c.Countdown <= 0 {
		c.Countdown = 3 * time.Second
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = time.Second / 60
	}
	if c.IdleDelay <= 0 {
		c.IdleDelay = 5 * time.Second
	}
	if c.HiddenDelay <= 0 {
		c.HiddenDelay = 5 * time.Second
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if len(c.Palette) == 0 {
		c.Palette = DefaultPalette()
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.Logf == nil {
		c.Logf = func(string, ...any) {}
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	return c
}

// Event is a message into the session dispatcher.
type Event interface {
	isEvent()
}

// Start is the user leaving the welcome screen.
type Start struct{}

type TouchesBegan struct{ Touches []Touch }

type TouchesMoved struct{ Touches []Touch }

type TouchesEnded struct{ Touches []Touch }

// QuickTap is a short touch that never became a sustained session.
type QuickTap struct{}

type VisibilityChanged struct{ Hidden bool }

type Resized struct{ Width, Height float64 }

func (Start) isEvent()             {}
func (TouchesBegan) isEvent()      {}
func (TouchesMoved) isEvent()      {}
func (TouchesEnded) isEvent()      {}
func (QuickTap) isEvent()          {}
func (VisibilityChanged) isEvent() {}
func (Resized) isEvent()           {}

// Session owns the registry, animation state, and timers of one surface.
type Session struct {
	cfg   Config
	out   Output
	mode  Mode
	reg   *Registry
	sched *Scheduler
	anim  Animator
	win   WinPhase

	instructions bool
}

func New(out Output, cfg Config) *Session {
	cfg = cfg.withDefaults()

	return &Session{
		cfg:   cfg,
		out:   out,
		reg:   newRegistry(newAssigner(cfg.Palette, cfg.Rand.IntN(len(cfg.Palette)))),
		sched: newScheduler(cfg.Clock),
	}
}

func (s *Session) Mode() Mode {
	return s.mode
}

// Touches returns a copy of every tracked touch, ordered by id.
func (s *Session) Touches() []TouchState {
	return s.reg.States()
}

// Countdown returns a copy of the animator state.
func (s *Session) Countdown() Animator {
	return s.anim
}

// Win returns a copy of the win phase state.
func (s *Session) Win() WinPhase {
	return s.win
}

func (s *Session) InstructionsShown() bool {
	return s.instructions
}

// NextDeadline reports when RunDue next has work to do.
func (s *Session) NextDeadline() (time.Time, bool) {
	return s.sched.Next()
}

// Dispatch applies one external event.
func (s *Session) Dispatch(ev Event) {
	switch e := ev.(type) {
	case Start:
		s.start()
	case Resized:
		s.out.Resize(e.Width, e.Height)
	case VisibilityChanged:
		s.visibility(e.Hidden)
	}

	if s.mode == ModeIdle {
		return
	}

	switch e := ev.(type) {
	case TouchesBegan:
		s.touchesBegan(e.Touches)
	case TouchesMoved:
		s.report(s.reg.Moved(e.Touches))
	case TouchesEnded:
		s.touchesEnded(e.Touches)
	case QuickTap:
		s.quickTap()
	}
}

// RunDue fires every task whose deadline has passed, earliest first.
func (s *Session) RunDue() {
	now := s.cfg.Clock.Now()
	for {
		t, ok := s.sched.popDue(now)
		if !ok {
			return
		}
		s.fire(t)
	}
}

func (s *Session) fire(t Task) {
	switch t {
	case TaskFrame:
		switch s.mode {
		case ModeCounting:
			s.countdownFrame()
		case ModeAnnouncing:
			s.winFrame()
		}
	case TaskRestart:
		if s.mode == ModeCounting {
			s.out.Clear()
			s.startCountdown(true)
		}
	case TaskIdle:
		if s.mode == ModeWaiting && s.reg.Len() == 0 && !s.instructions {
			s.out.SetVisible(RegionInstructions, true)
			s.instructions = true
		}
	case TaskHidden:
		s.hardReset()
	}
}

func (s *Session) start() {
	if s.mode != ModeIdle {
		return
	}

	s.mode = ModeWaiting
	s.out.SetVisible(RegionWelcome, false)
	s.out.SetVisible(RegionInstructions, true)
	s.instructions = true
	s.cfg.Logf("GAMES: Session started")
}

func (s *Session) visibility(hidden bool) {
	if !hidden {
		s.sched.Cancel(TaskHidden)
		return
	}
	if s.mode != ModeIdle {
		s.sched.Schedule(TaskHidden, s.cfg.HiddenDelay)
	}
}

func (s *Session) touchesBegan(batch []Touch) {
	s.sched.Cancel(TaskIdle)
	if s.instructions {
		s.out.SetVisible(RegionInstructions, false)
		s.instructions = false
	}

	switch {
	case s.win.Announcing():
		s.sched.Cancel(TaskFrame)
		s.win.reset()
		s.out.Clear()
		s.mode = ModeWaiting
	case s.win.Shown():
		s.clearResult()
	}

	added := s.reg.Began(batch)
	if len(added) == 0 {
		return
	}
	s.showPlayers()

	if s.mode == ModeCounting {
		s.sched.Cancel(TaskFrame)
		s.sched.Schedule(TaskRestart, 0)
		return
	}

	for _, id := range added {
		ts, _ := s.reg.Get(id)
		s.out.FillDisc(ts.X, ts.Y, s.cfg.Scale, ts.Color.Hex)
	}

	if s.reg.Len() >= 2 {
		s.startCountdown(false)
	}
}

func (s *Session) touchesEnded(batch []Touch) {
	before := s.reg.Len()
	s.report(s.reg.Ended(batch))
	if s.reg.Len() != before {
		s.showPlayers()
	}

	if s.mode == ModeCounting && s.reg.Len() < 2 {
		s.abort()
	}
	s.armIdle()
}

func (s *Session) quickTap() {
	if s.mode != ModeWaiting || !s.win.Shown() {
		return
	}

	s.clearResult()
}

func (s *Session) clearResult() {
	s.win.reset()
	s.out.Clear()
	s.out.SetText(LabelResult, "")
}

// startCountdown begins a fresh countdown over the current registry,
// superseding any earlier one.
func (s *Session) startCountdown(restart bool) {
	s.sched.Cancel(TaskFrame)
	s.sched.Cancel(TaskRestart)

	if !s.anim.begin(s.reg, s.cfg.Rand, s.cfg.Clock.Now()) {
		s.abort()
		return
	}

	s.mode = ModeCounting
	s.out.PlayAudio(countdownAudioRate)
	s.cfg.Observer.CountdownStarted(s.reg.Len(), restart)
	if restart {
		s.cfg.Logf("GAMES: Countdown restarted with %d touches", s.reg.Len())
	} else {
		s.cfg.Logf("GAMES: Countdown started with %d touches", s.reg.Len())
	}

	s.sched.Schedule(TaskFrame, 0)
}

func (s *Session) countdownFrame() {
	if s.anim.stale(s.reg) {
		s.startCountdown(true)
		return
	}

	s.anim.draw(s.out, s.reg, s.cfg.Scale)
	if s.anim.advance(s.cfg.Clock.Now(), s.cfg.Countdown) {
		s.handoff()
		return
	}

	s.sched.Schedule(TaskFrame, s.cfg.FrameInterval)
}

// handoff moves from the countdown to the win phase.
func (s *Session) handoff() {
	s.anim.stop()
	winner, _ := s.reg.Get(s.anim.winner)

	s.out.PauseAudio()
	s.out.Vibrate(winPulse)
	s.win.begin(winner)
	s.mode = ModeAnnouncing
	s.cfg.Observer.WinnerChosen(winner.Color)
	s.cfg.Logf("GAMES: %s chosen out of %d touches", winner.Color.Name, s.reg.Len())

	s.sched.Schedule(TaskFrame, s.cfg.FrameInterval)
}

func (s *Session) winFrame() {
	if !s.win.step(s.out, s.cfg.Scale) {
		s.sched.Schedule(TaskFrame, s.cfg.FrameInterval)
		return
	}

	s.out.SetText(LabelResult, s.win.Result())
	s.mode = ModeWaiting
	s.armIdle()
}

// abort stops a countdown without a winner.
func (s *Session) abort() {
	wasCounting := s.mode == ModeCounting

	s.anim.stop()
	s.sched.Cancel(TaskFrame)
	s.sched.Cancel(TaskRestart)
	s.out.Clear()
	s.mode = ModeWaiting

	if wasCounting {
		s.out.PauseAudio()
		s.cfg.Observer.CountdownAborted()
		s.cfg.Logf("GAMES: Countdown aborted with %d touches", s.reg.Len())
	}
}

func (s *Session) armIdle() {
	if s.mode == ModeWaiting && s.reg.Len() == 0 {
		s.sched.Schedule(TaskIdle, s.cfg.IdleDelay)
	}
}

// hardReset returns to the welcome screen with every piece of state dropped.
func (s *Session) hardReset() {
	if s.mode == ModeCounting {
		s.out.PauseAudio()
	}

	s.sched.CancelAll()
	s.anim.stop()
	s.win.reset()
	s.reg.clear()
	s.mode = ModeIdle
	s.instructions = false

	s.out.Clear()
	s.out.SetText(LabelResult, "")
	s.out.ShowPlayers(nil)
	s.out.SetVisible(RegionInstructions, false)
	s.out.SetVisible(RegionWelcome, true)
	s.cfg.Logf("GAMES: Session reset after being hidden")
}

func (s *Session) showPlayers() {
	states := s.reg.States()
	colors := make([]Color, 0, len(states))
	for _, ts := range states {
		colors = append(colors, ts.Color)
	}
	s.out.ShowPlayers(colors)
}

func (s *Session) report(violations []Violation) {
	for _, v := range violations {
		s.cfg.Logf("TOUCH: %v", v)
		s.cfg.Observer.ProtocolViolation(v)
	}
}
