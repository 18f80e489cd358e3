/*
Framolux Core
Copyright (C) 2025 The Framolux Authors

This file is part of Framolux Core.

Framolux Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Framolux Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Framolux Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package playback drives the editor preview: a single timeline that walks an
// animation's frames at a fixed cadence and pushes each one to a sink.
package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// TargetFPS is the preview rate. Per-frame durations are only honoured
	// by the device, never by the preview.
	TargetFPS = 15
	// FrameInterval is round(1000/TargetFPS) milliseconds.
	FrameInterval = 67 * time.Millisecond
)

var (
	ErrNoAnimation     = errors.New("no animation loaded")
	ErrEmptyAnimation  = errors.New("animation has no frames")
	ErrFrameOutOfRange = errors.New("frame index out of range")
	ErrLastFrame       = errors.New("an animation must have at least one frame")
)

// Sink receives every frame the scheduler displays. It is called while the
// scheduler's lock is held and must not call back into the scheduler.
type Sink func(index int, frame matrix.Frame)

// Scheduler is a two-state (stopped/playing) machine. At most one advance is
// pending at any time; every stop invalidates it so a late timer can't move
// the timeline.
type Scheduler struct {
	clock    clockwork.Clock
	timer    clockwork.Timer
	sink     Sink
	anim     *matrix.Animation
	interval time.Duration
	index    int
	gen      uint64
	playing  bool
	mu       syncutil.Mutex
}

// New returns a stopped scheduler with no animation. A non-positive interval
// uses FrameInterval.
func New(clock clockwork.Clock, interval time.Duration, sink Sink) *Scheduler {
	if interval <= 0 {
		interval = FrameInterval
	}
	if sink == nil {
		sink = func(int, matrix.Frame) {}
	}
	return &Scheduler{
		clock:    clock,
		sink:     sink,
		interval: interval,
	}
}

func (s *Scheduler) emit() {
	if s.anim == nil || s.index < 0 || s.index >= len(s.anim.Frames) {
		return
	}
	s.sink(s.index, s.anim.Frames[s.index].Clone())
}

func (s *Scheduler) schedule() {
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.interval, func() {
		s.tick(gen)
	})
}

func (s *Scheduler) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.playing = false
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.playing || s.anim == nil {
		return
	}

	n := len(s.anim.Frames)
	next := (s.index + 1) % n
	if !s.anim.Loop && next == 0 && n > 1 {
		log.Debug().Int("frames", n).Msg("playback reached end of non-looping animation")
		s.stop()
		return
	}

	s.index = next
	s.schedule()
	s.emit()
}

// SetAnimation stops playback, installs a copy of a, rewinds to frame 0 and
// displays it.
func (s *Scheduler) SetAnimation(a *matrix.Animation) error {
	if a == nil {
		return ErrNoAnimation
	}
	if len(a.Frames) == 0 {
		return ErrEmptyAnimation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
	s.anim = a.Clone()
	s.index = 0
	s.emit()
	return nil
}

// Play starts playback from the current frame. It reports whether the state
// changed; playing twice or playing with nothing loaded is a no-op.
func (s *Scheduler) Play() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing || s.anim == nil || len(s.anim.Frames) == 0 {
		return false
	}

	s.playing = true
	s.schedule()
	s.emit()
	return true
}

// Stop halts playback and cancels the pending advance. Safe to call when
// already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// Toggle plays when stopped and stops when playing. It returns the new
// playing state.
func (s *Scheduler) Toggle() bool {
	s.mu.Lock()
	playing := s.playing
	s.mu.Unlock()

	if playing {
		s.Stop()
		return false
	}
	return s.Play()
}

// GoToFrame stops playback and shows frame i.
func (s *Scheduler) GoToFrame(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.anim == nil {
		return ErrNoAnimation
	}
	s.stop()
	if i < 0 || i >= len(s.anim.Frames) {
		return fmt.Errorf("%w: %d", ErrFrameOutOfRange, i)
	}
	s.index = i
	s.emit()
	return nil
}

// Next stops playback and shows the following frame, wrapping at the end.
func (s *Scheduler) Next() error {
	return s.step(1)
}

// Previous stops playback and shows the preceding frame, wrapping at the start.
func (s *Scheduler) Previous() error {
	return s.step(-1)
}

func (s *Scheduler) step(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.anim == nil {
		return ErrNoAnimation
	}
	s.stop()
	n := len(s.anim.Frames)
	s.index = ((s.index+delta)%n + n) % n
	s.emit()
	return nil
}

// AddFrame duplicates the current frame, inserts the copy right after it and
// moves to the copy. It returns the new index.
func (s *Scheduler) AddFrame() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.anim == nil {
		return 0, ErrNoAnimation
	}

	dup := s.anim.Frames[s.index].Clone()
	at := s.index + 1
	frames := make([]matrix.Frame, 0, len(s.anim.Frames)+1)
	frames = append(frames, s.anim.Frames[:at]...)
	frames = append(frames, dup)
	frames = append(frames, s.anim.Frames[at:]...)
	s.anim.Frames = frames
	s.index = at
	s.emit()
	return s.index, nil
}

// DeleteFrame removes the current frame. The last remaining frame can't be
// deleted.
func (s *Scheduler) DeleteFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.anim == nil {
		return ErrNoAnimation
	}
	if len(s.anim.Frames) <= 1 {
		log.Warn().Msg("refusing to delete the only frame")
		return ErrLastFrame
	}

	s.anim.Frames = append(s.anim.Frames[:s.index], s.anim.Frames[s.index+1:]...)
	if s.index >= len(s.anim.Frames) {
		s.index = len(s.anim.Frames) - 1
	}
	s.emit()
	return nil
}

// ReplaceCurrentFrame swaps the pixels of the current frame. The frame keeps
// its duration, or gets the default one if it had none.
func (s *Scheduler) ReplaceCurrentFrame(g matrix.Grid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.anim == nil {
		return ErrNoAnimation
	}
	s.stop()

	duration := s.anim.Frames[s.index].Duration
	if duration == 0 {
		duration = matrix.DefaultFrameDuration
	}
	s.anim.Frames[s.index] = matrix.Frame{Pixels: g.Clone(), Duration: duration}
	s.emit()
	return nil
}

// Reset stops playback and unloads the animation.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
	s.anim = nil
	s.index = 0
}

func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Scheduler) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Scheduler) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anim == nil {
		return 0
	}
	return len(s.anim.Frames)
}

// Animation returns a copy of the loaded animation, or nil.
func (s *Scheduler) Animation() *matrix.Animation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anim.Clone()
}

// CurrentFrame returns a copy of the frame at the current index.
func (s *Scheduler) CurrentFrame() (matrix.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anim == nil {
		return matrix.Frame{}, false
	}
	return s.anim.Frames[s.index].Clone(), true
}

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	Description string `json:"description"`
	Index       int    `json:"index"`
	FrameCount  int    `json:"frameCount"`
	Playing     bool   `json:"playing"`
	Loop        bool   `json:"loop"`
	Loaded      bool   `json:"loaded"`
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Index: s.index, Playing: s.playing}
	if s.anim != nil {
		snap.Loaded = true
		snap.Description = s.anim.Description
		snap.FrameCount = len(s.anim.Frames)
		snap.Loop = s.anim.Loop
	}
	return snap
}
