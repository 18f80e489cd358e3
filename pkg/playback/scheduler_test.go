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

package playback

import (
	"context"
	"testing"
	"time"

	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects sink emissions. Fake clock timers fire on their own
// goroutine, so emissions are read back through a channel.
type recorder struct {
	ch chan int
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan int, 64)}
}

func (r *recorder) sink(index int, _ matrix.Frame) {
	r.ch <- index
}

func (r *recorder) next(t *testing.T) int {
	t.Helper()
	select {
	case i := <-r.ch:
		return i
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return -1
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case i := <-r.ch:
		t.Fatalf("unexpected frame %d", i)
	case <-time.After(50 * time.Millisecond):
	}
}

// tick waits for the pending advance to be registered and fires it.
func tick(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(FrameInterval)
}

func testAnimation(frames int, loop bool) *matrix.Animation {
	colors := []string{"#FF0000", "#00FF00", "#0000FF", "#FFFFFF", "#FFFF00"}
	a := &matrix.Animation{Description: "test", Loop: loop}
	for i := 0; i < frames; i++ {
		a.Frames = append(a.Frames, matrix.Frame{
			Pixels:   matrix.NewGrid(2, colors[i%len(colors)]),
			Duration: uint32(100 + i),
		})
	}
	return a
}

func newTestScheduler(t *testing.T, a *matrix.Animation) (*Scheduler, *clockwork.FakeClock, *recorder) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	s := New(clock, 0, rec.sink)
	t.Cleanup(s.Stop)
	if a != nil {
		require.NoError(t, s.SetAnimation(a))
		require.Equal(t, 0, rec.next(t))
	}
	return s, clock, rec
}

func TestPlay_NoAnimation(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, nil)
	assert.False(t, s.Play())
	assert.False(t, s.Playing())
	rec.none(t)
}

func TestPlay_Twice(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(2, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	assert.False(t, s.Play())
	rec.none(t)
}

func TestPlay_LoopWraps(t *testing.T) {
	t.Parallel()

	s, clock, rec := newTestScheduler(t, testAnimation(3, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	for _, want := range []int{1, 2, 0, 1} {
		tick(t, clock)
		assert.Equal(t, want, rec.next(t))
	}
	assert.True(t, s.Playing())
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestPlay_NonLoopStopsAtEnd(t *testing.T) {
	t.Parallel()

	s, clock, rec := newTestScheduler(t, testAnimation(3, false))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	tick(t, clock)
	assert.Equal(t, 1, rec.next(t))
	tick(t, clock)
	assert.Equal(t, 2, rec.next(t))
	tick(t, clock)

	assert.Eventually(t, func() bool { return !s.Playing() }, time.Second, time.Millisecond)
	rec.none(t)
	assert.Equal(t, 2, s.CurrentIndex())
}

func TestPlay_NonLoopSingleFrameKeepsPlaying(t *testing.T) {
	t.Parallel()

	s, clock, rec := newTestScheduler(t, testAnimation(1, false))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	tick(t, clock)
	assert.Equal(t, 0, rec.next(t))
	assert.True(t, s.Playing())
}

func TestPlay_ResumesAtCurrentIndex(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(4, true))
	require.NoError(t, s.GoToFrame(2))
	assert.Equal(t, 2, rec.next(t))

	require.True(t, s.Play())
	assert.Equal(t, 2, rec.next(t))
}

func TestStop_CancelsPendingAdvance(t *testing.T) {
	t.Parallel()

	s, clock, rec := newTestScheduler(t, testAnimation(3, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	s.Stop()
	s.Stop()
	clock.Advance(10 * FrameInterval)

	rec.none(t)
	assert.False(t, s.Playing())
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestTick_StaleGenerationIgnored(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(3, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	s.mu.Lock()
	stale := s.gen
	s.mu.Unlock()

	// Restart so the first pending advance belongs to an old generation.
	s.Stop()
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	s.tick(stale)
	rec.none(t)
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestSetAnimation_StopsAndRewinds(t *testing.T) {
	t.Parallel()

	s, clock, rec := newTestScheduler(t, testAnimation(3, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))
	tick(t, clock)
	assert.Equal(t, 1, rec.next(t))

	require.NoError(t, s.SetAnimation(testAnimation(5, false)))
	assert.Equal(t, 0, rec.next(t))
	assert.False(t, s.Playing())
	assert.Equal(t, 5, s.FrameCount())

	clock.Advance(FrameInterval)
	rec.none(t)
}

func TestSetAnimation_Invalid(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, nil)
	require.ErrorIs(t, s.SetAnimation(nil), ErrNoAnimation)
	require.ErrorIs(t, s.SetAnimation(&matrix.Animation{}), ErrEmptyAnimation)
}

func TestSetAnimation_CopiesInput(t *testing.T) {
	t.Parallel()

	a := testAnimation(2, true)
	s, _, _ := newTestScheduler(t, a)
	a.Frames[0].Pixels[0][0] = "#123456"

	f, ok := s.CurrentFrame()
	require.True(t, ok)
	assert.Equal(t, "#FF0000", f.Pixels[0][0])
}

func TestToggle(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(2, true))
	assert.True(t, s.Toggle())
	assert.Equal(t, 0, rec.next(t))
	assert.False(t, s.Toggle())
	assert.False(t, s.Playing())
}

func TestGoToFrame(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(3, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	require.NoError(t, s.GoToFrame(2))
	assert.Equal(t, 2, rec.next(t))
	assert.False(t, s.Playing())

	require.ErrorIs(t, s.GoToFrame(3), ErrFrameOutOfRange)
	require.ErrorIs(t, s.GoToFrame(-1), ErrFrameOutOfRange)
	assert.Equal(t, 2, s.CurrentIndex())
	rec.none(t)
}

func TestNextPrevious(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(3, false))

	require.NoError(t, s.Previous())
	assert.Equal(t, 2, rec.next(t))
	require.NoError(t, s.Next())
	assert.Equal(t, 0, rec.next(t))
	require.NoError(t, s.Next())
	assert.Equal(t, 1, rec.next(t))
}

func TestAddFrame(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(3, true))
	require.NoError(t, s.GoToFrame(1))
	assert.Equal(t, 1, rec.next(t))

	idx, err := s.AddFrame()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 2, rec.next(t))

	a := s.Animation()
	require.Len(t, a.Frames, 4)
	assert.Equal(t, a.Frames[1], a.Frames[2])
	assert.Equal(t, "#0000FF", a.Frames[3].Pixels[0][0])

	// The duplicate must be a deep copy.
	require.NoError(t, s.ReplaceCurrentFrame(matrix.NewGrid(2, "#ABCDEF")))
	a = s.Animation()
	assert.Equal(t, "#00FF00", a.Frames[1].Pixels[0][0])
	assert.Equal(t, "#ABCDEF", a.Frames[2].Pixels[0][0])
	assert.Equal(t, uint32(101), a.Frames[2].Duration)
}

func TestDeleteFrame(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(3, true))
	require.NoError(t, s.GoToFrame(2))
	assert.Equal(t, 2, rec.next(t))

	require.NoError(t, s.DeleteFrame())
	assert.Equal(t, 1, rec.next(t))
	assert.Equal(t, 2, s.FrameCount())

	require.NoError(t, s.GoToFrame(0))
	assert.Equal(t, 0, rec.next(t))
	require.NoError(t, s.DeleteFrame())
	assert.Equal(t, 0, rec.next(t))
	assert.Equal(t, 1, s.FrameCount())

	f, _ := s.CurrentFrame()
	assert.Equal(t, "#00FF00", f.Pixels[0][0])
}

func TestDeleteFrame_LastFrameRejected(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(1, true))
	require.ErrorIs(t, s.DeleteFrame(), ErrLastFrame)
	assert.Equal(t, 1, s.FrameCount())
	rec.none(t)
}

func TestReplaceCurrentFrame_DefaultDuration(t *testing.T) {
	t.Parallel()

	a := testAnimation(1, true)
	a.Frames[0].Duration = 0
	s, _, rec := newTestScheduler(t, a)

	require.NoError(t, s.ReplaceCurrentFrame(matrix.NewGrid(2, "#000000")))
	assert.Equal(t, 0, rec.next(t))

	f, _ := s.CurrentFrame()
	assert.Equal(t, uint32(matrix.DefaultFrameDuration), f.Duration)
}

func TestReset(t *testing.T) {
	t.Parallel()

	s, _, rec := newTestScheduler(t, testAnimation(2, true))
	require.True(t, s.Play())
	assert.Equal(t, 0, rec.next(t))

	s.Reset()
	assert.False(t, s.Playing())
	assert.Equal(t, 0, s.FrameCount())
	assert.Nil(t, s.Animation())
	assert.False(t, s.Snapshot().Loaded)

	_, err := s.AddFrame()
	require.ErrorIs(t, err, ErrNoAnimation)
	require.ErrorIs(t, s.DeleteFrame(), ErrNoAnimation)
	require.ErrorIs(t, s.GoToFrame(0), ErrNoAnimation)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, testAnimation(3, false))
	snap := s.Snapshot()
	assert.Equal(t, Snapshot{
		Description: "test",
		FrameCount:  3,
		Loaded:      true,
	}, snap)
}
