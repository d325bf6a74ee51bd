package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	updates  []coresys.Frame
	renders  []coresys.Frame
	onUpdate func(f coresys.Frame) error
}

func (r *recorder) Update(f coresys.Frame) error {
	r.updates = append(r.updates, f)
	if r.onUpdate != nil {
		return r.onUpdate(f)
	}
	return nil
}

func (r *recorder) Render(f coresys.Frame) error {
	r.renders = append(r.renders, f)
	return nil
}

// stopAfter cancels once the waiter has been entered n times.
type stopAfter struct {
	*StepWaiter
	n      int
	cancel context.CancelFunc
}

func (s *stopAfter) Wait(ctx context.Context) error {
	if s.Waits == s.n {
		s.cancel()
	}
	return s.StepWaiter.Wait(ctx)
}

func newLoop(step time.Duration, iterations int) (*Loop, context.Context, *stopAfter) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	w := &stopAfter{StepWaiter: &StepWaiter{Clock: clock, Step: step}, n: iterations, cancel: cancel}
	return &Loop{
		UpdateInterval: 10 * time.Millisecond,
		FrameInterval:  25 * time.Millisecond,
		MaxCatchUp:     3,
		Clock:          clock,
		Waiter:         w,
	}, ctx, w
}

func TestLoopDecouplesCadences(t *testing.T) {
	l, ctx, _ := newLoop(5*time.Millisecond, 20)
	rec := &recorder{}
	st, err := l.Run(ctx, rec)
	require.NoError(t, err)

	assert.Equal(t, uint64(20), st.Iterations)
	assert.Equal(t, uint64(10), st.Updates)
	assert.Equal(t, uint64(4), st.Renders)
	require.Len(t, rec.renders, 4)
	assert.InDelta(t, 0.5, rec.renders[0].Alpha, 1e-9, "25ms in: two ticks done, half of the third")
	assert.Equal(t, uint64(2), rec.renders[0].Tick)
	assert.Equal(t, 25*time.Millisecond, rec.renders[0].Dt)
	assert.InDelta(t, 0.0, rec.renders[1].Alpha, 1e-9)
	for i, f := range rec.updates {
		assert.Equal(t, uint64(i), f.Tick)
		assert.Equal(t, 10*time.Millisecond, f.Dt)
	}
}

func TestLoopBoundsCatchUp(t *testing.T) {
	l, ctx, _ := newLoop(105*time.Millisecond, 1)
	rec := &recorder{}
	st, err := l.Run(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st.Updates)
	assert.Equal(t, uint64(7), st.Dropped)
	require.Len(t, rec.renders, 1)
	assert.InDelta(t, 0.5, rec.renders[0].Alpha, 1e-9, "fraction survives the drop")
}

func TestLoopCancellationFinishesIteration(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	rec.onUpdate = func(f coresys.Frame) error {
		if f.Tick == 1 {
			cancel()
		}
		return nil
	}
	l := &Loop{
		UpdateInterval: 10 * time.Millisecond,
		FrameInterval:  10 * time.Millisecond,
		MaxCatchUp:     5,
		Clock:          clock,
		Waiter:         &StepWaiter{Clock: clock, Step: 30 * time.Millisecond},
	}
	st, err := l.Run(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Iterations)
	assert.Equal(t, uint64(3), st.Updates, "catch-up in flight is not interrupted")
	assert.Equal(t, uint64(1), st.Renders)
}

func TestLoopPropagatesTickerError(t *testing.T) {
	l, ctx, _ := newLoop(10*time.Millisecond, 100)
	boom := errors.New("boom")
	rec := &recorder{onUpdate: func(f coresys.Frame) error {
		if f.Tick == 4 {
			return boom
		}
		return nil
	}}
	st, err := l.Run(ctx, rec)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(4), st.Updates)
}

func TestLoopRejectsZeroInterval(t *testing.T) {
	_, err := (&Loop{}).Run(context.Background(), &recorder{})
	assert.Error(t, err)
}
