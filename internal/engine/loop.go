package engine

import (
	"context"
	"time"

	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Ticker receives the two decoupled cadences.
type Ticker interface {
	Update(f coresys.Frame) error
	Render(f coresys.Frame) error
}

// Stats counts what a Run did.
type Stats struct {
	Iterations uint64
	Updates    uint64
	Renders    uint64
	Dropped    uint64 // update ticks discarded by the catch-up bound
}

// Loop paces a fixed-rate update cadence and a separate render cadence from
// one thread. Every World mutation happens inside Ticker calls.
type Loop struct {
	UpdateInterval time.Duration
	FrameInterval  time.Duration
	MaxCatchUp     int // update ticks per iteration before the backlog is dropped
	Clock          Clock
	Waiter         Waiter
	Log            *zap.Logger
}

// Run loops until ctx is done, checked at the top of each iteration, or a
// Ticker call fails. Cancellation never interrupts a phase in flight.
func (l *Loop) Run(ctx context.Context, t Ticker) (Stats, error) {
	var st Stats
	if l.UpdateInterval <= 0 {
		return st, eris.New("engine: update interval must be positive")
	}
	clock := l.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	waiter := l.Waiter
	if waiter == nil {
		tw := NewTickWaiter(minPositive(l.FrameInterval, l.UpdateInterval))
		defer tw.Stop()
		waiter = tw
	}
	maxCatchUp := l.MaxCatchUp
	if maxCatchUp <= 0 {
		maxCatchUp = 5
	}
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}

	last := clock.Now()
	lastRender := last
	var acc time.Duration

	for {
		if ctx.Err() != nil {
			log.Info("loop stopped", zap.Uint64("updates", st.Updates), zap.Uint64("renders", st.Renders))
			return st, nil
		}
		if err := waiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			return st, eris.Wrap(err, "engine: wait")
		}
		st.Iterations++

		now := clock.Now()
		acc += now.Sub(last)
		last = now

		for n := 0; acc >= l.UpdateInterval; n++ {
			if n == maxCatchUp {
				dropped := uint64(acc / l.UpdateInterval)
				st.Dropped += dropped
				acc %= l.UpdateInterval
				log.Warn("update backlog dropped", zap.Uint64("ticks", dropped))
				break
			}
			if err := t.Update(coresys.Frame{Tick: st.Updates, Dt: l.UpdateInterval}); err != nil {
				return st, eris.Wrapf(err, "update tick %d", st.Updates)
			}
			st.Updates++
			acc -= l.UpdateInterval
		}

		if since := now.Sub(lastRender); since >= l.FrameInterval {
			lastRender = now
			alpha := float64(acc) / float64(l.UpdateInterval)
			if alpha > 1 {
				alpha = 1
			}
			if err := t.Render(coresys.Frame{Tick: st.Updates, Dt: since, Alpha: alpha}); err != nil {
				return st, eris.Wrapf(err, "render after tick %d", st.Updates)
			}
			st.Renders++
		}
	}
}

func minPositive(a, b time.Duration) time.Duration {
	switch {
	case a <= 0:
		return b
	case b <= 0 || a < b:
		return a
	}
	return b
}
