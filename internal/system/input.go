package system

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"go.uber.org/zap"
)

// Command is one discrete player intent, produced off the loop goroutine.
type Command struct {
	DX, DY float64
}

// InputQueue carries commands from the terminal goroutine to the loop.
// Push never blocks; when the queue is full the command is dropped.
type InputQueue struct {
	ch chan Command
}

func NewInputQueue(size int) *InputQueue {
	if size <= 0 {
		size = 64
	}
	return &InputQueue{ch: make(chan Command, size)}
}

func (q *InputQueue) Push(c Command) bool {
	select {
	case q.ch <- c:
		return true
	default:
		return false
	}
}

// Input drains up to maxPerTick queued commands and applies them to the
// focused context's player. Unfocused contexts leave the queue alone.
func Input(q *InputQueue, cat *component.Catalog, maxPerTick int) spatial.System {
	if maxPerTick <= 0 {
		maxPerTick = 16
	}
	return spatial.System{
		Name:     "input",
		Phase:    coresys.PhaseUpdate,
		Priority: PriorityInput,
		Behavior: spatial.Behavior{
			Run: func(ctx *spatial.SystemContext) error {
				if !ctx.Host.Focused() {
					return nil
				}
				var dx, dy float64
				n := 0
			drain:
				for n < maxPerTick {
					select {
					case c := <-q.ch:
						dx += c.DX
						dy += c.DY
						n++
					default:
						break drain
					}
				}
				if n == 0 {
					return nil
				}
				player, ok := cat.FindPlayer(ctx.World)
				if !ok {
					return nil
				}
				t, ok := ecs.Get(ctx.World, player, cat.Transform)
				if !ok {
					return nil
				}
				step := 1.0
				if p, ok := ecs.Get(ctx.World, player, cat.Player); ok && p.Speed > 0 {
					step = p.Speed * ctx.Frame.Dt.Seconds()
				}
				t.X += dx * step
				t.Y += dy * step
				ctx.Log.Debug("input applied", zap.Int("commands", n), zap.Float64("x", t.X), zap.Float64("y", t.Y))
				return nil
			},
		},
	}
}

// Stock returns the standard update systems in their usual order.
func Stock(cat *component.Catalog, q *InputQueue, maxPerTick int) []spatial.System {
	out := []spatial.System{TransformHistory(cat), Movement(cat), Cleanup()}
	if q != nil {
		out = append(out, Input(q, cat, maxPerTick))
	}
	return out
}
