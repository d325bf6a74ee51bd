package render

import (
	"context"
	"errors"
	"math"

	"github.com/ViewableGravy/better-ecs-sub001/internal/system"
	"github.com/gdamore/tcell/v2"
)

// ErrQuit is returned by Pump when the user asks to leave.
var ErrQuit = errors.New("render: quit requested")

// Terminal draws records as glyphs on a tcell screen, one cell per world
// unit. Records of unfocused contexts are dimmed.
type Terminal struct {
	screen tcell.Screen
	OffX   int
	OffY   int
}

// OpenTerminal initializes the real terminal.
func OpenTerminal() (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return NewTerminal(s), nil
}

// NewTerminal wraps an already initialized screen.
func NewTerminal(s tcell.Screen) *Terminal {
	return &Terminal{screen: s}
}

func (t *Terminal) Draw(records []DrawRecord) error {
	t.screen.Clear()
	w, h := t.screen.Size()
	for _, r := range records {
		x := int(math.Round(r.X)) + t.OffX
		y := int(math.Round(r.Y)) + t.OffY
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		style := tcell.StyleDefault
		if r.Color != "" {
			style = style.Foreground(tcell.GetColor(r.Color))
		}
		if !r.Focused {
			style = style.Dim(true)
		}
		t.screen.SetContent(x, y, r.Glyph, nil, style)
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Close() error {
	t.screen.Fini()
	return nil
}

// Pump reads terminal events until ctx is done or the user quits, turning
// movement keys into commands on q. It runs on its own goroutine; the loop
// only sees the queue.
func (t *Terminal) Pump(ctx context.Context, q *system.InputQueue) error {
	go func() {
		<-ctx.Done()
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			if isQuit(ev.Key(), ev.Rune()) {
				return ErrQuit
			}
			if c, ok := commandFor(ev.Key(), ev.Rune()); ok {
				q.Push(c)
			}
		}
	}
}

func isQuit(k tcell.Key, r rune) bool {
	return k == tcell.KeyEscape || k == tcell.KeyCtrlC || (k == tcell.KeyRune && r == 'q')
}

func commandFor(k tcell.Key, r rune) (system.Command, bool) {
	switch k {
	case tcell.KeyUp:
		return system.Command{DY: -1}, true
	case tcell.KeyDown:
		return system.Command{DY: 1}, true
	case tcell.KeyLeft:
		return system.Command{DX: -1}, true
	case tcell.KeyRight:
		return system.Command{DX: 1}, true
	case tcell.KeyRune:
		switch r {
		case 'k', 'w':
			return system.Command{DY: -1}, true
		case 'j', 's':
			return system.Command{DY: 1}, true
		case 'h', 'a':
			return system.Command{DX: -1}, true
		case 'l', 'd':
			return system.Command{DX: 1}, true
		}
	}
	return system.Command{}, false
}
