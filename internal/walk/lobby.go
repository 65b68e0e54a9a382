package walk

import (
	"context"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
)

// LobbyActions are edge-triggered lobby commands for one frame.
type LobbyActions struct {
	Up, Down, Open, Refresh bool
}

type listResult struct {
	items []layout.Summary
	err   error
}

// Lobby lists layouts from the configured source and picks one to walk.
type Lobby struct {
	source   layout.Source
	items    []layout.Summary
	selected int
	err      error
	loading  bool
	ch       chan listResult
	ctx      context.Context
}

// NewLobby starts listing the source in the background.
func NewLobby(ctx context.Context, source layout.Source) *Lobby {
	l := &Lobby{source: source, ctx: ctx}
	l.Refresh()
	return l
}

// Refresh re-lists the source. A refresh already in flight is superseded.
func (l *Lobby) Refresh() {
	ch := make(chan listResult, 1)
	l.ch = ch
	l.loading = true
	go func() {
		if l.source == nil {
			ch <- listResult{err: &layout.FetchError{Op: "list", Err: errNoSource}}
			return
		}
		items, err := l.source.List(l.ctx)
		ch <- listResult{items: items, err: err}
	}()
}

// Update applies one frame of input and returns the layout to open, if any.
func (l *Lobby) Update(act LobbyActions) (string, bool) {
	select {
	case r := <-l.ch:
		l.loading = false
		l.items, l.err = r.items, r.err
		if l.selected >= len(l.items) {
			l.selected = 0
		}
	default:
	}
	if act.Refresh && !l.loading {
		l.Refresh()
	}
	if len(l.items) == 0 {
		return "", false
	}
	switch {
	case act.Up:
		l.selected = (l.selected - 1 + len(l.items)) % len(l.items)
	case act.Down:
		l.selected = (l.selected + 1) % len(l.items)
	}
	if act.Open {
		return l.items[l.selected].ID, true
	}
	return "", false
}

// Items returns the listed layouts.
func (l *Lobby) Items() []layout.Summary { return l.items }

// Selected is the highlighted index.
func (l *Lobby) Selected() int { return l.selected }

// Err is the last list failure.
func (l *Lobby) Err() error { return l.err }

// Loading reports a list in flight.
func (l *Lobby) Loading() bool { return l.loading }

// Draw paints the layout list.
func (l *Lobby) Draw(screen *ebiten.Image, a *assets) {
	screen.Fill(color.RGBA{R: 18, G: 20, B: 24, A: 255})
	w := screen.Bounds().Dx()
	const rowH = 28
	x := float32(w/2 - 260)
	a.ui.drawTitle(screen, "Venue walkthrough", float64(x), 48, textColor)
	a.ui.draw(screen, "Up/Down select  Enter walk  R refresh", float64(x), 84, dimText)

	y := float32(120)
	switch {
	case l.loading && len(l.items) == 0:
		a.ui.draw(screen, "Loading layouts...", float64(x), float64(y), dimText)
		return
	case l.err != nil:
		drawErrorPanel(screen, a, w, screen.Bounds().Dy(), ErrorTitle(l.err), l.err.Error(), lobbyErrorHint)
		return
	case len(l.items) == 0:
		a.ui.draw(screen, "No layouts found.", float64(x), float64(y), dimText)
		return
	}
	for i, it := range l.items {
		name := it.Name
		if name == "" {
			name = it.ID
		}
		ry := y + float32(i*rowH)
		if i == l.selected {
			vector.FillRect(screen, x-8, ry-4, 520, rowH, color.RGBA{R: 40, G: 60, B: 85, A: 255}, false)
		}
		a.ui.draw(screen, name, float64(x), float64(ry), textColor)
		a.ui.draw(screen, it.ID, float64(x)+360, float64(ry), dimText)
	}
}
