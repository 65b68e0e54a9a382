package walk

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	statusMaxEntries = 8
	statusLineHeight = 18
	statusPanelWidth = 420
	statusRecent     = 2 // newest entries drawn highlighted
)

// StatusLevel tints a notice.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusWarn
)

// StatusEntry is one user-visible notice.
type StatusEntry struct {
	Frame   int
	Level   StatusLevel
	Message string
}

// StatusLog is a small ring buffer of notices shown in the corner of the view.
type StatusLog struct {
	entries []StatusEntry
	head    int
	count   int
}

// NewStatusLog creates a status log with a fixed capacity.
func NewStatusLog() *StatusLog {
	return &StatusLog{entries: make([]StatusEntry, statusMaxEntries)}
}

// Add appends a notice, overwriting the oldest when full.
func (sl *StatusLog) Add(frame int, level StatusLevel, msg string) {
	sl.entries[sl.head] = StatusEntry{Frame: frame, Level: level, Message: msg}
	sl.head = (sl.head + 1) % statusMaxEntries
	if sl.count < statusMaxEntries {
		sl.count++
	}
}

// Recent returns entries oldest first.
func (sl *StatusLog) Recent() []StatusEntry {
	out := make([]StatusEntry, sl.count)
	for i := 0; i < sl.count; i++ {
		idx := (sl.head - sl.count + i + statusMaxEntries) % statusMaxEntries
		out[i] = sl.entries[idx]
	}
	return out
}

// Draw paints the notices bottom-left, newest at the bottom. Entries older
// than maxAge frames are not drawn.
func (sl *StatusLog) Draw(screen *ebiten.Image, ui *uiText, frame, maxAge int) {
	var visible []StatusEntry
	for _, e := range sl.Recent() {
		if frame-e.Frame <= maxAge {
			visible = append(visible, e)
		}
	}
	if len(visible) == 0 {
		return
	}
	h := screen.Bounds().Dy()
	x := float32(12)
	y := float32(h) - float32(len(visible)*statusLineHeight) - 16
	vector.FillRect(screen, x-6, y-4, statusPanelWidth, float32(len(visible)*statusLineHeight)+8,
		color.RGBA{R: 8, G: 10, B: 12, A: 190}, false)
	for i, e := range visible {
		c := color.RGBA{R: 200, G: 205, B: 210, A: 255}
		if e.Level == StatusWarn {
			c = color.RGBA{R: 240, G: 190, B: 90, A: 255}
		}
		if i < len(visible)-statusRecent {
			c.R, c.G, c.B = c.R*3/4, c.G*3/4, c.B*3/4
		}
		ui.draw(screen, e.Message, float64(x), float64(y)+float64(i*statusLineHeight), c)
	}
}
