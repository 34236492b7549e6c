package ticker

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ticker_go/internal/scroll"
)

const (
	// CellPx converts terminal cells to the pixel units of the scroll engine.
	CellPx = 8.0
	// GapCells separates adjacent items.
	GapCells = 4
)

// segment is a run of text sharing one style.
type segment struct {
	text  string
	style lipgloss.Style
}

// item is one ticker entry made of styled segments.
type item []segment

func (it item) cells() int {
	n := 0
	for _, s := range it {
		n += runewidth.StringWidth(s.text)
	}
	return n
}

// Strip is one horizontally scrolling row. It implements scroll.Layout;
// widths are reported in pixels at CellPx per cell.
type Strip struct {
	items     []item
	copies    int
	width     int // viewport in cells
	reduced   bool
	direction scroll.Direction

	loopPx   float64
	duration time.Duration
	offsetPx float64
}

var _ scroll.Layout = (*Strip)(nil)

// NewStrip creates an empty strip.
func NewStrip(direction scroll.Direction, reducedMotion bool) *Strip {
	return &Strip{copies: 1, direction: direction, reduced: reducedMotion}
}

// SetItems replaces the content. The caller rebuilds the loop afterwards.
func (s *Strip) SetItems(items []item) {
	s.items = items
	s.copies = 1
	s.offsetPx = 0
}

// SetWidth sets the viewport width in cells.
func (s *Strip) SetWidth(cells int) { s.width = cells }

// SetDirection changes the scroll direction without touching geometry.
func (s *Strip) SetDirection(d scroll.Direction) { s.direction = d }

func (s *Strip) ViewportWidth() float64 { return float64(s.width) * CellPx }
func (s *Strip) Gap() float64           { return GapCells * CellPx }
func (s *Strip) ReducedMotion() bool    { return s.reduced }

func (s *Strip) ItemWidths() []float64 {
	out := make([]float64, len(s.items))
	for i, it := range s.items {
		out[i] = float64(it.cells()) * CellPx
	}
	return out
}

// Materialize repeats the items copies times. Clones are only drawn.
func (s *Strip) Materialize(copies int) {
	if copies < 1 {
		copies = 1
	}
	s.copies = copies
}

func (s *Strip) RemoveClones() { s.copies = 1 }

// FirstCloneOffset is the width of one full set of items with their gaps.
func (s *Strip) FirstCloneOffset() float64 {
	if s.copies < 2 || len(s.items) == 0 {
		return 0
	}
	return float64(s.cycleCells()) * CellPx
}

func (s *Strip) SetLoopDistance(px float64)  { s.loopPx = px }
func (s *Strip) SetDuration(d time.Duration) { s.duration = d }

func (s *Strip) cycleCells() int {
	n := 0
	for _, it := range s.items {
		n += it.cells() + GapCells
	}
	return n
}

// Advance moves the strip by elapsed time at loop distance per duration.
func (s *Strip) Advance(elapsed time.Duration) {
	if s.duration <= 0 || s.loopPx <= 0 {
		return
	}
	s.offsetPx += s.loopPx * elapsed.Seconds() / s.duration.Seconds()
	for s.offsetPx >= s.loopPx {
		s.offsetPx -= s.loopPx
	}
}

// View renders the visible window of the strip.
func (s *Strip) View() string {
	if s.width <= 0 || len(s.items) == 0 {
		return ""
	}

	start := 0
	if s.duration > 0 && s.loopPx > 0 {
		offset := s.offsetPx
		if s.direction == scroll.DirectionRight {
			offset = s.loopPx - offset
		}
		start = int(offset / CellPx)
	}

	gap := segment{text: strings.Repeat(" ", GapCells)}
	var b strings.Builder
	pos := 0
	end := start + s.width
	emit := func(seg segment) bool {
		w := runewidth.StringWidth(seg.text)
		if pos+w > start && pos < end {
			b.WriteString(seg.style.Render(window(seg.text, start-pos, end-pos)))
		}
		pos += w
		return pos >= end
	}

draw:
	for c := 0; c < s.copies; c++ {
		for _, it := range s.items {
			for _, seg := range it {
				if emit(seg) {
					break draw
				}
			}
			if emit(gap) {
				break draw
			}
		}
	}
	if pos < end {
		b.WriteString(strings.Repeat(" ", end-max(pos, start)))
	}
	return b.String()
}

// window returns the cells of text in [from, to), padding cut wide runes.
func window(text string, from, to int) string {
	var b strings.Builder
	pos := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		switch {
		case pos >= to:
			return b.String()
		case pos >= from && pos+w <= to:
			b.WriteRune(r)
		case pos+w > from && pos < to:
			b.WriteString(strings.Repeat(" ", min(pos+w, to)-max(pos, from)))
		}
		pos += w
	}
	return b.String()
}
