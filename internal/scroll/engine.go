// Package scroll computes the clone count, loop distance and animation
// duration that make a ticker strip tile seamlessly at any width.
package scroll

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	// MaxViewport bounds the width used for the copy count.
	MaxViewport = 8000.0
	// MaxClones bounds the clone sets appended after the originals.
	MaxClones = 100
)

// Layout is a rendering surface holding one ordered list of items. Widths
// and offsets are in pixels.
type Layout interface {
	// ViewportWidth is the visible width of the strip. Zero while hidden.
	ViewportWidth() float64
	// Gap is the spacing between adjacent items.
	Gap() float64
	// ItemWidths measures the original, non-cloned items.
	ItemWidths() []float64
	// Materialize renders the originals followed by copies-1 clone sets.
	// Clones are non-interactive and hidden from assistive tech.
	Materialize(copies int)
	// RemoveClones drops every clone, leaving the originals.
	RemoveClones()
	// FirstCloneOffset is the rendered distance from the first original
	// to its first clone. Non-positive when it cannot be measured.
	FirstCloneOffset() float64
	// ReducedMotion reports the user's reduced motion preference.
	ReducedMotion() bool
	// SetLoopDistance publishes the loop distance to the animation.
	SetLoopDistance(px float64)
	// SetDuration sets the duration of one loop. Zero stops the animation.
	SetDuration(d time.Duration)
}

// State describes the last successful build of a strip.
type State struct {
	OriginalItemCount int
	LoopDistance      float64
	CloneCount        int
	Duration          time.Duration
}

// Animated reports whether the strip is scrolling.
func (s State) Animated() bool {
	return s.Duration > 0
}

// Loop keeps one Layout tiled and timed. Rebuild is called on first render
// and on every resize of the strip or its content.
type Loop struct {
	mu      sync.Mutex
	layout  Layout
	speed   Speed
	state   State
	pending bool
	logger  *slog.Logger
}

// NewLoop creates a loop for layout scrolling at speed.
func NewLoop(layout Layout, speed Speed) *Loop {
	return &Loop{
		layout: layout,
		speed:  speed,
		logger: slog.Default().With("module", "scroll"),
	}
}

// State returns the current geometry.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Pending reports whether a build is waiting for a non-zero width.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Rebuild re-measures the originals and re-clones from scratch. It never
// fails: degenerate geometry leaves the strip static.
func (l *Loop) Rebuild() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.layout.RemoveClones()
	l.layout.SetDuration(0)
	l.state = State{}
	l.pending = false

	if l.layout.ReducedMotion() {
		l.state.OriginalItemCount = len(l.layout.ItemWidths())
		return l.state
	}

	widths := l.layout.ItemWidths()
	if len(widths) == 0 {
		return l.state
	}
	l.state.OriginalItemCount = len(widths)

	viewport := l.layout.ViewportWidth()
	if !(viewport > 0) || math.IsInf(viewport, 0) {
		l.pending = true
		return l.state
	}

	gap := l.layout.Gap()
	if !(gap >= 0) || math.IsInf(gap, 0) {
		gap = 0
	}

	// One clone set is always present so the true loop distance can be read.
	l.layout.Materialize(2)

	distance := l.layout.FirstCloneOffset()
	if !(distance > 0) || math.IsInf(distance, 0) {
		distance = measuredWidth(widths, gap) + gap
	}
	if !(distance > 0) || math.IsInf(distance, 0) {
		l.layout.RemoveClones()
		return l.state
	}

	copiesNeeded := copiesFor(viewport, distance)
	maxCopies := MaxClones + 1
	copies := min(copiesNeeded, maxCopies)
	if copies > 2 {
		l.layout.Materialize(copies)
	}
	if viewport > MaxViewport || copiesNeeded > maxCopies {
		l.logger.Warn("Ticker reached clone cap",
			slog.Float64("viewport", viewport),
			slog.Float64("max_viewport", MaxViewport),
			slog.Int("clones", copies-1),
			slog.Float64("loop_distance", distance),
		)
	}

	l.layout.SetLoopDistance(distance)
	l.state.LoopDistance = distance
	l.state.CloneCount = copies - 1
	l.applySpeed()
	return l.state
}

// Resize rebuilds the strip after its viewport or content changed size.
func (l *Loop) Resize() State {
	return l.Rebuild()
}

// SetSpeed changes the scroll speed without re-cloning.
func (l *Loop) SetSpeed(speed Speed) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.speed = speed
	if l.state.LoopDistance > 0 {
		l.applySpeed()
	}
}

func (l *Loop) applySpeed() {
	l.state.Duration = DurationFor(l.state.LoopDistance, l.speed)
	l.layout.SetDuration(l.state.Duration)
}

// DurationFor is the time one loop of distance pixels takes at speed.
func DurationFor(distance float64, speed Speed) time.Duration {
	if !(distance > 0) {
		return 0
	}
	seconds := distance / speed.PixelsPerSecond()
	return time.Duration(seconds * float64(time.Second))
}

// copiesFor returns the total number of copies (originals included) so that
// copies*distance >= viewport+distance, with at least two.
func copiesFor(viewport, distance float64) int {
	v := math.Min(viewport, MaxViewport)
	return max(2, int(math.Ceil((v+distance)/distance)))
}

func measuredWidth(widths []float64, gap float64) float64 {
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return 0
	}
	return total + float64(len(widths)-1)*gap
}
