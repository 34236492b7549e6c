package scroll

// Speed is a discrete ticker speed preset.
type Speed string

const (
	SpeedVerySlow Speed = "very-slow"
	SpeedSlow     Speed = "slow"
	SpeedMedium   Speed = "medium"
	SpeedFast     Speed = "fast"
)

// PixelsPerSecond maps the preset to a scroll rate. Unknown values scroll
// at the medium rate.
func (s Speed) PixelsPerSecond() float64 {
	switch s {
	case SpeedFast:
		return 160
	case SpeedSlow:
		return 60
	case SpeedVerySlow:
		return 40
	default:
		return 100
	}
}

// Valid reports whether s is one of the four presets.
func (s Speed) Valid() bool {
	switch s {
	case SpeedVerySlow, SpeedSlow, SpeedMedium, SpeedFast:
		return true
	}
	return false
}

// Direction is the scroll direction of a strip.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)
