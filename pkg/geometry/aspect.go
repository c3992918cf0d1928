package geometry

import "fmt"

// AspectRatio is a named width:height ratio from the fixed set offered by
// the editor, stored as a rational number.
type AspectRatio struct {
	Name string
	W, H int
}

// The enumerated ratio set.
var (
	RatioSquare    = AspectRatio{"1:1", 1, 1}
	RatioHalf      = AspectRatio{"1:2", 1, 2}
	RatioTwoThirds = AspectRatio{"2:3", 2, 3}
	RatioPortrait  = AspectRatio{"3:4", 3, 4}
	RatioFourFifth = AspectRatio{"4:5", 4, 5}
	RatioWide      = AspectRatio{"16:9", 16, 9}
	RatioClassic   = AspectRatio{"3:2", 3, 2}
	RatioStandard  = AspectRatio{"4:3", 4, 3}
)

var ratios = []AspectRatio{
	RatioSquare, RatioHalf, RatioTwoThirds, RatioPortrait,
	RatioFourFifth, RatioWide, RatioClassic, RatioStandard,
}

// Ratios returns the enumerated ratio set in display order.
func Ratios() []AspectRatio {
	out := make([]AspectRatio, len(ratios))
	copy(out, ratios)
	return out
}

// RatioByName looks up a ratio by its display name (e.g. "16:9").
func RatioByName(name string) (AspectRatio, error) {
	for _, r := range ratios {
		if r.Name == name {
			return r, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("unknown aspect ratio: %s", name)
}

// Value returns the ratio as width/height.
func (r AspectRatio) Value() float64 {
	return float64(r.W) / float64(r.H)
}
