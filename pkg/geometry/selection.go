package geometry

import "math"

// MinSelectionSize is the smallest selection edge accepted during resize.
const MinSelectionSize = 10.0

// Initial selection sizing: at most 400 units wide, with a 40 unit margin on
// narrow stages.
const (
	initialMaxWidth = 400.0
	initialMargin   = 40.0
)

// InitialSelection returns the selection created when an image finishes
// loading: sized to fit the stage, matching the active aspect ratio,
// centered.
func InitialSelection(stageWidth, stageHeight float64, ratio AspectRatio) Box {
	w := math.Min(initialMaxWidth, stageWidth-initialMargin)
	h := math.Round(w / ratio.Value())
	return Box{
		X:      (stageWidth - w) / 2,
		Y:      (stageHeight - h) / 2,
		Width:  w,
		Height: h,
	}
}

// ClampToStage translates the selection so it stays inside the stage. It
// never resizes: when width or height exceeds the stage the clamped x/y goes
// negative, which callers accept as a boundary case.
func ClampToStage(b Box, stageWidth, stageHeight float64) Box {
	if b.X < 0 {
		b.X = 0
	}
	if b.Y < 0 {
		b.Y = 0
	}
	if b.X+b.Width > stageWidth {
		b.X = stageWidth - b.Width
	}
	if b.Y+b.Height > stageHeight {
		b.Y = stageHeight - b.Height
	}
	return b
}

// DragTranslate moves the selection by a drag delta and re-clamps.
func DragTranslate(b Box, dx, dy, stageWidth, stageHeight float64) Box {
	b.X += dx
	b.Y += dy
	return ClampToStage(b, stageWidth, stageHeight)
}

// Resize is the contract for an interactive resize handle: given the box
// before the interaction and the candidate box reported by the handle, it
// returns the corrected box.
//
// Candidates smaller than minSize on either axis are rejected (the old box is
// returned unchanged). Without aspect lock the candidate is accepted as-is.
// With aspect lock, the axis with the larger absolute change drives and the
// other axis is recomputed to satisfy the ratio; the sign of the non-driving
// dimension is preserved so handles on the flipped side of the rectangle do
// not invert its orientation. Ties go to the width axis.
func Resize(oldBox, newBox Box, aspectLocked bool, ratio AspectRatio, minSize float64) Box {
	if math.Abs(newBox.Width) < minSize || math.Abs(newBox.Height) < minSize {
		return oldBox
	}
	if !aspectLocked {
		return newBox
	}

	ar := ratio.Value()
	dw := math.Abs(newBox.Width - oldBox.Width)
	dh := math.Abs(newBox.Height - oldBox.Height)

	out := newBox
	if dw >= dh {
		out.Height = math.Copysign(math.Abs(newBox.Width)/ar, newBox.Height)
	} else {
		out.Width = math.Copysign(math.Abs(newBox.Height)*ar, newBox.Width)
	}
	return out
}

// ApplyResizeEnd folds the geometric scale factors reported at the end of a
// resize interaction into the selection's intrinsic size: width and height
// are multiplied by the factors and rounded, the factors are considered reset
// to 1 so scale never accumulates across interactions. The result is
// re-clamped to the stage.
func ApplyResizeEnd(b Box, scaleX, scaleY, stageWidth, stageHeight float64) Box {
	b.Width = math.Round(b.Width * scaleX)
	b.Height = math.Round(b.Height * scaleY)
	return ClampToStage(b, stageWidth, stageHeight)
}
