package geometry

import "math"

// MapToSource converts a selection under a viewport into a pixel-exact crop
// rectangle in the source image's native resolution. All four results are
// rounded to integers.
//
// The region is not clamped against the native image bounds: a selection
// extending past the visible image (the selection is only clamped to the
// stage) maps to a source rectangle that may be out of bounds, and the
// rasterizer fills the uncovered area with transparent pixels.
func MapToSource(sel Box, v Viewport, naturalWidth, naturalHeight int) CropRegion {
	dw, dh := v.DisplaySize(float64(naturalWidth), float64(naturalHeight))
	bx, by := BasePosition(v.StageWidth, v.StageHeight, dw, dh)
	imageX := bx + v.Offset.X
	imageY := by + v.Offset.Y

	if dw <= 0 {
		return CropRegion{}
	}
	scaleNat := float64(naturalWidth) / dw

	return CropRegion{
		SX:      int(math.Round((sel.X - imageX) * scaleNat)),
		SY:      int(math.Round((sel.Y - imageY) * scaleNat)),
		SWidth:  int(math.Round(sel.Width * scaleNat)),
		SHeight: int(math.Round(sel.Height * scaleNat)),
	}
}
