package geometry

import "math"

// Zoom limits applied to every scale request.
const (
	MinScale = 0.2
	MaxScale = 3.0
)

// Viewport holds the pan/zoom state of the displayed image inside a fixed
// stage. Scale multiplies the fit-to-stage-width base display size. Offset is
// a pan delta from the centered base position; the on-screen top-left of the
// image is base + offset.
type Viewport struct {
	StageWidth  float64 `json:"stageWidth"`
	StageHeight float64 `json:"stageHeight"`
	Scale       float64 `json:"scale"`
	Offset      Point   `json:"offset"`
}

// ClampScale forces a scale request into [MinScale, MaxScale]. Zero, negative
// and non-finite input is floored to MinScale rather than propagated.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return MinScale
	}
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// ComputeDisplaySize returns the on-screen size of the image at the given
// scale: the displayed width is stageWidth*scale, the height preserves the
// image's native aspect ratio.
func ComputeDisplaySize(naturalWidth, naturalHeight, stageWidth, scale float64) (float64, float64) {
	dw := stageWidth * scale
	if naturalWidth <= 0 {
		return dw, 0
	}
	return dw, dw * naturalHeight / naturalWidth
}

// BasePosition centers the displayed image in the stage.
func BasePosition(stageWidth, stageHeight, displayedWidth, displayedHeight float64) (float64, float64) {
	return (stageWidth - displayedWidth) / 2, (stageHeight - displayedHeight) / 2
}

// DisplaySize returns the displayed image size under this viewport.
func (v Viewport) DisplaySize(naturalWidth, naturalHeight float64) (float64, float64) {
	return ComputeDisplaySize(naturalWidth, naturalHeight, v.StageWidth, v.Scale)
}

// ImageOrigin returns the on-screen top-left of the displayed image
// (base position plus pan offset).
func (v Viewport) ImageOrigin(naturalWidth, naturalHeight float64) (float64, float64) {
	dw, dh := v.DisplaySize(naturalWidth, naturalHeight)
	bx, by := BasePosition(v.StageWidth, v.StageHeight, dw, dh)
	return bx + v.Offset.X, by + v.Offset.Y
}

// ClampOffset enforces the coverage constraint on a pan offset candidate,
// per axis: if the displayed extent is smaller than the stage extent the
// image is forced centered (offset locked to zero); otherwise the offset is
// clamped so base+offset stays within [stageExtent-displayedExtent, 0], i.e.
// the image keeps covering the stage on that axis.
func (v Viewport) ClampOffset(candidate Point, naturalWidth, naturalHeight float64) Point {
	dw, dh := v.DisplaySize(naturalWidth, naturalHeight)
	bx, by := BasePosition(v.StageWidth, v.StageHeight, dw, dh)
	return Point{
		X: clampOffsetAxis(candidate.X, v.StageWidth, dw, bx),
		Y: clampOffsetAxis(candidate.Y, v.StageHeight, dh, by),
	}
}

func clampOffsetAxis(offset, stage, displayed, base float64) float64 {
	if displayed < stage {
		return 0
	}
	lo := stage - displayed - base
	hi := -base
	if offset < lo {
		return lo
	}
	if offset > hi {
		return hi
	}
	return offset
}

// ZoomAt applies a scale request anchored at the pointer position: the
// image-space point currently under the pointer stays under the pointer after
// the zoom. The requested scale is clamped into [MinScale, MaxScale] and the
// resulting offset is passed through ClampOffset.
func (v Viewport) ZoomAt(pointerX, pointerY, requestedScale, naturalWidth, naturalHeight float64) Viewport {
	oldScale := ClampScale(v.Scale)
	newScale := ClampScale(requestedScale)

	dw, dh := ComputeDisplaySize(naturalWidth, naturalHeight, v.StageWidth, oldScale)
	bx, by := BasePosition(v.StageWidth, v.StageHeight, dw, dh)

	// Image-space point under the pointer, in pre-zoom coordinates.
	ix := (pointerX - bx - v.Offset.X) / oldScale
	iy := (pointerY - by - v.Offset.Y) / oldScale

	ndw, ndh := ComputeDisplaySize(naturalWidth, naturalHeight, v.StageWidth, newScale)
	nbx, nby := BasePosition(v.StageWidth, v.StageHeight, ndw, ndh)

	next := Viewport{
		StageWidth:  v.StageWidth,
		StageHeight: v.StageHeight,
		Scale:       newScale,
		Offset: Point{
			X: pointerX - nbx - ix*newScale,
			Y: pointerY - nby - iy*newScale,
		},
	}
	next.Offset = next.ClampOffset(next.Offset, naturalWidth, naturalHeight)
	return next
}

// PanBy adds a pointer drag delta to the offset and re-clamps.
func (v Viewport) PanBy(dx, dy, naturalWidth, naturalHeight float64) Viewport {
	next := v
	next.Offset = next.ClampOffset(Point{X: v.Offset.X + dx, Y: v.Offset.Y + dy}, naturalWidth, naturalHeight)
	return next
}
