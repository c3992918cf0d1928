// Package geometry implements the viewport/selection model of the crop
// editor: pan/zoom state for the displayed image, the crop rectangle and its
// drag/resize/clamp behavior, and the mapping from stage coordinates to the
// source image's native pixel space.
//
// All operations are pure functions over explicit values; callers hold the
// state and re-clamp after every raw mutation.
package geometry

// Point is a 2D offset in stage coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned rectangle in stage coordinates. The crop selection
// is a Box; interactive resize handles also report candidate boxes, whose
// width/height may be negative for handles dragged past the opposite edge.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropRegion is an integer pixel rectangle in the source image's native
// resolution. It is intentionally not clamped to the image bounds; a
// selection reaching past the visible image maps to a region that samples
// outside the source, which the rasterizer fills with transparent pixels.
type CropRegion struct {
	SX      int `json:"sx"`
	SY      int `json:"sy"`
	SWidth  int `json:"sWidth"`
	SHeight int `json:"sHeight"`
}
