// Package exporter rasterizes a viewport+selection snapshot into a lossless
// PNG crop of the source image at its native resolution.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/RinLeung/canvas2/pkg/geometry"
)

// Snapshot is an immutable capture of the editor state at export time.
// Concurrent edits after an export starts must not affect it, so callers copy
// the viewport and selection by value; the decoded image is never mutated.
type Snapshot struct {
	Image         image.Image
	Viewport      geometry.Viewport
	Selection     geometry.Box
	NaturalWidth  int
	NaturalHeight int
}

// Decode decodes raw image bytes for display, applying EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Export renders the snapshot and encodes the result as PNG.
func Export(ctx context.Context, snap Snapshot) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	out, err := Render(snap)
	if err != nil {
		return nil, err
	}
	return EncodePNG(out)
}

// Render maps the selection into native pixel space and samples the source
// image into an output raster of the selection's stage size. The crop region
// is deliberately unclamped: any part of it outside the source image samples
// transparent pixels, matching drawing-surface semantics.
func Render(snap Snapshot) (*image.NRGBA, error) {
	region := geometry.MapToSource(snap.Selection, snap.Viewport, snap.NaturalWidth, snap.NaturalHeight)
	outW := int(snap.Selection.Width + 0.5)
	outH := int(snap.Selection.Height + 0.5)

	if outW <= 0 || outH <= 0 || region.SWidth <= 0 || region.SHeight <= 0 {
		return nil, fmt.Errorf("degenerate crop region: %dx%d from %dx%d source units",
			outW, outH, region.SWidth, region.SHeight)
	}

	// Native-resolution canvas for the full (possibly overhanging) region,
	// transparent where the region misses the source image.
	canvas := image.NewNRGBA(image.Rect(0, 0, region.SWidth, region.SHeight))
	srcRect := image.Rect(region.SX, region.SY, region.SX+region.SWidth, region.SY+region.SHeight)
	visible := srcRect.Intersect(snap.Image.Bounds())
	if !visible.Empty() {
		part := imaging.Crop(snap.Image, visible)
		canvas = imaging.Paste(canvas, part, image.Pt(visible.Min.X-region.SX, visible.Min.Y-region.SY))
	}

	out := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	xdraw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
	return out, nil
}

// EncodePNG serializes an image to a lossless PNG byte stream.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
