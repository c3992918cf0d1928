// Package editor holds the mutable crop-session state: the loaded image, the
// viewport, the selection and the aspect-ratio lock. It is the single place
// state transitions happen; every raw mutation is followed by a clamp pass
// before the state becomes externally visible.
package editor

import (
	"context"
	"errors"
	"image"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/RinLeung/canvas2/internal/exporter"
	"github.com/RinLeung/canvas2/internal/meta"
	"github.com/RinLeung/canvas2/pkg/geometry"
)

// ErrSuperseded is returned by Load when another image was loaded while this
// one was still decoding; the stale result is discarded, never merged.
var ErrSuperseded = errors.New("load superseded by a newer image")

// Editor is a crop session. Safe for concurrent use; there is exactly one
// state mutator path, guarded by the mutex.
type Editor struct {
	mu sync.Mutex

	viewport  geometry.Viewport
	selection geometry.Box
	aspect    geometry.AspectRatio
	locked    bool

	img           image.Image
	naturalWidth  int
	naturalHeight int

	resolution    meta.Resolution
	resolutionErr error

	generation uint64
}

// New creates a session for a stage of the given pixel dimensions. The
// default aspect ratio is 1:1, unlocked.
func New(stageWidth, stageHeight float64) *Editor {
	return &Editor{
		viewport: geometry.Viewport{
			StageWidth:  stageWidth,
			StageHeight: stageHeight,
			Scale:       1.0,
		},
		aspect: geometry.RatioSquare,
	}
}

// Load decodes raw file bytes and resets the session around the new image.
// Decoding and metadata extraction run concurrently; metadata failure never
// gates display (it is recorded and reported as unknown). If another Load
// completes while this one is in flight, the stale result is discarded and
// ErrSuperseded returned.
func (e *Editor) Load(ctx context.Context, data []byte) error {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	var (
		img    image.Image
		res    meta.Resolution
		resErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		decoded, err := exporter.Decode(data)
		if err != nil {
			return err
		}
		img = decoded
		return ctx.Err()
	})
	g.Go(func() error {
		res, resErr = meta.Extract(data)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return ErrSuperseded
	}

	b := img.Bounds()
	e.img = img
	e.naturalWidth = b.Dx()
	e.naturalHeight = b.Dy()
	e.resolution = res
	e.resolutionErr = resErr

	e.viewport.Scale = 1.0
	e.viewport.Offset = geometry.Point{}
	e.selection = geometry.InitialSelection(e.viewport.StageWidth, e.viewport.StageHeight, e.aspect)
	return nil
}

// SetStageSize updates the stage dimensions on container resize and
// re-clamps viewport and selection against them.
func (e *Editor) SetStageSize(width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.viewport.StageWidth = width
	e.viewport.StageHeight = height
	e.viewport.Offset = e.viewport.ClampOffset(e.viewport.Offset, float64(e.naturalWidth), float64(e.naturalHeight))
	e.selection = geometry.ClampToStage(e.selection, width, height)
}

// ZoomAt applies a scale request anchored at the pointer position.
func (e *Editor) ZoomAt(pointerX, pointerY, requestedScale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = e.viewport.ZoomAt(pointerX, pointerY, requestedScale,
		float64(e.naturalWidth), float64(e.naturalHeight))
}

// SetScaleInput applies a numeric zoom control value, anchored at the stage
// center. Non-numeric input is replaced with 1.0 before clamping.
func (e *Editor) SetScaleInput(input string) {
	scale, err := strconv.ParseFloat(input, 64)
	if err != nil {
		scale = 1.0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = e.viewport.ZoomAt(e.viewport.StageWidth/2, e.viewport.StageHeight/2, scale,
		float64(e.naturalWidth), float64(e.naturalHeight))
}

// PanBy moves the displayed image by a pointer drag delta.
func (e *Editor) PanBy(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = e.viewport.PanBy(dx, dy, float64(e.naturalWidth), float64(e.naturalHeight))
}

// DragSelection moves the crop rectangle by a drag delta.
func (e *Editor) DragSelection(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = geometry.DragTranslate(e.selection, dx, dy,
		e.viewport.StageWidth, e.viewport.StageHeight)
}

// SetSelection replaces the crop rectangle, clamped to the stage.
func (e *Editor) SetSelection(b geometry.Box) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = geometry.ClampToStage(b, e.viewport.StageWidth, e.viewport.StageHeight)
}

// BoundResize is the hook an interactive resize handle calls on every move:
// given the box before the move and the candidate box, it returns the
// corrected box per the resize contract. It does not commit anything; the
// handle keeps reporting candidates until FinishResize.
func (e *Editor) BoundResize(oldBox, newBox geometry.Box) geometry.Box {
	e.mu.Lock()
	defer e.mu.Unlock()
	return geometry.Resize(oldBox, newBox, e.locked, e.aspect, geometry.MinSelectionSize)
}

// FinishResize commits the end of a resize interaction, folding the handle's
// reported scale factors into the selection's intrinsic size.
func (e *Editor) FinishResize(scaleX, scaleY float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = geometry.ApplyResizeEnd(e.selection, scaleX, scaleY,
		e.viewport.StageWidth, e.viewport.StageHeight)
}

// SetAspectRatio switches the active ratio by name and re-initializes the
// selection to match it.
func (e *Editor) SetAspectRatio(name string) error {
	r, err := geometry.RatioByName(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aspect = r
	e.selection = geometry.InitialSelection(e.viewport.StageWidth, e.viewport.StageHeight, r)
	return nil
}

// SetAspectLock toggles the aspect-lock constraint used during resize.
func (e *Editor) SetAspectLock(locked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locked = locked
}

// Viewport returns the current viewport state.
func (e *Editor) Viewport() geometry.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Selection returns the current crop rectangle.
func (e *Editor) Selection() geometry.Box {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// AspectRatio returns the active ratio and lock state.
func (e *Editor) AspectRatio() (geometry.AspectRatio, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aspect, e.locked
}

// Resolution returns the embedded DPI metadata of the loaded file, or the
// extraction error (ErrNoMetadata / ErrUnknownResolution) when there is none.
func (e *Editor) Resolution() (meta.Resolution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolution, e.resolutionErr
}

// Snapshot captures the current state for export. The copy is by value, so
// edits made after the snapshot is taken do not affect an in-flight export.
// The second return is false when no image is loaded.
func (e *Editor) Snapshot() (exporter.Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.img == nil {
		return exporter.Snapshot{}, false
	}
	return exporter.Snapshot{
		Image:         e.img,
		Viewport:      e.viewport,
		Selection:     e.selection,
		NaturalWidth:  e.naturalWidth,
		NaturalHeight: e.naturalHeight,
	}, true
}

// Export renders the current state to PNG bytes. Calling it with no image
// loaded is a caller precondition violation, answered with a silent no-op
// (nil bytes, nil error) rather than a failure.
func (e *Editor) Export(ctx context.Context) ([]byte, error) {
	snap, ok := e.Snapshot()
	if !ok {
		return nil, nil
	}
	return exporter.Export(ctx, snap)
}
