package geometry

import (
	"math"
	"testing"
)

const (
	natW = 1600.0
	natH = 1200.0
)

func testViewport(scale float64) Viewport {
	return Viewport{StageWidth: 800, StageHeight: 600, Scale: scale}
}

func TestClampScale(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"within range", 1.5, 1.5},
		{"below min", 0.05, MinScale},
		{"above max", 10, MaxScale},
		{"zero", 0, MinScale},
		{"negative", -2, MinScale},
		{"NaN", math.NaN(), MinScale},
		{"+Inf", math.Inf(1), MinScale},
		{"-Inf", math.Inf(-1), MinScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampScale(tt.in); got != tt.want {
				t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestComputeDisplaySize(t *testing.T) {
	dw, dh := ComputeDisplaySize(natW, natH, 800, 1.0)
	if dw != 800 || dh != 600 {
		t.Errorf("display size: got %vx%v, want 800x600", dw, dh)
	}

	// Native aspect ratio preserved at every scale
	for _, scale := range []float64{0.2, 0.5, 1.0, 2.0, 3.0} {
		dw, dh := ComputeDisplaySize(natW, natH, 800, scale)
		if math.Abs(dw/dh-natW/natH) > 1e-9 {
			t.Errorf("scale %v: aspect ratio %v, want %v", scale, dw/dh, natW/natH)
		}
	}
}

func TestBasePosition(t *testing.T) {
	bx, by := BasePosition(800, 600, 400, 300)
	if bx != 200 || by != 150 {
		t.Errorf("base position: got (%v,%v), want (200,150)", bx, by)
	}

	// Oversized image yields a negative base
	bx, by = BasePosition(800, 600, 1600, 1200)
	if bx != -400 || by != -300 {
		t.Errorf("base position: got (%v,%v), want (-400,-300)", bx, by)
	}
}

func TestClampOffset_Coverage(t *testing.T) {
	// For every scale, a wild offset candidate must leave the image covering
	// the stage on any axis where the displayed extent is at least the stage
	// extent, and perfectly centered where it is smaller.
	candidates := []Point{
		{X: 0, Y: 0},
		{X: 1e6, Y: 1e6},
		{X: -1e6, Y: -1e6},
		{X: 37, Y: -41},
	}

	for _, scale := range []float64{0.2, 0.5, 0.9, 1.0, 1.3, 2.0, 3.0} {
		v := testViewport(scale)
		dw, dh := v.DisplaySize(natW, natH)
		bx, by := BasePosition(v.StageWidth, v.StageHeight, dw, dh)

		for _, cand := range candidates {
			off := v.ClampOffset(cand, natW, natH)

			checkAxis := func(name string, offset, base, displayed, stage float64) {
				pos := base + offset
				if displayed < stage {
					if offset != 0 {
						t.Errorf("scale %v %s: offset %v, want centered (0)", scale, name, offset)
					}
					return
				}
				if pos > 1e-9 || pos+displayed < stage-1e-9 {
					t.Errorf("scale %v %s: image [%v,%v] does not cover stage [0,%v]",
						scale, name, pos, pos+displayed, stage)
				}
			}
			checkAxis("x", off.X, bx, dw, v.StageWidth)
			checkAxis("y", off.Y, by, dh, v.StageHeight)
		}
	}
}

func TestZoomAt_AnchorsPointer(t *testing.T) {
	v := testViewport(1.0)

	// Zoom in far enough that no clamping interferes, anchored at the stage
	// center: the image point under the pointer must not move.
	px, py := 400.0, 300.0
	dw, dh := v.DisplaySize(natW, natH)
	bx, by := BasePosition(v.StageWidth, v.StageHeight, dw, dh)
	ix := (px - bx - v.Offset.X) / v.Scale
	iy := (py - by - v.Offset.Y) / v.Scale

	next := v.ZoomAt(px, py, 2.0, natW, natH)
	if next.Scale != 2.0 {
		t.Fatalf("scale: got %v, want 2.0", next.Scale)
	}

	ndw, ndh := next.DisplaySize(natW, natH)
	nbx, nby := BasePosition(next.StageWidth, next.StageHeight, ndw, ndh)
	nix := (px - nbx - next.Offset.X) / next.Scale
	niy := (py - nby - next.Offset.Y) / next.Scale

	if math.Abs(nix-ix) > 1e-9 || math.Abs(niy-iy) > 1e-9 {
		t.Errorf("anchored point drifted: (%v,%v) -> (%v,%v)", ix, iy, nix, niy)
	}
}

func TestZoomAt_Idempotent(t *testing.T) {
	v := testViewport(1.0)

	for _, scale := range []float64{0.2, 0.5, 1.5, 2.0, 3.0} {
		once := v.ZoomAt(123, 456, scale, natW, natH)
		twice := once.ZoomAt(123, 456, scale, natW, natH)

		if math.Abs(once.Offset.X-twice.Offset.X) > 1e-9 ||
			math.Abs(once.Offset.Y-twice.Offset.Y) > 1e-9 {
			t.Errorf("scale %v: re-applying zoom drifted offset %v -> %v",
				scale, once.Offset, twice.Offset)
		}
	}
}

func TestZoomAt_ClampsRequestedScale(t *testing.T) {
	v := testViewport(1.0)

	if got := v.ZoomAt(0, 0, 99, natW, natH).Scale; got != MaxScale {
		t.Errorf("scale: got %v, want %v", got, MaxScale)
	}
	if got := v.ZoomAt(0, 0, 0.01, natW, natH).Scale; got != MinScale {
		t.Errorf("scale: got %v, want %v", got, MinScale)
	}
	if got := v.ZoomAt(0, 0, math.NaN(), natW, natH).Scale; got != MinScale {
		t.Errorf("scale on NaN: got %v, want %v", got, MinScale)
	}
}

func TestPanBy(t *testing.T) {
	v := testViewport(2.0)

	// At scale 2 the displayed image is 1600x1200 in an 800x600 stage, so the
	// offset may roam within +-400 horizontally and +-300 vertically.
	panned := v.PanBy(100, -50, natW, natH)
	if panned.Offset.X != 100 || panned.Offset.Y != -50 {
		t.Errorf("offset: got %v, want {100 -50}", panned.Offset)
	}

	// A huge pan is clamped to the coverage limit.
	panned = v.PanBy(1e6, 1e6, natW, natH)
	if panned.Offset.X != 400 || panned.Offset.Y != 300 {
		t.Errorf("clamped offset: got %v, want {400 300}", panned.Offset)
	}

	// When the image is smaller than the stage, panning is a no-op.
	small := testViewport(0.5)
	panned = small.PanBy(100, 100, natW, natH)
	if panned.Offset.X != 0 || panned.Offset.Y != 0 {
		t.Errorf("offset on undersized image: got %v, want centered", panned.Offset)
	}
}
