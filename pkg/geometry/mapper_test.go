package geometry

import "testing"

func TestMapToSource(t *testing.T) {
	// Reference case: 800-wide stage at scale 1, centered, natural 1600x1200
	// image, so one stage unit is two native pixels.
	v := Viewport{StageWidth: 800, StageHeight: 600, Scale: 1.0}
	sel := Box{X: 100, Y: 100, Width: 200, Height: 150}

	got := MapToSource(sel, v, 1600, 1200)
	want := CropRegion{SX: 200, SY: 200, SWidth: 400, SHeight: 300}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMapToSource_WithOffset(t *testing.T) {
	v := Viewport{StageWidth: 800, StageHeight: 600, Scale: 1.0, Offset: Point{X: -50, Y: 25}}
	sel := Box{X: 100, Y: 100, Width: 200, Height: 150}

	got := MapToSource(sel, v, 1600, 1200)
	want := CropRegion{SX: 300, SY: 150, SWidth: 400, SHeight: 300}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMapToSource_Zoomed(t *testing.T) {
	// At scale 2 the displayed image is 1600x1200 centered in the 800x600
	// stage, so the image origin is (-400,-300) and one stage unit is one
	// native pixel.
	v := Viewport{StageWidth: 800, StageHeight: 600, Scale: 2.0}
	sel := Box{X: 0, Y: 0, Width: 800, Height: 600}

	got := MapToSource(sel, v, 1600, 1200)
	want := CropRegion{SX: 400, SY: 300, SWidth: 800, SHeight: 600}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMapToSource_OutOfBoundsNotClamped(t *testing.T) {
	// A portrait image at scale 1 fills the stage width but not its height;
	// a full-stage selection maps past the image on both vertical sides and
	// must be reported as-is.
	v := Viewport{StageWidth: 800, StageHeight: 600, Scale: 1.0}
	sel := Box{X: 0, Y: 0, Width: 800, Height: 600}

	got := MapToSource(sel, v, 400, 200)
	// Displayed 800x400, origin (0,100); scaleNat 0.5.
	want := CropRegion{SX: 0, SY: -50, SWidth: 400, SHeight: 300}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.SY >= 0 || got.SY+got.SHeight <= 200 {
		t.Errorf("expected region to overhang the source image: %+v", got)
	}
}
