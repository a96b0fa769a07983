package geo

import "testing"

func TestClipSegmentFullyInside(t *testing.T) {
	b := Box{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}
	x0, y0, x1, y1, ok := ClipSegment(1, 1, 2, 2, b)
	if !ok {
		t.Fatal("expected ok")
	}
	if x0 != 1 || y0 != 1 || x1 != 2 || y1 != 2 {
		t.Errorf("got (%f,%f)-(%f,%f), want unchanged", x0, y0, x1, y1)
	}
}

func TestClipSegmentPartiallyOutside(t *testing.T) {
	b := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	_, y0, cx1, cy1, ok := ClipSegment(-5, 5, 15, 5, b)
	if !ok {
		t.Fatal("expected ok")
	}
	if cx1 != 10 {
		t.Errorf("cx1 = %f, want 10", cx1)
	}
	if y0 != 5 || cy1 != 5 {
		t.Errorf("y unchanged expected, got %f/%f", y0, cy1)
	}
}

func TestClipSegmentFullyOutside(t *testing.T) {
	b := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	_, _, _, _, ok := ClipSegment(20, 20, 30, 30, b)
	if ok {
		t.Error("expected not ok for fully outside segment")
	}
}
