package poolcalc

import "testing"

func TestVolume_Quadrilateral(t *testing.T) {
	liters, ok := Volume(ShapeQuadrilateral, 5, 4, 1.5)
	if !ok {
		t.Fatalf("expected ok")
	}
	if liters != 30000 {
		t.Fatalf("expected 30000 liters, got %d", liters)
	}
}

func TestVolume_CircularReadsLengthAsDiameter(t *testing.T) {
	// 6*6*1.2*0.785 = 33.912 m3 -> 33912 L -> nearest 10 -> 33910
	liters, ok := Volume(ShapeCircular, 6, 0, 1.2)
	if !ok {
		t.Fatalf("expected ok")
	}
	if liters != 33910 {
		t.Fatalf("expected 33910 liters, got %d", liters)
	}
}

func TestVolume_Oval(t *testing.T) {
	// 8*4*1.5*0.89 = 42.72 m3 -> 42720 L
	liters, ok := Volume(ShapeOval, 8, 4, 1.5)
	if !ok {
		t.Fatalf("expected ok")
	}
	if liters != 42720 {
		t.Fatalf("expected 42720 liters, got %d", liters)
	}
}

func TestVolume_ZeroDepthFails(t *testing.T) {
	if _, ok := Volume(ShapeQuadrilateral, 5, 4, 0); ok {
		t.Fatalf("expected not ok for zero depth")
	}
}

func TestVolume_MissingSideFails(t *testing.T) {
	if _, ok := Volume(ShapeQuadrilateral, 5, 0, 1.5); ok {
		t.Fatalf("expected not ok for missing width")
	}
	if _, ok := Volume(ShapeOval, 0, 4, 1.5); ok {
		t.Fatalf("expected not ok for missing length")
	}
	if _, ok := Volume(ShapeCircular, 0, 0, 1.5); ok {
		t.Fatalf("expected not ok for missing diameter")
	}
}

func TestVolume_UnknownShapeFails(t *testing.T) {
	if _, ok := Volume(Shape("triangle"), 5, 4, 1.5); ok {
		t.Fatalf("expected not ok for unknown shape")
	}
}

func TestVolume_TinyPoolRoundsToZero(t *testing.T) {
	// 0.01*0.01*0.01 m3 = 0.000001 m3 -> 0.001 L -> rounds to 0 -> not ok
	if _, ok := Volume(ShapeQuadrilateral, 0.01, 0.01, 0.01); ok {
		t.Fatalf("expected not ok when rounded volume is zero")
	}
}

func TestVolume_RoundsToNearestTen(t *testing.T) {
	// 1.234*1*1 = 1.234 m3 -> 1234 L -> 1230
	liters, ok := Volume(ShapeQuadrilateral, 1.234, 1, 1)
	if !ok {
		t.Fatalf("expected ok")
	}
	if liters != 1230 {
		t.Fatalf("expected 1230 liters, got %d", liters)
	}
}
