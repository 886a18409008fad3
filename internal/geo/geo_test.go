package geo

import (
	"math"
	"testing"
)

var (
	pollachi   = Point{Lat: 10.6586, Lng: 77.0085}
	coimbatore = Point{Lat: 11.0168, Lng: 76.9558}
)

func TestDistanceZero(t *testing.T) {
	if d := Distance(pollachi, pollachi); d != 0 {
		t.Fatalf("distance to self should be 0, got %f", d)
	}
}

func TestDistanceKnown(t *testing.T) {
	d := Distance(pollachi, coimbatore)
	if d < 38000 || d > 42000 {
		t.Fatalf("pollachi-coimbatore should be ~40km, got %.0fm", d)
	}
	if math.Abs(d-Distance(coimbatore, pollachi)) > 1e-6 {
		t.Fatalf("distance should be symmetric")
	}
}

func TestBearingCardinal(t *testing.T) {
	if b := Bearing(Point{0, 0}, Point{1, 0}); math.Abs(b) > 1e-6 {
		t.Fatalf("due north should be 0, got %f", b)
	}
	if b := Bearing(Point{0, 0}, Point{0, 1}); math.Abs(b-90) > 1e-6 {
		t.Fatalf("due east should be 90, got %f", b)
	}
	if b := Bearing(Point{1, 0}, Point{0, 0}); math.Abs(b-180) > 1e-6 {
		t.Fatalf("due south should be 180, got %f", b)
	}
	for _, p := range []Point{coimbatore, {0, 1}, {-5, -5}} {
		b := Bearing(pollachi, p)
		if b < 0 || b >= 360 {
			t.Fatalf("bearing out of range: %f", b)
		}
	}
}

func TestMoveTowardsStep(t *testing.T) {
	next := MoveTowards(pollachi, coimbatore, 500)
	moved := Distance(pollachi, next)
	if math.Abs(moved-500) > 1 {
		t.Fatalf("expected ~500m step, moved %.2fm", moved)
	}
	before := Distance(pollachi, coimbatore)
	after := Distance(next, coimbatore)
	if after >= before {
		t.Fatalf("step should reduce remaining distance: %.0f -> %.0f", before, after)
	}
}

func TestMoveTowardsNoOvershoot(t *testing.T) {
	near := Point{Lat: pollachi.Lat + 0.0001, Lng: pollachi.Lng}
	next := MoveTowards(pollachi, near, 50000)
	if next != near {
		t.Fatalf("large step should snap to target, got %+v", next)
	}
}

func TestMoveTowardsDegenerate(t *testing.T) {
	if p := MoveTowards(pollachi, pollachi, 100); p != pollachi {
		t.Fatalf("already at target, got %+v", p)
	}
	if p := MoveTowards(pollachi, coimbatore, 0); p != pollachi {
		t.Fatalf("zero step should not move, got %+v", p)
	}
}
