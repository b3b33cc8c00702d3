package field

import (
	"math"
	"testing"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel/bsp"
)

func TestClosestOnTriangle(t *testing.T) {
	a := geom.Vec3{}
	b := geom.Vec3{X: 2}
	c := geom.Vec3{Y: 2}

	cases := []struct {
		name string
		p    geom.Vec3
		want geom.Vec3
	}{
		{"interior projection", geom.Vec3{X: 0.5, Y: 0.5, Z: 1}, geom.Vec3{X: 0.5, Y: 0.5}},
		{"vertex a", geom.Vec3{X: -1, Y: -1}, a},
		{"vertex b", geom.Vec3{X: 3}, b},
		{"edge ab", geom.Vec3{X: 1, Y: -1}, geom.Vec3{X: 1}},
		{"edge bc", geom.Vec3{X: 2, Y: 2}, geom.Vec3{X: 1, Y: 1}},
		{"edge ca", geom.Vec3{X: -1, Y: 1}, geom.Vec3{Y: 1}},
	}
	for _, tc := range cases {
		got := closestOnTriangle(tc.p, a, b, c)
		if got.Dist(tc.want) > 1e-12 {
			t.Errorf("%s: closestOnTriangle(%s) = %s, want %s", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestSampler_CubeDistances(t *testing.T) {
	cube := geom.NewBox(geom.Vec3{}, geom.Vec3{X: 4, Y: 4, Z: 4})
	smp, err := newSampler(cube)
	if err != nil {
		t.Fatalf("newSampler: %v", err)
	}

	cases := []struct {
		p      geom.Vec3
		dist   float64
		inside bool
	}{
		{geom.Vec3{}, 2, true},
		{geom.Vec3{X: 1}, 1, true},
		{geom.Vec3{Z: 3}, 1, false},
		{geom.Vec3{X: 3, Y: 3, Z: 3}, math.Sqrt(3), false},
	}
	for _, c := range cases {
		if got := smp.distance(c.p); math.Abs(got-c.dist) > 1e-9 {
			t.Errorf("distance(%s) = %g, want %g", c.p, got, c.dist)
		}
		if got := smp.inside(c.p); got != c.inside {
			t.Errorf("inside(%s) = %v, want %v", c.p, got, c.inside)
		}
	}
}

// TestSampler_ConcaveUnion checks the two spots a nearest-triangle sign
// would get wrong on an L-shaped solid: just outside the concave corner,
// and inside where the union removed a face of one operand.
func TestSampler_ConcaveUnion(t *testing.T) {
	arm := geom.NewBox(geom.Vec3{}, geom.Vec3{X: 8, Y: 2, Z: 2})
	post := geom.NewBox(geom.Vec3{X: -3, Y: 2}, geom.Vec3{X: 2, Y: 6, Z: 2})
	union, err := bsp.New().Union(arm, post)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	smp, err := newSampler(union)
	if err != nil {
		t.Fatalf("newSampler: %v", err)
	}

	// Outside, wedged into the concave corner between the two boxes.
	corner := geom.Vec3{X: -1.5, Y: 1.5}
	if got := smp.distance(corner); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("distance(corner) = %g, want 0.5", got)
	}
	if smp.inside(corner) {
		t.Error("inside(corner) = true for a point outside the union")
	}

	// Inside the arm, under the region where the post covers it. The
	// nearest surface is the concave edge, not the removed face.
	covered := geom.Vec3{X: -2.5, Y: 0.5}
	if got := smp.distance(covered); math.Abs(got-math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("distance(covered) = %g, want %g", got, math.Sqrt(0.5))
	}
	if !smp.inside(covered) {
		t.Error("inside(covered) = false for a point inside the union")
	}
}

func TestSampler_RejectsDegenerateOnly(t *testing.T) {
	m := geom.NewTriMesh(
		[]geom.Vec3{{}, {X: 1}, {X: 2}},
		[][3]int{{0, 1, 2}},
	)
	if _, err := newSampler(m); err == nil {
		t.Fatal("newSampler accepted a mesh with only degenerate faces")
	}
}
