package resample

import (
	"math"
	"testing"

	"github.com/chazu/dentin/pkg/geom"
)

// Marching cubes output is voxel-accurate, so volumes are checked against a
// relative band instead of exactly.
const volTol = 0.02

func TestDifference_ContainedCube(t *testing.T) {
	k := New()
	outer := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})
	inner := geom.NewBox(geom.Vec3{}, geom.Vec3{2, 2, 2})

	got, err := k.Difference(outer, inner)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if !geom.IsWatertight(got) {
		t.Error("result should be watertight")
	}
	if !geom.HasConsistentOrientation(got) {
		t.Error("result should be consistently wound")
	}
	if v := geom.SignedVolume(got); math.Abs(v-56) > 56*volTol {
		t.Errorf("volume = %g, want 56 within %g%%", v, volTol*100)
	}
	if c := geom.ConnectedComponentCount(got); c != 2 {
		t.Errorf("component count = %d, want 2 (shell + cavity)", c)
	}
}

func TestUnion_Overlapping(t *testing.T) {
	k := New()
	a := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})
	b := geom.NewBox(geom.Vec3{X: 2}, geom.Vec3{4, 4, 4})

	got, err := k.Union(a, b)
	if err != nil {
		t.Fatalf("Union() error = %v", err)
	}
	if !geom.IsWatertight(got) {
		t.Error("result should be watertight")
	}
	if v := geom.SignedVolume(got); math.Abs(v-96) > 96*volTol {
		t.Errorf("volume = %g, want 96 within %g%%", v, volTol*100)
	}
}

func TestUnion_NearbyDisjoint(t *testing.T) {
	k := New()
	a := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})
	b := geom.NewBox(geom.Vec3{X: 6}, geom.Vec3{4, 4, 4})

	got, err := k.Union(a, b)
	if err != nil {
		t.Fatalf("Union() error = %v", err)
	}
	if v := geom.SignedVolume(got); math.Abs(v-128) > 128*volTol {
		t.Errorf("volume = %g, want 128 within %g%%", v, volTol*100)
	}
	if c := geom.ConnectedComponentCount(got); c != 2 {
		t.Errorf("component count = %d, want 2", c)
	}
}

func TestDifference_EmptyOperand(t *testing.T) {
	k := New()
	box := geom.NewBox(geom.Vec3{}, geom.Vec3{4, 4, 4})

	if _, err := k.Difference(box, &geom.TriMesh{}); err == nil {
		t.Error("empty subtrahend should error")
	}
	if _, err := k.Difference(nil, box); err == nil {
		t.Error("nil minuend should error")
	}
}
