package window

import (
	"context"
	"math"
	"testing"

	"github.com/chazu/dentin/pkg/csg"
	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel/bsp"
	"github.com/chazu/dentin/pkg/plan"
)

const tol = 1e-9

func site(t *testing.T, id string, pos geom.Vec3) plan.ImplantSite {
	t.Helper()
	s, err := plan.NewImplantSite(id, pos, geom.Vec3{Z: -1}, plan.DefaultSleeveSpec())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestPerpendicular_AxialDirection(t *testing.T) {
	// Straight-down axis is parallel to the up reference; the fallback
	// reference must kick in.
	p := Perpendicular(geom.Vec3{Z: -1}, Buccal)
	want := geom.Vec3{Y: -1}
	if p.Dist(want) > tol {
		t.Errorf("perpendicular = %v, want %v", p, want)
	}

	if q := Perpendicular(geom.Vec3{Z: -1}, Lingual); q.Dist(want.Scale(-1)) > tol {
		t.Errorf("lingual perpendicular = %v, want %v", q, want.Scale(-1))
	}
}

func TestPerpendicular_TiltedDirection(t *testing.T) {
	dir, err := (geom.Vec3{X: 1, Z: -1}).Normalized()
	if err != nil {
		t.Fatal(err)
	}

	p := Perpendicular(dir, Buccal)
	if math.Abs(p.Norm()-1) > tol {
		t.Errorf("perpendicular length = %g, want 1", p.Norm())
	}
	if d := math.Abs(p.Dot(dir)); d > tol {
		t.Errorf("perpendicular . direction = %g, want 0", d)
	}
	if p.Z != 0 {
		t.Errorf("cross with vertical should stay horizontal, got %v", p)
	}
}

func TestPerpendicular_NearAxialStaysConditioned(t *testing.T) {
	dir, err := (geom.Vec3{Y: 0.1, Z: -0.995}).Normalized()
	if err != nil {
		t.Fatal(err)
	}

	p := Perpendicular(dir, Buccal)
	if math.Abs(p.Norm()-1) > 1e-9 {
		t.Errorf("perpendicular length = %g, want 1", p.Norm())
	}
	if d := math.Abs(p.Dot(dir)); d > 1e-9 {
		t.Errorf("perpendicular . direction = %g, want 0", d)
	}
}

func TestSolid_BoxPlacement(t *testing.T) {
	cfg := plan.DefaultGuideConfig()
	s := site(t, "36", geom.Vec3{Z: 8})

	box := Solid(s, cfg, Buccal)
	lo, hi := box.BoundingBox()

	// Perpendicular is -y; offset = 2.5 + 3 + 5 = 10.5. Depth (5) runs
	// along y after rotation, width (10) along x and z.
	wantLo := geom.Vec3{X: -5, Y: -13, Z: 3}
	wantHi := geom.Vec3{X: 5, Y: -8, Z: 13}
	if lo.Dist(wantLo) > 1e-8 || hi.Dist(wantHi) > 1e-8 {
		t.Errorf("bbox = [%v, %v], want [%v, %v]", lo, hi, wantLo, wantHi)
	}
}

func TestEnabled(t *testing.T) {
	cfg := plan.DefaultGuideConfig()
	if Enabled(cfg, 1) {
		t.Error("single site should not get windows")
	}
	if !Enabled(cfg, 2) {
		t.Error("two sites with windows on should be enabled")
	}
	cfg.AddInspectionWindows = false
	if Enabled(cfg, 2) {
		t.Error("disabled config should win over site count")
	}
}

func TestSubtract_CutsWindowNotches(t *testing.T) {
	o := csg.NewOrchestrator(bsp.New())
	cfg := plan.DefaultGuideConfig()
	body := geom.NewBox(geom.Vec3{}, geom.Vec3{60, 30, 10})
	sites := []plan.ImplantSite{
		site(t, "36", geom.Vec3{X: -20, Z: 8}),
		site(t, "46", geom.Vec3{X: 20, Z: 8}),
	}

	res, err := Subtract(context.Background(), o, body, sites, cfg, Buccal)
	if err != nil {
		t.Fatalf("Subtract() error = %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	if !res.Metrics.IsWatertight {
		t.Error("result should be watertight")
	}

	// Each axis-aligned window box overlaps the body in a 10 x 5 x 2
	// corner notch.
	if want := 200.0; math.Abs(res.Metrics.VolumeRemoved-want) > 1e-6 {
		t.Errorf("volume removed = %g, want %g", res.Metrics.VolumeRemoved, want)
	}
}

func TestSide_String(t *testing.T) {
	if Buccal.String() != "buccal" || Lingual.String() != "lingual" {
		t.Errorf("side names = %q, %q", Buccal.String(), Lingual.String())
	}
}
