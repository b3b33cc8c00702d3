package validate

import (
	"math"
	"testing"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
)

// newTetra builds a small closed tetrahedron with apex offsets from p,
// wound outward.
func newTetra(p geom.Vec3) *geom.TriMesh {
	verts := []geom.Vec3{
		p,
		p.Add(geom.Vec3{X: 1}),
		p.Add(geom.Vec3{Y: 1}),
		p.Add(geom.Vec3{Z: 1}),
	}
	faces := [][3]int{
		{0, 2, 1},
		{0, 1, 3},
		{0, 3, 2},
		{1, 2, 3},
	}
	return geom.NewTriMesh(verts, faces)
}

func TestRepair_ClosesSmallHole(t *testing.T) {
	box := geom.NewBox(geom.Vec3{}, geom.Vec3{X: 4, Y: 4, Z: 4})
	holed := &geom.TriMesh{Vertices: box.Vertices, Faces: box.Faces[:11]}

	out := Repair(holed, plan.DefaultValidationConfig())

	if len(out.Actions) != 1 || out.Actions[0] != "closed 1 boundary holes" {
		t.Fatalf("actions = %v, want exactly [closed 1 boundary holes]", out.Actions)
	}
	if !geom.IsWatertight(out.Mesh) {
		t.Error("repaired mesh is not watertight")
	}
	if v := geom.SignedVolume(out.Mesh); math.Abs(v-64) > tol {
		t.Errorf("repaired volume = %g, want 64", v)
	}
	if holed.FaceCount() != 11 {
		t.Errorf("input mutated: face count = %d, want 11", holed.FaceCount())
	}
}

func TestRepair_KeepsLargestComponent(t *testing.T) {
	box := geom.NewBox(geom.Vec3{}, geom.Vec3{X: 4, Y: 4, Z: 4})
	debris := newTetra(geom.Vec3{X: 10})
	m := joinMeshes(box, debris)

	out := Repair(m, plan.DefaultValidationConfig())

	if out.Mesh.FaceCount() != 12 {
		t.Errorf("face count = %d, want 12 (box only)", out.Mesh.FaceCount())
	}
	if v := geom.SignedVolume(out.Mesh); math.Abs(v-64) > tol {
		t.Errorf("volume = %g, want 64", v)
	}
	if len(out.Actions) != 1 || out.Actions[0] != "kept largest of 2 components" {
		t.Errorf("actions = %v, want exactly [kept largest of 2 components]", out.Actions)
	}
}

func TestRepair_DropsFacesOnOverSharedEdges(t *testing.T) {
	box := geom.NewBox(geom.Vec3{}, geom.Vec3{X: 4, Y: 4, Z: 4})
	m := box.Clone()
	// A fin hanging off edge (0,1), making that edge shared by three faces.
	m.Vertices = append(m.Vertices, geom.Vec3{Z: 5})
	m.Faces = append(m.Faces, [3]int{0, 1, 8})

	out := Repair(m, plan.DefaultValidationConfig())

	if out.Mesh.FaceCount() != 10 {
		t.Errorf("face count = %d, want 10", out.Mesh.FaceCount())
	}
	found := false
	for _, a := range out.Actions {
		if a == "removed 3 faces on non-manifold edges" {
			found = true
		}
	}
	if !found {
		t.Errorf("actions = %v, want a non-manifold removal entry", out.Actions)
	}
}

func TestRepair_Idempotent(t *testing.T) {
	box := geom.NewBox(geom.Vec3{}, geom.Vec3{X: 4, Y: 4, Z: 4})
	holed := &geom.TriMesh{Vertices: box.Vertices, Faces: box.Faces[:11]}

	first := Repair(holed, plan.DefaultValidationConfig())
	second := Repair(first.Mesh, plan.DefaultValidationConfig())

	if len(second.Actions) != 0 {
		t.Errorf("second pass actions = %v, want none", second.Actions)
	}
	if second.Mesh.FaceCount() != first.Mesh.FaceCount() {
		t.Errorf("second pass changed face count %d -> %d",
			first.Mesh.FaceCount(), second.Mesh.FaceCount())
	}
}

func TestRepair_EmptyInput(t *testing.T) {
	for _, m := range []*geom.TriMesh{nil, {}} {
		out := Repair(m, plan.DefaultValidationConfig())
		if out.Mesh == nil {
			t.Fatal("Repair returned a nil mesh")
		}
		if len(out.Actions) != 0 {
			t.Errorf("actions = %v, want none for empty input", out.Actions)
		}
	}
}
