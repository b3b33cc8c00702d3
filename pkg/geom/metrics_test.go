package geom

import (
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// explode converts m into a triangle soup where no vertices are shared.
func explode(m *TriMesh) *TriMesh {
	soup := &TriMesh{}
	for i := range m.Faces {
		a, b, c := m.FaceVertices(i)
		n := len(soup.Vertices)
		soup.Vertices = append(soup.Vertices, a, b, c)
		soup.Faces = append(soup.Faces, [3]int{n, n + 1, n + 2})
	}
	return soup
}

// concat appends b onto a as a single mesh with reindexed faces.
func concat(a, b *TriMesh) *TriMesh {
	out := a.Clone()
	off := len(out.Vertices)
	out.Vertices = append(out.Vertices, b.Vertices...)
	for _, f := range b.Faces {
		out.Faces = append(out.Faces, [3]int{f[0] + off, f[1] + off, f[2] + off})
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestMergeVertices_WeldsSoup(t *testing.T) {
	soup := explode(NewBox(Vec3{}, Vec3{2, 2, 2}))
	if IsWatertight(soup) {
		t.Fatal("soup should not be watertight before welding")
	}

	welded := MergeVertices(soup, 1e-6)
	if welded.VertexCount() != 8 {
		t.Errorf("welded vertex count = %d, want 8", welded.VertexCount())
	}
	if welded.FaceCount() != 12 {
		t.Errorf("welded face count = %d, want 12", welded.FaceCount())
	}
	if !IsWatertight(welded) {
		t.Error("welded box should be watertight")
	}
	if got := SignedVolume(welded); math.Abs(got-8) > tol {
		t.Errorf("welded volume = %g, want 8", got)
	}
}

func TestMergeVertices_DropsCollapsedFaces(t *testing.T) {
	m := &TriMesh{
		Vertices: []Vec3{{}, {X: 1e-9}, {Y: 1}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	welded := MergeVertices(m, 1e-6)
	if welded.FaceCount() != 0 {
		t.Errorf("face count = %d, want 0 after collapse", welded.FaceCount())
	}
}

func TestBoundaryEdges_OpenBox(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	open := &TriMesh{Vertices: m.Vertices, Faces: m.Faces[1:]}

	if IsWatertight(open) {
		t.Error("box with a missing face should not be watertight")
	}
	if got := BoundaryEdgeCount(open); got != 3 {
		t.Errorf("boundary edge count = %d, want 3", got)
	}
}

func TestCloseHoles_RestoresWatertight(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	open := &TriMesh{Vertices: m.Vertices, Faces: m.Faces[1:]}

	patched, closed := CloseHoles(open, 50)
	if closed != 1 {
		t.Fatalf("closed %d holes, want 1", closed)
	}
	if !IsWatertight(patched) {
		t.Error("patched box should be watertight")
	}
	if !HasConsistentOrientation(patched) {
		t.Error("patch should preserve consistent winding")
	}
	if got := SignedVolume(patched); math.Abs(got-8) > tol {
		t.Errorf("patched volume = %g, want 8", got)
	}
}

func TestCloseHoles_RespectsMaxEdges(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	open := &TriMesh{Vertices: m.Vertices, Faces: m.Faces[1:]}

	patched, closed := CloseHoles(open, 2)
	if closed != 0 {
		t.Errorf("closed %d holes with maxEdges 2, want 0", closed)
	}
	if patched.FaceCount() != open.FaceCount() {
		t.Errorf("face count changed from %d to %d", open.FaceCount(), patched.FaceCount())
	}
}

func TestCloseHoles_NoOpOnWatertight(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	patched, closed := CloseHoles(m, 50)
	if closed != 0 {
		t.Errorf("closed %d holes on watertight mesh, want 0", closed)
	}
	if patched.FaceCount() != 12 {
		t.Errorf("face count = %d, want 12", patched.FaceCount())
	}
}

func TestReorient_FixesFlippedFaces(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	broken := m.Clone()
	broken.Faces[0] = [3]int{broken.Faces[0][0], broken.Faces[0][2], broken.Faces[0][1]}
	broken.Faces[7] = [3]int{broken.Faces[7][0], broken.Faces[7][2], broken.Faces[7][1]}
	if HasConsistentOrientation(broken) {
		t.Fatal("flipped faces should break orientation consistency")
	}

	fixed, changed := Reorient(broken)
	if !changed {
		t.Error("reorient should report a change")
	}
	if !HasConsistentOrientation(fixed) {
		t.Error("reorient should restore consistent winding")
	}
	if got := SignedVolume(fixed); math.Abs(got-8) > tol {
		t.Errorf("reoriented volume = %g, want 8", got)
	}
}

func TestReorient_FlipsInvertedMesh(t *testing.T) {
	inverted := NewBox(Vec3{}, Vec3{2, 2, 2}).FlipOrientation()
	fixed, changed := Reorient(inverted)
	if !changed {
		t.Error("reorient should report a change")
	}
	if got := SignedVolume(fixed); math.Abs(got-8) > tol {
		t.Errorf("volume after reorient = %g, want 8", got)
	}
}

func TestReorient_NoOpOnValidMesh(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	_, changed := Reorient(m)
	if changed {
		t.Error("reorient changed an already consistent mesh")
	}
}

func TestFaceComponents_TwoBodies(t *testing.T) {
	a := NewBox(Vec3{}, Vec3{2, 2, 2})
	b := NewBox(Vec3{X: 100}, Vec3{4, 4, 4})
	m := concat(a, b)

	if got := ConnectedComponentCount(m); got != 2 {
		t.Fatalf("component count = %d, want 2", got)
	}

	comps := FaceComponents(m)
	largest := comps[0]
	for _, c := range comps[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}
	sub := SubmeshFromFaces(m, largest)
	if got := SignedVolume(sub); math.Abs(got-64) > tol {
		t.Errorf("largest component volume = %g, want 64", got)
	}
	if sub.VertexCount() != 8 {
		t.Errorf("largest component vertex count = %d, want 8", sub.VertexCount())
	}
}

func TestRemoveUnreferencedVertices(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	m.Vertices = append(m.Vertices, Vec3{X: 999})
	cleaned := RemoveUnreferencedVertices(m)
	if cleaned.VertexCount() != 8 {
		t.Errorf("vertex count = %d, want 8", cleaned.VertexCount())
	}
	if !IsWatertight(cleaned) {
		t.Error("cleanup should not open the mesh")
	}
}

func TestRemoveNonFiniteVertices(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	m.Vertices = append(m.Vertices, Vec3{X: math.NaN()})
	m.Faces = append(m.Faces, [3]int{0, 1, 8})

	cleaned := RemoveNonFiniteVertices(m)
	if err := cleaned.Validate(); err != nil {
		t.Fatalf("cleaned mesh invalid: %v", err)
	}
	if cleaned.FaceCount() != 12 {
		t.Errorf("face count = %d, want 12", cleaned.FaceCount())
	}
	if cleaned.VertexCount() != 8 {
		t.Errorf("vertex count = %d, want 8", cleaned.VertexCount())
	}
}

func TestDegenerateFaceCount(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	m.Vertices = append(m.Vertices, Vec3{X: 50}, Vec3{X: 50.0000001}, Vec3{X: 50, Y: 1e-9})
	m.Faces = append(m.Faces, [3]int{8, 9, 10})

	if got := DegenerateFaceCount(m, 1e-8); got != 1 {
		t.Errorf("degenerate face count = %d, want 1", got)
	}
	cleaned := RemoveDegenerateFaces(m, 1e-8)
	if cleaned.FaceCount() != 12 {
		t.Errorf("face count after cleanup = %d, want 12", cleaned.FaceCount())
	}
}

func TestNonManifoldEdgeCount_Fin(t *testing.T) {
	m := NewBox(Vec3{}, Vec3{2, 2, 2})
	// A fin hanging off an existing edge makes that edge 3-valent.
	m.Vertices = append(m.Vertices, Vec3{X: 5, Y: 5, Z: 5})
	f := m.Faces[0]
	m.Faces = append(m.Faces, [3]int{f[0], f[1], 8})

	if got := NonManifoldEdgeCount(m); got != 1 {
		t.Errorf("non-manifold edge count = %d, want 1", got)
	}
	if IsWatertight(m) {
		t.Error("mesh with fin should not be watertight")
	}
}
