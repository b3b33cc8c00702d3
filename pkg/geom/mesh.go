package geom

import (
	"fmt"
	"math"
)

// TriMesh is an indexed triangle mesh in millimeter units. Faces index into
// Vertices and are wound counter-clockwise when seen from outside the solid.
type TriMesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// NewTriMesh wraps the given vertex and face slices. The mesh takes
// ownership of both slices.
func NewTriMesh(vertices []Vec3, faces [][3]int) *TriMesh {
	return &TriMesh{Vertices: vertices, Faces: faces}
}

// Clone returns a deep copy of m.
func (m *TriMesh) Clone() *TriMesh {
	c := &TriMesh{
		Vertices: make([]Vec3, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	return c
}

// VertexCount returns the number of vertices.
func (m *TriMesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of triangles.
func (m *TriMesh) FaceCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no faces.
func (m *TriMesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// Validate checks that every face references a valid vertex and that all
// coordinates are finite.
func (m *TriMesh) Validate() error {
	for fi, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d of %d", fi, vi, len(m.Vertices))
			}
		}
	}
	for vi, v := range m.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("vertex %d has non-finite coordinates %s", vi, v)
		}
	}
	return nil
}

// BoundingBox returns the axis-aligned bounds of the mesh vertices. An empty
// mesh returns zero bounds.
func (m *TriMesh) BoundingBox() (min, max Vec3) {
	if len(m.Vertices) == 0 {
		return Vec3{}, Vec3{}
	}
	min = m.Vertices[0]
	max = m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max
}

// MapVertices returns a copy of m with f applied to every vertex. Faces are
// shared with the original mesh.
func (m *TriMesh) MapVertices(f func(Vec3) Vec3) *TriMesh {
	verts := make([]Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		verts[i] = f(v)
	}
	return &TriMesh{Vertices: verts, Faces: m.Faces}
}

// Translate returns a copy of m moved by d.
func (m *TriMesh) Translate(d Vec3) *TriMesh {
	return m.MapVertices(func(v Vec3) Vec3 { return v.Add(d) })
}

// Rotate returns a copy of m rotated about the origin by r.
func (m *TriMesh) Rotate(r Mat3) *TriMesh {
	return m.MapVertices(func(v Vec3) Vec3 { return r.MulVec(v) })
}

// FlipOrientation returns a copy of m with every face wound the other way.
func (m *TriMesh) FlipOrientation() *TriMesh {
	faces := make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		faces[i] = [3]int{f[0], f[2], f[1]}
	}
	return &TriMesh{Vertices: m.Vertices, Faces: faces}
}

// FaceVertices returns the three corners of face i.
func (m *TriMesh) FaceVertices(i int) (Vec3, Vec3, Vec3) {
	f := m.Faces[i]
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// FaceNormal returns the unit normal of face i, or the zero vector for a
// degenerate face.
func (m *TriMesh) FaceNormal(i int) Vec3 {
	a, b, c := m.FaceVertices(i)
	n := b.Sub(a).Cross(c.Sub(a))
	ln := n.Norm()
	if ln < normEps {
		return Vec3{}
	}
	return n.Scale(1 / ln)
}

// FaceArea returns the area of face i.
func (m *TriMesh) FaceArea(i int) float64 {
	a, b, c := m.FaceVertices(i)
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Norm()
}

// FaceCentroid returns the centroid of face i.
func (m *TriMesh) FaceCentroid(i int) Vec3 {
	a, b, c := m.FaceVertices(i)
	return a.Add(b).Add(c).Scale(1.0 / 3.0)
}

// NewBox returns a 12-triangle rectangular prism centered at center with the
// given full extents, wound outward.
func NewBox(center, extents Vec3) *TriMesh {
	h := extents.Scale(0.5)
	verts := []Vec3{
		center.Add(Vec3{-h.X, -h.Y, -h.Z}),
		center.Add(Vec3{h.X, -h.Y, -h.Z}),
		center.Add(Vec3{h.X, h.Y, -h.Z}),
		center.Add(Vec3{-h.X, h.Y, -h.Z}),
		center.Add(Vec3{-h.X, -h.Y, h.Z}),
		center.Add(Vec3{h.X, -h.Y, h.Z}),
		center.Add(Vec3{h.X, h.Y, h.Z}),
		center.Add(Vec3{-h.X, h.Y, h.Z}),
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom, -z
		{4, 5, 6}, {4, 6, 7}, // top, +z
		{0, 1, 5}, {0, 5, 4}, // front, -y
		{2, 3, 7}, {2, 7, 6}, // back, +y
		{0, 4, 7}, {0, 7, 3}, // left, -x
		{1, 2, 6}, {1, 6, 5}, // right, +x
	}
	return &TriMesh{Vertices: verts, Faces: faces}
}

// quantKey buckets a coordinate onto a grid of the given spacing so nearby
// vertices hash to the same cell.
func quantKey(v Vec3, spacing float64) [3]int64 {
	return [3]int64{
		int64(math.Round(v.X / spacing)),
		int64(math.Round(v.Y / spacing)),
		int64(math.Round(v.Z / spacing)),
	}
}
