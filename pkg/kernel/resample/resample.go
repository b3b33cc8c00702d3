// Package resample implements a Boolean backend that evaluates operands as
// ray-cast solids and re-extracts the result with marching cubes. Output
// geometry is voxel-accurate rather than exact, which makes the backend
// tolerant of messy scanned input at the cost of resolution-bound fidelity.
package resample

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel"
)

const (
	// defaultCells bounds the marching cubes grid along the longest axis.
	defaultCells = 100
	searchIters  = 8
	weldSpacing  = 1e-9
)

// Kernel is the resampling Boolean backend.
type Kernel struct {
	cells int
}

// New returns a resampling kernel at the default grid resolution.
func New() *Kernel {
	return &Kernel{cells: defaultCells}
}

var _ kernel.Kernel = (*Kernel)(nil)

// Difference returns the solid a minus b, re-extracted on a uniform grid.
func (k *Kernel) Difference(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	as, err := toSolid(a)
	if err != nil {
		return nil, errors.Wrap(err, "difference operand a")
	}
	bs, err := toSolid(b)
	if err != nil {
		return nil, errors.Wrap(err, "difference operand b")
	}
	return k.extract(&model3d.SubtractedSolid{Positive: as, Negative: bs}), nil
}

// Union returns the solid a joined with b, re-extracted on a uniform grid.
func (k *Kernel) Union(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	as, err := toSolid(a)
	if err != nil {
		return nil, errors.Wrap(err, "union operand a")
	}
	bs, err := toSolid(b)
	if err != nil {
		return nil, errors.Wrap(err, "union operand b")
	}
	return k.extract(model3d.JoinedSolid{as, bs}), nil
}

// IsValidVolume reports whether m is watertight, consistently wound, and
// encloses positive volume.
func (k *Kernel) IsValidVolume(m *geom.TriMesh) bool {
	return m != nil && geom.IsVolume(m)
}

func (k *Kernel) extract(s model3d.Solid) *geom.TriMesh {
	size := s.Max().Sub(s.Min())
	extent := size.X
	if size.Y > extent {
		extent = size.Y
	}
	if size.Z > extent {
		extent = size.Z
	}
	if extent <= 0 {
		return &geom.TriMesh{}
	}
	delta := extent / float64(k.cells)
	return fromMesh(model3d.MarchingCubesSearch(s, delta, searchIters))
}

func toSolid(m *geom.TriMesh) (model3d.Solid, error) {
	if m == nil || m.IsEmpty() {
		return nil, errors.New("empty mesh")
	}
	tris := make([]*model3d.Triangle, 0, len(m.Faces))
	for i := range m.Faces {
		a, b, c := m.FaceVertices(i)
		tris = append(tris, &model3d.Triangle{coord(a), coord(b), coord(c)})
	}
	mesh := model3d.NewMeshTriangles(tris)
	return model3d.NewColliderSolid(model3d.MeshToCollider(mesh)), nil
}

func fromMesh(m *model3d.Mesh) *geom.TriMesh {
	var verts []geom.Vec3
	var faces [][3]int
	for _, t := range m.TriangleSlice() {
		n := len(verts)
		verts = append(verts, vec(t[0]), vec(t[1]), vec(t[2]))
		faces = append(faces, [3]int{n, n + 1, n + 2})
	}
	out := geom.MergeVertices(geom.NewTriMesh(verts, faces), weldSpacing)
	return geom.RemoveUnreferencedVertices(out)
}

func coord(v geom.Vec3) model3d.Coord3D {
	return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
}

func vec(c model3d.Coord3D) geom.Vec3 {
	return geom.Vec3{X: c.X, Y: c.Y, Z: c.Z}
}
