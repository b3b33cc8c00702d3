package meshio

import (
	"os"

	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/dentin/pkg/geom"
)

// readOFF decodes Object File Format meshes. The triangle soup it returns
// is welded by Load.
func readOFF(path string) (*geom.TriMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tris, err := model3d.ReadOFF(f)
	if err != nil {
		return nil, err
	}
	verts := make([]geom.Vec3, 0, 3*len(tris))
	faces := make([][3]int, 0, len(tris))
	for _, t := range tris {
		n := len(verts)
		verts = append(verts,
			geom.Vec3{X: t[0].X, Y: t[0].Y, Z: t[0].Z},
			geom.Vec3{X: t[1].X, Y: t[1].Y, Z: t[1].Z},
			geom.Vec3{X: t[2].X, Y: t[2].Y, Z: t[2].Z},
		)
		faces = append(faces, [3]int{n, n + 1, n + 2})
	}
	return geom.NewTriMesh(verts, faces), nil
}
