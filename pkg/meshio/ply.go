package meshio

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/chazu/dentin/pkg/geom"
)

// writePLY emits ascii PLY, which slicers and mesh viewers accept and
// which stays diffable in version control.
func writePLY(m *geom.TriMesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write ply")
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "ply\nformat ascii 1.0\ncomment generated by dentin\n")
	fmt.Fprintf(w, "element vertex %d\n", m.VertexCount())
	fmt.Fprintf(w, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(w, "element face %d\n", m.FaceCount())
	fmt.Fprintf(w, "property list uchar int vertex_indices\nend_header\n")
	for _, v := range m.Vertices {
		fmt.Fprintf(w, "%g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, face := range m.Faces {
		fmt.Fprintf(w, "3 %d %d %d\n", face[0], face[1], face[2])
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "write ply")
	}
	return errors.Wrap(f.Close(), "write ply")
}
