// Package meshio loads reference surfaces and exports finished guides.
// Formats route by file extension: STL, OBJ and OFF load; STL, PLY and
// 3MF export. Loaded meshes are welded and re-oriented before use, since
// triangle-soup formats carry no shared-edge information.
package meshio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/chazu/dentin/pkg/geom"
)

// loadWeld merges duplicated vertices from triangle-soup formats so
// watertight checks see shared edges.
const loadWeld = 1e-8

// Load reads a mesh from path, merges duplicate vertices, orients faces
// outward and checks basic sanity.
func Load(path string) (*geom.TriMesh, error) {
	var (
		m   *geom.TriMesh
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		m, err = readSTL(path)
	case ".obj":
		m, err = readOBJ(path)
	case ".off":
		m, err = readOFF(path)
	default:
		return nil, errors.Errorf("unsupported mesh format %q (supported: .stl, .obj, .off)", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	m = geom.MergeVertices(m, loadWeld)
	m, _ = geom.Reorient(m)
	if m.VertexCount() == 0 {
		return nil, errors.Errorf("mesh from %s has no vertices", path)
	}
	if m.FaceCount() == 0 {
		return nil, errors.Errorf("mesh from %s has no faces", path)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "mesh from %s", path)
	}
	return m, nil
}

// Export writes m to path in the format its extension names, creating the
// parent directory if needed. Empty meshes are refused.
func Export(m *geom.TriMesh, path string) error {
	if m == nil || m.IsEmpty() {
		return errors.New("refusing to export an empty mesh")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "export")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		return writeSTL(m, path)
	case ".ply":
		return writePLY(m, path)
	case ".3mf":
		return write3MF(m, path)
	default:
		return errors.Errorf("unsupported export format %q (supported: .stl, .ply, .3mf)", ext)
	}
}
